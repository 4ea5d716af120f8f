package entity

import "time"

// InvoiceHistory is one immutable entry of an invoice's audit trail.
// Entries are append-only: they are never updated or deleted, and only
// disappear when the parent invoice row is cascade-removed.
type InvoiceHistory struct {
	ID        int64     `json:"id"`
	InvoiceID string    `json:"invoice_id"`
	Field     string    `json:"field"`
	OldValue  *string   `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
	Notes     string    `json:"notes,omitempty"`
}
