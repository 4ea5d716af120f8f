package entity

import (
	"time"

	"github.com/hendrawn/invoice-monitoring/internal/domain/workflow"
)

// Position is the organizational classification of an invoice,
// orthogonal to its workflow status.
type Position string

const (
	PositionMitra      Position = "MITRA"
	PositionUser       Position = "USER"
	PositionArea       Position = "AREA"
	PositionRegional   Position = "REGIONAL"
	PositionHeadOffice Position = "HEAD_OFFICE"
)

var validPositions = map[Position]bool{
	PositionMitra:      true,
	PositionUser:       true,
	PositionArea:       true,
	PositionRegional:   true,
	PositionHeadOffice: true,
}

// IsValid returns true if the position is a known classification
func (p Position) IsValid() bool {
	return validPositions[p]
}

// String returns the string representation of the position
func (p Position) String() string {
	return string(p)
}

// Invoice represents a tracked invoice and its workflow state
type Invoice struct {
	ID            string         `json:"id"`
	InvoiceNumber string         `json:"invoice_number"`
	ClientName    string         `json:"client_name"`
	IssueDate     time.Time      `json:"issue_date"`
	DueDate       time.Time      `json:"due_date"`
	TotalAmount   float64        `json:"total_amount"`
	Currency      string         `json:"currency"`
	Description   string         `json:"description"`
	JobTitle      string         `json:"job_title"`
	WorkPeriod    string         `json:"work_period"`
	Status        workflow.State `json:"status"`
	Position      Position       `json:"position"`
	WorkRegion    string         `json:"work_region"`

	// Settlement fields are populated only once the invoice reaches
	// SETTLED and are immutable afterwards.
	SettlementDate   *time.Time `json:"settlement_date,omitempty"`
	SettlementAmount *float64   `json:"settlement_amount,omitempty"`
	PaymentMethod    string     `json:"payment_method,omitempty"`

	CreatedByID   string    `json:"created_by_id"`
	CreatedByName string    `json:"created_by_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Settlement carries the payment details required to settle an invoice
type Settlement struct {
	Date   time.Time
	Amount float64
	Method string
}

// MutableFields is the allow-list of invoice attributes that may be
// changed directly. Status and settlement fields are excluded; they only
// move through the workflow transition path.
var MutableFields = map[string]bool{
	"clientName":  true,
	"description": true,
	"jobTitle":    true,
	"workPeriod":  true,
	"position":    true,
	"workRegion":  true,
}
