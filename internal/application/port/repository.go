package port

import (
	"context"

	"github.com/hendrawn/invoice-monitoring/internal/domain/entity"
)

// InvoiceRepository defines persistence operations for Invoice
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetByNumber(ctx context.Context, invoiceNumber string) (*entity.Invoice, error)

	// UpdateStatus updates the status (and settlement fields when set)
	// guarded on the expected current status. It returns the number of
	// rows affected so callers can detect a lost race.
	UpdateStatus(ctx context.Context, id string, from, to string, settlement *entity.Settlement) (int64, error)

	// UpdateField updates a single mutable column
	UpdateField(ctx context.Context, id string, field string, value string) error

	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)
}

// InvoiceFilter narrows List results
type InvoiceFilter struct {
	Status string
	Limit  int
	Offset int
}

// HistoryRepository defines persistence operations for InvoiceHistory.
// Entries are append-only; there is no update or delete.
type HistoryRepository interface {
	Create(ctx context.Context, record *entity.InvoiceHistory) error
	GetByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceHistory, error)
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
