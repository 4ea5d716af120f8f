package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hendrawn/invoice-monitoring/internal/application/port"
	"github.com/hendrawn/invoice-monitoring/internal/domain/entity"
	"github.com/hendrawn/invoice-monitoring/internal/domain/workflow"
	"github.com/hendrawn/invoice-monitoring/internal/infrastructure/persistence/sqlite"
)

// InvoiceRepository implements port.InvoiceRepository on SQLite
type InvoiceRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sqlite.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

const invoiceColumns = `
	id, invoice_number, client_name, issue_date, due_date, total_amount,
	currency, description, job_title, work_period, status, position,
	work_region, settlement_date, settlement_amount, payment_method,
	created_by_id, created_by_name, created_at, updated_at
`

// mutableColumns maps the API field names onto their columns. Only
// fields in this map may reach UpdateField.
var mutableColumns = map[string]string{
	"clientName":  "client_name",
	"description": "description",
	"jobTitle":    "job_title",
	"workPeriod":  "work_period",
	"position":    "position",
	"workRegion":  "work_region",
}

// Create inserts a new invoice row
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (
			id, invoice_number, client_name, issue_date, due_date, total_amount,
			currency, description, job_title, work_period, status, position,
			work_region, created_by_id, created_by_name, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		invoice.ID,
		invoice.InvoiceNumber,
		invoice.ClientName,
		invoice.IssueDate,
		invoice.DueDate,
		invoice.TotalAmount,
		invoice.Currency,
		invoice.Description,
		invoice.JobTitle,
		invoice.WorkPeriod,
		invoice.Status.String(),
		invoice.Position.String(),
		invoice.WorkRegion,
		invoice.CreatedByID,
		invoice.CreatedByName,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create invoice", zap.String("invoice_number", invoice.InvoiceNumber), zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// GetByID retrieves an invoice by its ID; (nil, nil) when absent
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`
	return r.scanOne(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
}

// GetByNumber retrieves an invoice by its unique number; (nil, nil) when absent
func (r *InvoiceRepository) GetByNumber(ctx context.Context, invoiceNumber string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_number = ?`
	return r.scanOne(r.db.Executor(ctx).QueryRowContext(ctx, query, invoiceNumber))
}

// UpdateStatus moves the status guarded on the expected current value.
// A concurrent transition that committed first leaves zero rows matching
// the guard, which the caller treats as a rejected transition.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id string, from, to string, settlement *entity.Settlement) (int64, error) {
	var result sql.Result
	var err error

	now := time.Now().UTC()
	if settlement != nil {
		query := `
			UPDATE invoices
			SET status = ?, settlement_date = ?, settlement_amount = ?,
				payment_method = ?, updated_at = ?
			WHERE id = ? AND status = ?
		`
		result, err = r.db.Executor(ctx).ExecContext(ctx, query,
			to, settlement.Date, settlement.Amount, settlement.Method, now, id, from)
	} else {
		query := `UPDATE invoices SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
		result, err = r.db.Executor(ctx).ExecContext(ctx, query, to, now, id, from)
	}
	if err != nil {
		r.logger.Error("Failed to update invoice status", zap.String("id", id), zap.Error(err))
		return 0, fmt.Errorf("failed to update status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// UpdateField updates a single mutable column
func (r *InvoiceRepository) UpdateField(ctx context.Context, id string, field string, value string) error {
	column, ok := mutableColumns[field]
	if !ok {
		return fmt.Errorf("column not updatable: %s", field)
	}

	query := fmt.Sprintf(`UPDATE invoices SET %s = ?, updated_at = ? WHERE id = ?`, column)
	_, err := r.db.Executor(ctx).ExecContext(ctx, query, value, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to update invoice field",
			zap.String("id", id), zap.String("field", field), zap.Error(err))
		return fmt.Errorf("failed to update field: %w", err)
	}
	return nil
}

// List retrieves invoices matching the filter, newest first
func (r *InvoiceRepository) List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	args := []interface{}{}

	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC, invoice_number DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *InvoiceRepository) scanOne(row *sql.Row) (*entity.Invoice, error) {
	invoice, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var invoice entity.Invoice
	var status, position string
	var settlementDate sql.NullTime
	var settlementAmount sql.NullFloat64
	var paymentMethod sql.NullString

	err := row.Scan(
		&invoice.ID,
		&invoice.InvoiceNumber,
		&invoice.ClientName,
		&invoice.IssueDate,
		&invoice.DueDate,
		&invoice.TotalAmount,
		&invoice.Currency,
		&invoice.Description,
		&invoice.JobTitle,
		&invoice.WorkPeriod,
		&status,
		&position,
		&invoice.WorkRegion,
		&settlementDate,
		&settlementAmount,
		&paymentMethod,
		&invoice.CreatedByID,
		&invoice.CreatedByName,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}

	invoice.Status = workflow.State(status)
	invoice.Position = entity.Position(position)
	if settlementDate.Valid {
		d := settlementDate.Time
		invoice.SettlementDate = &d
	}
	if settlementAmount.Valid {
		a := settlementAmount.Float64
		invoice.SettlementAmount = &a
	}
	if paymentMethod.Valid {
		invoice.PaymentMethod = paymentMethod.String
	}
	return &invoice, nil
}

// Verify interface compliance
var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
