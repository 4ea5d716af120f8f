package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/hendrawn/invoice-monitoring/internal/application/port"
	"github.com/hendrawn/invoice-monitoring/internal/domain/entity"
	"github.com/hendrawn/invoice-monitoring/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository on SQLite.
// The table is append-only; there is no update or delete path, and the
// autoincrement id preserves commit order for same-timestamp entries.
type HistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlite.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a new history record
func (r *HistoryRepository) Create(ctx context.Context, record *entity.InvoiceHistory) error {
	query := `
		INSERT INTO invoice_history (
			invoice_id, field, old_value, new_value, changed_by, changed_at, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var notes sql.NullString
	if record.Notes != "" {
		notes = sql.NullString{String: record.Notes, Valid: true}
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		record.InvoiceID,
		record.Field,
		record.OldValue,
		record.NewValue,
		record.ChangedBy,
		record.ChangedAt,
		notes,
	)
	if err != nil {
		r.logger.Error("Failed to create history record",
			zap.String("invoice_id", record.InvoiceID), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	record.ID = id
	return nil
}

// GetByInvoiceID retrieves all history records for an invoice, oldest first
func (r *HistoryRepository) GetByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceHistory, error) {
	query := `
		SELECT id, invoice_id, field, old_value, new_value, changed_by, changed_at, notes
		FROM invoice_history
		WHERE invoice_id = ?
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.String("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []*entity.InvoiceHistory
	for rows.Next() {
		var record entity.InvoiceHistory
		var oldValue, notes sql.NullString
		err := rows.Scan(
			&record.ID,
			&record.InvoiceID,
			&record.Field,
			&oldValue,
			&record.NewValue,
			&record.ChangedBy,
			&record.ChangedAt,
			&notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		if oldValue.Valid {
			v := oldValue.String
			record.OldValue = &v
		}
		if notes.Valid {
			record.Notes = notes.String
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
