package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hendrawn/invoice-monitoring/internal/application/port"
	"github.com/hendrawn/invoice-monitoring/internal/domain/entity"
	"github.com/hendrawn/invoice-monitoring/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateInvoiceInput carries the descriptive fields of a new invoice.
// Status is not accepted; every invoice starts in DRAFT.
type CreateInvoiceInput struct {
	InvoiceNumber string
	ClientName    string
	IssueDate     time.Time
	DueDate       time.Time
	TotalAmount   float64
	Currency      string
	Description   string
	JobTitle      string
	WorkPeriod    string
	Position      entity.Position
	WorkRegion    string
}

// InvoiceService owns the invoice status workflow and its audit trail.
// Every state-changing write is paired with exactly one history entry per
// changed field, committed as a single transaction.
type InvoiceService interface {
	Create(ctx context.Context, input CreateInvoiceInput, actor entity.Actor) (*entity.Invoice, error)
	Get(ctx context.Context, id string) (*entity.Invoice, error)
	List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error)
	TransitionStatus(ctx context.Context, id string, target workflow.State, actor entity.Actor, notes string, settlement *entity.Settlement) (*entity.Invoice, error)
	UpdateField(ctx context.Context, id, field, value string, actor entity.Actor) (*entity.Invoice, error)
	GetHistory(ctx context.Context, id string) ([]*entity.InvoiceHistory, error)
}

type invoiceServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	logger      Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	logger Logger,
) InvoiceService {
	return &invoiceServiceImpl{
		invoiceRepo: invoiceRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// Create validates the descriptive fields and writes the invoice together
// with its initial status and position history entries in one transaction.
func (s *invoiceServiceImpl) Create(ctx context.Context, input CreateInvoiceInput, actor entity.Actor) (*entity.Invoice, error) {
	if input.TotalAmount <= 0 {
		return nil, fmt.Errorf("%w: %.2f %s", ErrInvalidAmount, input.TotalAmount, input.Currency)
	}
	if input.DueDate.Before(input.IssueDate) {
		return nil, fmt.Errorf("%w: due %s, issued %s", ErrInvalidDateRange,
			input.DueDate.Format("2006-01-02"), input.IssueDate.Format("2006-01-02"))
	}
	if !input.Position.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPosition, input.Position)
	}

	number := strings.TrimSpace(input.InvoiceNumber)
	if number == "" {
		return nil, ErrInvalidInvoiceNumber
	}

	existing, err := s.invoiceRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, s.persistence("check invoice number", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateInvoiceNumber, number)
	}

	now := time.Now().UTC()
	invoice := &entity.Invoice{
		ID:            uuid.NewString(),
		InvoiceNumber: number,
		ClientName:    input.ClientName,
		IssueDate:     input.IssueDate,
		DueDate:       input.DueDate,
		TotalAmount:   input.TotalAmount,
		Currency:      input.Currency,
		Description:   input.Description,
		JobTitle:      input.JobTitle,
		WorkPeriod:    input.WorkPeriod,
		Status:        workflow.StateDraft,
		Position:      input.Position,
		WorkRegion:    input.WorkRegion,
		CreatedByID:   actor.ID,
		CreatedByName: actor.Name,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Create(txCtx, invoice); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		// Initial status and position are both part of the same timestamp batch
		entries := []*entity.InvoiceHistory{
			{
				InvoiceID: invoice.ID,
				Field:     "status",
				OldValue:  nil,
				NewValue:  workflow.StateDraft.String(),
				ChangedBy: actor.Name,
				ChangedAt: now,
			},
			{
				InvoiceID: invoice.ID,
				Field:     "position",
				OldValue:  nil,
				NewValue:  invoice.Position.String(),
				ChangedBy: actor.Name,
				ChangedAt: now,
			},
		}
		for _, h := range entries {
			if err := s.historyRepo.Create(txCtx, h); err != nil {
				return fmt.Errorf("create history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create invoice", "error", err, "invoice_number", number)
		return nil, s.persistence("create invoice", err)
	}

	s.logger.Info("Invoice created",
		"id", invoice.ID,
		"invoice_number", invoice.InvoiceNumber,
		"created_by", actor.ID)
	return invoice, nil
}

// Get retrieves an invoice by ID
func (s *invoiceServiceImpl) Get(ctx context.Context, id string) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.persistence("get invoice", err)
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
	}
	return invoice, nil
}

// List retrieves invoices matching the filter
func (s *invoiceServiceImpl) List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	invoices, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, s.persistence("list invoices", err)
	}
	return invoices, nil
}

// TransitionStatus moves an invoice forward one step in the lifecycle.
// The status update is guarded on the status read inside the transaction,
// so of two concurrent calls from the same starting status only one can
// commit; the other is rejected as an invalid transition.
func (s *invoiceServiceImpl) TransitionStatus(ctx context.Context, id string, target workflow.State, actor entity.Actor, notes string, settlement *entity.Settlement) (*entity.Invoice, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: %s", workflow.ErrInvalidState, target)
	}

	var updated *entity.Invoice
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		invoice, err := s.invoiceRepo.GetByID(txCtx, id)
		if err != nil {
			return s.persistence("get invoice", err)
		}
		if invoice == nil {
			return fmt.Errorf("%w: invoice %s", ErrNotFound, id)
		}

		if err := workflow.Validate(invoice.Status, target); err != nil {
			return err
		}
		if target != workflow.StateSubmitted && !actor.Role.CanValidate() {
			return fmt.Errorf("%w: role %s cannot move invoice to %s", ErrNotAllowed, actor.Role, target)
		}
		if target == workflow.StateSettled {
			if settlement == nil || settlement.Date.IsZero() || settlement.Amount <= 0 || settlement.Method == "" {
				return ErrMissingSettlementData
			}
		} else {
			settlement = nil
		}

		affected, err := s.invoiceRepo.UpdateStatus(txCtx, id, invoice.Status.String(), target.String(), settlement)
		if err != nil {
			return s.persistence("update status", err)
		}
		if affected == 0 {
			// A concurrent transition won the race; the caller's view is stale
			return fmt.Errorf("%w: invoice %s is no longer in %s", workflow.ErrInvalidTransition, id, invoice.Status)
		}

		previous := invoice.Status.String()
		history := &entity.InvoiceHistory{
			InvoiceID: id,
			Field:     "status",
			OldValue:  &previous,
			NewValue:  target.String(),
			ChangedBy: actor.Name,
			ChangedAt: time.Now().UTC(),
			Notes:     notes,
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return s.persistence("create history", err)
		}

		invoice.Status = target
		if settlement != nil {
			d := settlement.Date
			a := settlement.Amount
			invoice.SettlementDate = &d
			invoice.SettlementAmount = &a
			invoice.PaymentMethod = settlement.Method
		}
		invoice.UpdatedAt = history.ChangedAt
		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoice status changed",
		"id", id,
		"status", target.String(),
		"changed_by", actor.ID)
	return updated, nil
}

// UpdateField changes one mutable non-status attribute and records the
// old and new values in the audit trail, atomically.
func (s *invoiceServiceImpl) UpdateField(ctx context.Context, id, field, value string, actor entity.Actor) (*entity.Invoice, error) {
	if !entity.MutableFields[field] {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotMutable, field)
	}
	if field == "position" && !entity.Position(value).IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPosition, value)
	}

	var updated *entity.Invoice
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		invoice, err := s.invoiceRepo.GetByID(txCtx, id)
		if err != nil {
			return s.persistence("get invoice", err)
		}
		if invoice == nil {
			return fmt.Errorf("%w: invoice %s", ErrNotFound, id)
		}

		old := fieldValue(invoice, field)
		if err := s.invoiceRepo.UpdateField(txCtx, id, field, value); err != nil {
			return s.persistence("update field", err)
		}

		history := &entity.InvoiceHistory{
			InvoiceID: id,
			Field:     field,
			OldValue:  &old,
			NewValue:  value,
			ChangedBy: actor.Name,
			ChangedAt: time.Now().UTC(),
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return s.persistence("create history", err)
		}

		setFieldValue(invoice, field, value)
		invoice.UpdatedAt = history.ChangedAt
		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoice field updated",
		"id", id,
		"field", field,
		"changed_by", actor.ID)
	return updated, nil
}

// GetHistory returns the invoice's audit trail, oldest entry first
func (s *invoiceServiceImpl) GetHistory(ctx context.Context, id string) ([]*entity.InvoiceHistory, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.persistence("get invoice", err)
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
	}

	records, err := s.historyRepo.GetByInvoiceID(ctx, id)
	if err != nil {
		return nil, s.persistence("get history", err)
	}
	return records, nil
}

// persistence wraps storage-layer failures in the one retryable category,
// leaving already-typed business errors untouched
func (s *invoiceServiceImpl) persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

func fieldValue(inv *entity.Invoice, field string) string {
	switch field {
	case "clientName":
		return inv.ClientName
	case "description":
		return inv.Description
	case "jobTitle":
		return inv.JobTitle
	case "workPeriod":
		return inv.WorkPeriod
	case "position":
		return inv.Position.String()
	case "workRegion":
		return inv.WorkRegion
	}
	return ""
}

func setFieldValue(inv *entity.Invoice, field, value string) {
	switch field {
	case "clientName":
		inv.ClientName = value
	case "description":
		inv.Description = value
	case "jobTitle":
		inv.JobTitle = value
	case "workPeriod":
		inv.WorkPeriod = value
	case "position":
		inv.Position = entity.Position(value)
	case "workRegion":
		inv.WorkRegion = value
	}
}
