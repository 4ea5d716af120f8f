package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hendrawn/invoice-monitoring/internal/application/port"
	"github.com/hendrawn/invoice-monitoring/internal/domain/entity"
	"github.com/hendrawn/invoice-monitoring/internal/domain/workflow"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// fakeInvoiceRepo is an in-memory InvoiceRepository with the same guarded
// update semantics the SQL implementation provides
type fakeInvoiceRepo struct {
	invoices map[string]*entity.Invoice
	byNumber map[string]string
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: make(map[string]*entity.Invoice),
		byNumber: make(map[string]string),
	}
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	clone := *invoice
	r.invoices[invoice.ID] = &clone
	r.byNumber[invoice.InvoiceNumber] = invoice.ID
	return nil
}

func (r *fakeInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, nil
	}
	clone := *inv
	return &clone, nil
}

func (r *fakeInvoiceRepo) GetByNumber(ctx context.Context, number string) (*entity.Invoice, error) {
	id, ok := r.byNumber[number]
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *fakeInvoiceRepo) UpdateStatus(ctx context.Context, id string, from, to string, settlement *entity.Settlement) (int64, error) {
	inv, ok := r.invoices[id]
	if !ok || inv.Status.String() != from {
		return 0, nil
	}
	inv.Status = workflow.State(to)
	if settlement != nil {
		d := settlement.Date
		a := settlement.Amount
		inv.SettlementDate = &d
		inv.SettlementAmount = &a
		inv.PaymentMethod = settlement.Method
	}
	return 1, nil
}

func (r *fakeInvoiceRepo) UpdateField(ctx context.Context, id string, field string, value string) error {
	inv, ok := r.invoices[id]
	if !ok {
		return nil
	}
	setFieldValue(inv, field, value)
	return nil
}

func (r *fakeInvoiceRepo) List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for _, inv := range r.invoices {
		if filter.Status != "" && inv.Status.String() != filter.Status {
			continue
		}
		clone := *inv
		out = append(out, &clone)
	}
	return out, nil
}

// fakeHistoryRepo appends entries with autoincrement ids, preserving write order
type fakeHistoryRepo struct {
	entries []*entity.InvoiceHistory
	nextID  int64
}

func (r *fakeHistoryRepo) Create(ctx context.Context, record *entity.InvoiceHistory) error {
	r.nextID++
	record.ID = r.nextID
	clone := *record
	r.entries = append(r.entries, &clone)
	return nil
}

func (r *fakeHistoryRepo) GetByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceHistory, error) {
	var out []*entity.InvoiceHistory
	for _, e := range r.entries {
		if e.InvoiceID == invoiceID {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) forField(invoiceID, field string) []*entity.InvoiceHistory {
	var out []*entity.InvoiceHistory
	for _, e := range r.entries {
		if e.InvoiceID == invoiceID && e.Field == field {
			out = append(out, e)
		}
	}
	return out
}

// fakeTxManager runs the function directly; the fakes are already atomic
type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (InvoiceService, *fakeInvoiceRepo, *fakeHistoryRepo) {
	invoiceRepo := newFakeInvoiceRepo()
	historyRepo := &fakeHistoryRepo{}
	svc := NewInvoiceService(invoiceRepo, historyRepo, fakeTxManager{}, nopLogger{})
	return svc, invoiceRepo, historyRepo
}

func validInput(number string) CreateInvoiceInput {
	return CreateInvoiceInput{
		InvoiceNumber: number,
		ClientName:    "PT. Global Solution",
		IssueDate:     time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		TotalAmount:   25000000,
		Currency:      "IDR",
		Description:   "Jasa konsultasi IT",
		Position:      entity.PositionMitra,
		WorkRegion:    "BALIKPAPAN",
	}
}

var (
	staffActor   = entity.Actor{ID: "u-staff", Name: "Staff User", Role: entity.RoleStaff}
	managerActor = entity.Actor{ID: "u-manager", Name: "Manager", Role: entity.RoleManager}
)

func TestCreate_WritesInvoiceAndInitialHistory(t *testing.T) {
	svc, _, historyRepo := newTestService()

	invoice, err := svc.Create(context.Background(), validInput("INV-2025-001"), staffActor)
	require.NoError(t, err)
	require.NotNil(t, invoice)

	assert.Equal(t, workflow.StateDraft, invoice.Status)
	assert.NotEmpty(t, invoice.ID)
	assert.Equal(t, "u-staff", invoice.CreatedByID)
	assert.Nil(t, invoice.SettlementDate)

	statusEntries := historyRepo.forField(invoice.ID, "status")
	require.Len(t, statusEntries, 1)
	assert.Nil(t, statusEntries[0].OldValue)
	assert.Equal(t, "DRAFT", statusEntries[0].NewValue)
	assert.Equal(t, "Staff User", statusEntries[0].ChangedBy)

	positionEntries := historyRepo.forField(invoice.ID, "position")
	require.Len(t, positionEntries, 1)
	assert.Nil(t, positionEntries[0].OldValue)
	assert.Equal(t, "MITRA", positionEntries[0].NewValue)
	assert.Equal(t, statusEntries[0].ChangedAt, positionEntries[0].ChangedAt)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateInvoiceInput)
		wantErr error
	}{
		{"zero amount", func(in *CreateInvoiceInput) { in.TotalAmount = 0 }, ErrInvalidAmount},
		{"negative amount", func(in *CreateInvoiceInput) { in.TotalAmount = -5 }, ErrInvalidAmount},
		{"due before issue", func(in *CreateInvoiceInput) {
			in.DueDate = in.IssueDate.AddDate(0, 0, -1)
		}, ErrInvalidDateRange},
		{"unknown position", func(in *CreateInvoiceInput) { in.Position = "BRANCH" }, ErrInvalidPosition},
		{"empty number", func(in *CreateInvoiceInput) { in.InvoiceNumber = "  " }, ErrInvalidInvoiceNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, historyRepo := newTestService()
			input := validInput("INV-2025-010")
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), input, staffActor)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, historyRepo.entries, "no history on failed create")
		})
	}
}

func TestCreate_DuplicateInvoiceNumber(t *testing.T) {
	svc, invoiceRepo, historyRepo := newTestService()

	_, err := svc.Create(context.Background(), validInput("INV-2025-001"), staffActor)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validInput("INV-2025-001"), managerActor)
	assert.ErrorIs(t, err, ErrDuplicateInvoiceNumber)

	assert.Len(t, invoiceRepo.invoices, 1, "second row must not exist")
	assert.Len(t, historyRepo.entries, 2, "no extra history entries")
}

func TestTransitionStatus_IllegalSkipLeavesStateUnchanged(t *testing.T) {
	svc, invoiceRepo, historyRepo := newTestService()

	invoice, err := svc.Create(context.Background(), validInput("INV-2025-002"), staffActor)
	require.NoError(t, err)
	before := len(historyRepo.entries)

	_, err = svc.TransitionStatus(context.Background(), invoice.ID, workflow.StateAwaitingPayment, managerActor, "", nil)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)

	stored, _ := invoiceRepo.GetByID(context.Background(), invoice.ID)
	assert.Equal(t, workflow.StateDraft, stored.Status)
	assert.Len(t, historyRepo.entries, before, "no new history entry on rejected transition")
}

func TestTransitionStatus_UnknownTarget(t *testing.T) {
	svc, _, _ := newTestService()
	invoice, err := svc.Create(context.Background(), validInput("INV-2025-003"), staffActor)
	require.NoError(t, err)

	_, err = svc.TransitionStatus(context.Background(), invoice.ID, workflow.State("PAID"), managerActor, "", nil)
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
}

func TestTransitionStatus_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.TransitionStatus(context.Background(), "missing", workflow.StateSubmitted, staffActor, "", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransitionStatus_RoleGating(t *testing.T) {
	svc, _, _ := newTestService()
	invoice, err := svc.Create(context.Background(), validInput("INV-2025-004"), staffActor)
	require.NoError(t, err)

	// Anyone may submit their draft
	_, err = svc.TransitionStatus(context.Background(), invoice.ID, workflow.StateSubmitted, staffActor, "", nil)
	require.NoError(t, err)

	// Validation onwards is reserved for managers and admins
	_, err = svc.TransitionStatus(context.Background(), invoice.ID, workflow.StateInternalValidation, staffActor, "", nil)
	assert.ErrorIs(t, err, ErrNotAllowed)

	_, err = svc.TransitionStatus(context.Background(), invoice.ID, workflow.StateInternalValidation, managerActor, "", nil)
	assert.NoError(t, err)
}

func TestTransitionStatus_SettlementGating(t *testing.T) {
	svc, _, _ := newTestService()
	invoice, err := svc.Create(context.Background(), validInput("INV-2025-005"), staffActor)
	require.NoError(t, err)

	ctx := context.Background()
	for _, target := range []workflow.State{workflow.StateSubmitted, workflow.StateInternalValidation, workflow.StateAwaitingPayment} {
		_, err = svc.TransitionStatus(ctx, invoice.ID, target, managerActor, "", nil)
		require.NoError(t, err)
	}

	// Settlement data is mandatory for the final edge
	_, err = svc.TransitionStatus(ctx, invoice.ID, workflow.StateSettled, managerActor, "", nil)
	assert.ErrorIs(t, err, ErrMissingSettlementData)

	_, err = svc.TransitionStatus(ctx, invoice.ID, workflow.StateSettled, managerActor, "", &entity.Settlement{
		Date:   time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
		Amount: 25000000,
	})
	assert.ErrorIs(t, err, ErrMissingSettlementData, "payment method missing")

	settled, err := svc.TransitionStatus(ctx, invoice.ID, workflow.StateSettled, managerActor, "paid in full", &entity.Settlement{
		Date:   time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
		Amount: 25000000,
		Method: "Transfer Bank",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StateSettled, settled.Status)
	require.NotNil(t, settled.SettlementDate)
	require.NotNil(t, settled.SettlementAmount)
	assert.Equal(t, 25000000.0, *settled.SettlementAmount)
	assert.Equal(t, "Transfer Bank", settled.PaymentMethod)
}

// staleInvoiceRepo simulates a concurrent writer committing between the
// read and the guarded update: the guard matches zero rows
type staleInvoiceRepo struct {
	*fakeInvoiceRepo
}

func (r *staleInvoiceRepo) UpdateStatus(ctx context.Context, id string, from, to string, settlement *entity.Settlement) (int64, error) {
	return 0, nil
}

func TestTransitionStatus_ConcurrentTransitionRejected(t *testing.T) {
	invoiceRepo := newFakeInvoiceRepo()
	historyRepo := &fakeHistoryRepo{}
	svc := NewInvoiceService(invoiceRepo, historyRepo, fakeTxManager{}, nopLogger{})

	invoice, err := svc.Create(context.Background(), validInput("INV-2025-006"), staffActor)
	require.NoError(t, err)
	before := len(historyRepo.entries)

	stale := NewInvoiceService(&staleInvoiceRepo{invoiceRepo}, historyRepo, fakeTxManager{}, nopLogger{})
	_, err = stale.TransitionStatus(context.Background(), invoice.ID, workflow.StateSubmitted, managerActor, "", nil)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Len(t, historyRepo.entries, before, "losing writer records no history")

	// The winning writer's view still transitions normally
	_, err = svc.TransitionStatus(context.Background(), invoice.ID, workflow.StateSubmitted, managerActor, "", nil)
	assert.NoError(t, err)
}

func TestHappyPath_DraftToSettled(t *testing.T) {
	svc, _, historyRepo := newTestService()
	ctx := context.Background()

	input := validInput("INV-1")
	input.TotalAmount = 100
	invoice, err := svc.Create(ctx, input, staffActor)
	require.NoError(t, err)

	targets := []workflow.State{
		workflow.StateSubmitted,
		workflow.StateInternalValidation,
		workflow.StateAwaitingPayment,
		workflow.StateSettled,
	}
	for _, target := range targets {
		var settlement *entity.Settlement
		if target == workflow.StateSettled {
			settlement = &entity.Settlement{
				Date:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				Amount: 100,
				Method: "Transfer",
			}
		}
		invoice, err = svc.TransitionStatus(ctx, invoice.ID, target, managerActor, "", settlement)
		require.NoError(t, err, "transition to %s", target)
	}

	assert.Equal(t, workflow.StateSettled, invoice.Status)
	require.NotNil(t, invoice.SettlementDate)
	require.NotNil(t, invoice.SettlementAmount)
	assert.Equal(t, 100.0, *invoice.SettlementAmount)
	assert.Equal(t, "Transfer", invoice.PaymentMethod)

	// 5 status entries: initial DRAFT plus 4 transitions, in call order
	statusEntries := historyRepo.forField(invoice.ID, "status")
	require.Len(t, statusEntries, 5)

	wantNew := []string{"DRAFT", "SUBMITTED", "INTERNAL_VALIDATION", "AWAITING_PAYMENT", "SETTLED"}
	for i, e := range statusEntries {
		assert.Equal(t, wantNew[i], e.NewValue, "entry %d", i)
		if i == 0 {
			assert.Nil(t, e.OldValue)
		} else {
			require.NotNil(t, e.OldValue)
			assert.Equal(t, wantNew[i-1], *e.OldValue, "entry %d old value", i)
		}
	}
}

func TestUpdateField(t *testing.T) {
	svc, _, historyRepo := newTestService()
	invoice, err := svc.Create(context.Background(), validInput("INV-2025-007"), staffActor)
	require.NoError(t, err)

	updated, err := svc.UpdateField(context.Background(), invoice.ID, "workRegion", "TARAKAN", managerActor)
	require.NoError(t, err)
	assert.Equal(t, "TARAKAN", updated.WorkRegion)

	entries := historyRepo.forField(invoice.ID, "workRegion")
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].OldValue)
	assert.Equal(t, "BALIKPAPAN", *entries[0].OldValue)
	assert.Equal(t, "TARAKAN", entries[0].NewValue)
	assert.Equal(t, "Manager", entries[0].ChangedBy)
}

func TestUpdateField_RejectsNonMutableFields(t *testing.T) {
	svc, _, historyRepo := newTestService()
	invoice, err := svc.Create(context.Background(), validInput("INV-2025-008"), staffActor)
	require.NoError(t, err)
	before := len(historyRepo.entries)

	for _, field := range []string{"status", "settlementAmount", "invoiceNumber", "createdBy", "unknown"} {
		_, err := svc.UpdateField(context.Background(), invoice.ID, field, "x", managerActor)
		assert.ErrorIs(t, err, ErrFieldNotMutable, "field %s", field)
	}
	assert.Len(t, historyRepo.entries, before)
}

func TestUpdateField_PositionValidated(t *testing.T) {
	svc, _, _ := newTestService()
	invoice, err := svc.Create(context.Background(), validInput("INV-2025-009"), staffActor)
	require.NoError(t, err)

	_, err = svc.UpdateField(context.Background(), invoice.ID, "position", "BRANCH", managerActor)
	assert.ErrorIs(t, err, ErrInvalidPosition)

	updated, err := svc.UpdateField(context.Background(), invoice.ID, "position", "REGIONAL", managerActor)
	require.NoError(t, err)
	assert.Equal(t, entity.PositionRegional, updated.Position)
}

func TestGetHistory(t *testing.T) {
	svc, _, _ := newTestService()
	invoice, err := svc.Create(context.Background(), validInput("INV-2025-011"), staffActor)
	require.NoError(t, err)

	records, err := svc.GetHistory(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = svc.GetHistory(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
