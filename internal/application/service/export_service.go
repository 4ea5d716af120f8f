package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hendrawn/invoice-monitoring/internal/application/port"
	"github.com/hendrawn/invoice-monitoring/internal/domain/entity"
)

// ExportService renders invoice reports
type ExportService interface {
	// ExportInvoices produces an xlsx workbook listing the invoices
	// matching the filter
	ExportInvoices(ctx context.Context, filter port.InvoiceFilter) ([]byte, error)
}

type exportServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	logger      Logger
}

// NewExportService creates a new ExportService
func NewExportService(invoiceRepo port.InvoiceRepository, logger Logger) ExportService {
	return &exportServiceImpl{
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

var exportHeaders = []string{
	"Invoice Number", "Client", "Issue Date", "Due Date", "Amount", "Currency",
	"Status", "Position", "Work Region", "Job Title", "Work Period",
	"Settlement Date", "Settlement Amount", "Payment Method", "Created By",
}

// ExportInvoices writes one row per invoice, header row first
func (s *exportServiceImpl) ExportInvoices(ctx context.Context, filter port.InvoiceFilter) ([]byte, error) {
	invoices, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: list invoices: %v", ErrPersistence, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("set header: %w", err)
		}
	}

	for i, inv := range invoices {
		if err := s.writeRow(f, sheet, i+2, inv); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("Invoices exported", "count", len(invoices))
	return buf.Bytes(), nil
}

func (s *exportServiceImpl) writeRow(f *excelize.File, sheet string, row int, inv *entity.Invoice) error {
	settlementDate := ""
	if inv.SettlementDate != nil {
		settlementDate = inv.SettlementDate.Format("2006-01-02")
	}
	var settlementAmount interface{}
	if inv.SettlementAmount != nil {
		settlementAmount = *inv.SettlementAmount
	}

	values := []interface{}{
		inv.InvoiceNumber,
		inv.ClientName,
		inv.IssueDate.Format("2006-01-02"),
		inv.DueDate.Format("2006-01-02"),
		inv.TotalAmount,
		inv.Currency,
		inv.Status.String(),
		inv.Position.String(),
		inv.WorkRegion,
		inv.JobTitle,
		inv.WorkPeriod,
		settlementDate,
		settlementAmount,
		inv.PaymentMethod,
		inv.CreatedByName,
	}

	for col, value := range values {
		if value == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set cell: %w", err)
		}
	}
	return nil
}
