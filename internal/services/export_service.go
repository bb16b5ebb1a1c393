package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"financy/internal/core"
	"financy/internal/events"
	"financy/internal/log"
	"financy/internal/sheets"
)

// ExportKind selects which report is written to the sheet.
type ExportKind string

const (
	ExportSummary      ExportKind = "summary"
	ExportBudgetStatus ExportKind = "budget-status"
)

func ParseExportKind(s string) (ExportKind, error) {
	switch k := ExportKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ExportSummary, ExportBudgetStatus:
		return k, nil
	case "":
		return ExportSummary, nil
	}
	return "", fmt.Errorf("unknown export %q", s)
}

// ExportResult describes a finished export.
type ExportResult struct {
	Sheet string `json:"sheet"`
	Range string `json:"range"`
	Rows  int    `json:"rows"`
	Label string `json:"period"`
}

// ExportService renders reports as tables and hands them to a sheet writer.
type ExportService struct {
	reports     *ReportService
	writer      sheets.ReportWriter
	publisher   events.Publisher
	spreadsheet string
	sheetPrefix string
	logger      *log.Logger
}

func NewExportService(reports *ReportService, writer sheets.ReportWriter, publisher events.Publisher, spreadsheet, sheetPrefix string, logger *log.Logger) *ExportService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	if sheetPrefix == "" {
		sheetPrefix = "Report"
	}
	return &ExportService{
		reports:     reports,
		writer:      writer,
		publisher:   publisher,
		spreadsheet: spreadsheet,
		sheetPrefix: sheetPrefix,
		logger:      logger.WithComponent(log.ComponentSheets),
	}
}

// SheetName is the sheet a report of month is written to, e.g. "Report 2024-03".
func (s *ExportService) SheetName(m core.Month) string {
	return s.sheetPrefix + " " + m.String()
}

// Export builds the requested report and replaces its sheet. A failed event
// publish is logged but does not fail the export.
func (s *ExportService) Export(ctx context.Context, kind ExportKind, req ReportRequest) (ExportResult, error) {
	if s.writer == nil {
		return ExportResult{}, errors.New("no report writer configured")
	}
	req, err := s.reports.Normalize(req)
	if err != nil {
		return ExportResult{}, err
	}

	var table sheets.Table
	var label string
	switch kind {
	case ExportSummary, "":
		sum, err := s.reports.Summary(ctx, req)
		if err != nil {
			return ExportResult{}, fmt.Errorf("build summary: %w", err)
		}
		table, label = sheets.SummaryTable(sum), sum.Label
	case ExportBudgetStatus:
		status, err := s.reports.BudgetStatus(ctx, req)
		if err != nil {
			return ExportResult{}, fmt.Errorf("build budget status: %w", err)
		}
		info, _ := DescribePeriod(req.Month, req.Frequency, req.StartDay)
		label = info.Label
		table = sheets.BudgetStatusTable(status, label)
	default:
		return ExportResult{}, fmt.Errorf("unknown export %q", kind)
	}

	sheet := s.SheetName(req.Month)
	rng, err := s.writer.WriteTable(ctx, sheet, table)
	if err != nil {
		return ExportResult{}, fmt.Errorf("write %s: %w", sheet, err)
	}
	res := ExportResult{Sheet: sheet, Range: rng, Rows: len(table.Rows), Label: label}

	payload := events.ReportExportedPayload{
		Spreadsheet: s.spreadsheet,
		Range:       rng,
		Rows:        res.Rows,
		Period:      label,
	}
	if err := events.Emit(ctx, s.publisher, events.ReportExported, payload); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish export event", log.FieldError, err)
	}

	s.logger.InfoContext(ctx, "Exported report",
		log.FieldOperation, log.OpExport,
		log.FieldSpreadsheet, s.spreadsheet,
		"sheet", sheet,
		log.FieldCount, res.Rows)
	return res, nil
}
