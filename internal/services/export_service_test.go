package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"financy/internal/core"
	"financy/internal/events"
	"financy/internal/sheets"
	sheetmem "financy/internal/sheets/memory"
)

type failingWriter struct{}

func (failingWriter) WriteTable(context.Context, string, sheets.Table) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestParseExportKind(t *testing.T) {
	tests := []struct {
		in      string
		want    ExportKind
		wantErr bool
	}{
		{"", ExportSummary, false},
		{"Summary", ExportSummary, false},
		{"budget-status", ExportBudgetStatus, false},
		{"pie", "", true},
	}
	for _, tt := range tests {
		got, err := ParseExportKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseExportKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestExportService_Summary(t *testing.T) {
	writer := sheetmem.New()
	rec := &events.Recorder{}
	svc := NewExportService(newReportService(t), writer, rec, "sheet-id", "Report", nil)

	req := ReportRequest{Month: core.Month{Year: 2024, Month: 3}, BudgetID: 7}
	res, err := svc.Export(context.Background(), ExportSummary, req)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Sheet != "Report 2024-03" || res.Label != "1st Mar - 31st Mar" {
		t.Errorf("result = %+v", res)
	}

	table, ok := writer.Table("Report 2024-03")
	if !ok {
		t.Fatal("summary table was not written")
	}
	if res.Rows != len(table.Rows) || !strings.HasPrefix(res.Range, "Report 2024-03!A1:E") {
		t.Errorf("rows=%d range=%q, table has %d rows", res.Rows, res.Range, len(table.Rows))
	}

	msgs := rec.OfType(events.ReportExported)
	if len(msgs) != 1 {
		t.Fatalf("got %d export events, want 1", len(msgs))
	}
	var p events.ReportExportedPayload
	if err := msgs[0].Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.Spreadsheet != "sheet-id" || p.Range != res.Range || p.Period != res.Label {
		t.Errorf("payload = %+v", p)
	}
}

func TestExportService_BudgetStatus(t *testing.T) {
	writer := sheetmem.New()
	svc := NewExportService(newReportService(t), writer, nil, "sheet-id", "", nil)
	req := ReportRequest{Month: core.Month{Year: 2024, Month: 3}}

	if _, err := svc.Export(context.Background(), ExportBudgetStatus, req); !errors.Is(err, ErrBudgetRequired) {
		t.Errorf("Export() without budget error = %v, want ErrBudgetRequired", err)
	}

	req.BudgetID = 7
	res, err := svc.Export(context.Background(), ExportBudgetStatus, req)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	table, _ := writer.Table(res.Sheet)
	if !strings.HasPrefix(table.Title, "Budget 7, 1st Mar - 31st Mar") {
		t.Errorf("Title = %q", table.Title)
	}
}

func TestExportService_Errors(t *testing.T) {
	ctx := context.Background()
	req := ReportRequest{Month: core.Month{Year: 2024, Month: 3}}

	noWriter := NewExportService(newReportService(t), nil, nil, "", "", nil)
	if _, err := noWriter.Export(ctx, ExportSummary, req); err == nil {
		t.Error("expected error without a writer")
	}

	rec := &events.Recorder{}
	failing := NewExportService(newReportService(t), failingWriter{}, rec, "", "", nil)
	if _, err := failing.Export(ctx, ExportSummary, req); err == nil || !strings.Contains(err.Error(), "quota") {
		t.Errorf("Export() error = %v, want writer failure", err)
	}
	if len(rec.Messages()) != 0 {
		t.Error("no event should be published for a failed export")
	}

	bad := NewExportService(newReportService(t), sheetmem.New(), nil, "", "", nil)
	if _, err := bad.Export(ctx, ExportKind("pie"), req); err == nil {
		t.Error("expected error for an unknown export")
	}
}
