package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"pallet-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

type stubVoidReports struct {
	rows   []*models.VoidReportRow
	filter models.VoidReportFilter
}

func (s *stubVoidReports) List(ctx context.Context, f models.VoidReportFilter) ([]*models.VoidReportRow, error) {
	s.filter = f
	return s.rows, nil
}

func sampleVoidRows() []*models.VoidReportRow {
	at := time.Date(2025, 5, 15, 9, 0, 0, 0, time.UTC)
	return []*models.VoidReportRow{
		{PltNum: "150525/1", VoidTime: at, ProductCode: "MEP9090150", ProductQty: 40, VoidReason: models.ReasonWrongLabel, VoidBy: "Alan"},
		{PltNum: "150525/2", VoidTime: at, ProductCode: "MEP9090150", ProductQty: 40, DamageQty: 10, VoidReason: models.ReasonDamage, VoidBy: "Alan"},
		{PltNum: "150525/3", VoidTime: at, ProductCode: "MHL10", ProductQty: 20, VoidReason: models.ReasonWrongLabel, VoidBy: "Beth"},
		{PltNum: "150525/4", VoidTime: at, ProductCode: "MHL10", ProductQty: 5, VoidReason: models.ReasonOther},
	}
}

func TestSummarizeVoids(t *testing.T) {
	sum := SummarizeVoids(sampleVoidRows())

	if sum.TotalRecords != 4 || sum.TotalQuantity != 75 {
		t.Errorf("Expected 4 records / 75 qty, got %d / %d", sum.TotalRecords, sum.TotalQuantity)
	}
	if sum.DamageCount != 1 || sum.FullVoidCount != 3 {
		t.Errorf("Expected 1 damage / 3 full, got %d / %d", sum.DamageCount, sum.FullVoidCount)
	}
	if sum.UniqueProducts != 2 || sum.UniqueReasons != 3 {
		t.Errorf("Expected 2 products / 3 reasons, got %d / %d", sum.UniqueProducts, sum.UniqueReasons)
	}

	want := []models.ReasonStat{
		{Reason: models.ReasonWrongLabel, Count: 2, Quantity: 60},
		{Reason: models.ReasonDamage, Count: 1, Quantity: 10},
		{Reason: models.ReasonOther, Count: 1, Quantity: 5},
	}
	if len(sum.ByReason) != len(want) {
		t.Fatalf("Expected %d reasons, got %d", len(want), len(sum.ByReason))
	}
	for i := range want {
		if sum.ByReason[i] != want[i] {
			t.Errorf("ByReason[%d]: Expected %+v, got %+v", i, want[i], sum.ByReason[i])
		}
	}
}

func TestSummarizeVoidsEmpty(t *testing.T) {
	sum := SummarizeVoids(nil)
	if sum.TotalRecords != 0 || sum.ByReason == nil {
		t.Errorf("Expected empty summary with non-nil ByReason, got %+v", sum)
	}
}

func TestGenerateVoidReport(t *testing.T) {
	store := &stubVoidReports{rows: sampleVoidRows()}
	svc := NewVoidReportService(store)

	report, err := svc.Generate(context.Background(), models.VoidReportFilter{VoidReason: "label"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if store.filter.VoidReason != "label" {
		t.Errorf("Expected filter passed through, got %+v", store.filter)
	}
	if report.Records[1].VoidQty != 10 || report.Records[0].VoidQty != 40 {
		t.Errorf("Expected void_qty filled, got %d and %d", report.Records[0].VoidQty, report.Records[1].VoidQty)
	}
	if report.Summary.TotalQuantity != 75 {
		t.Errorf("Expected total 75, got %d", report.Summary.TotalQuantity)
	}
}

func TestRenderVoidReportPDF(t *testing.T) {
	rows := sampleVoidRows()
	data, err := RenderVoidReportPDF(&models.VoidReport{GeneratedAt: time.Now(), Records: rows, Summary: SummarizeVoids(rows)})
	if err != nil {
		t.Fatalf("RenderVoidReportPDF failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("Expected PDF output")
	}
}

func TestRenderVoidReportXLSX(t *testing.T) {
	rows := sampleVoidRows()
	data, err := RenderVoidReportXLSX(&models.VoidReport{GeneratedAt: time.Now(), Records: rows, Summary: SummarizeVoids(rows)})
	if err != nil {
		t.Fatalf("RenderVoidReportXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	got, err := f.GetRows(voidSheet)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("Expected header + 4 rows, got %d", len(got))
	}
	if got[0][0] != "Pallet" || got[2][0] != "150525/2" || got[2][6] != "10" {
		t.Errorf("Unexpected sheet content: %v", got[:3])
	}

	summary, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if summary[1][0] != "Total Quantity" || summary[1][1] != "75" {
		t.Errorf("Unexpected summary rows: %v", summary[:2])
	}
	if summary[8][0] != models.ReasonWrongLabel {
		t.Errorf("Expected largest reason first, got %v", summary[8])
	}
}
