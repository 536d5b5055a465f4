package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"pallet-backend/internal/cache"
	"pallet-backend/internal/models"
	"pallet-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/xuri/excelize/v2"
)

type VoidReportStore interface {
	List(ctx context.Context, f models.VoidReportFilter) ([]*models.VoidReportRow, error)
}

type VoidReportService struct {
	Reports VoidReportStore
	Now     func() time.Time
}

func NewVoidReportService(reports VoidReportStore) *VoidReportService {
	return &VoidReportService{Reports: reports, Now: timeutil.Now}
}

// Generate loads the filtered rows and summarises them. Results are cached
// briefly; any void clears the cache.
func (s *VoidReportService) Generate(ctx context.Context, f models.VoidReportFilter) (*models.VoidReport, error) {
	key := cache.QueryKey(cache.VoidReportPrefix, f)

	var cached models.VoidReport
	if cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	rows, err := s.Reports.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to load void report: %w", err)
	}
	if rows == nil {
		rows = []*models.VoidReportRow{}
	}
	for _, r := range rows {
		r.VoidQty = VoidQty(r)
	}

	report := &models.VoidReport{
		GeneratedAt: s.Now(),
		Records:     rows,
		Summary:     SummarizeVoids(rows),
	}

	cache.SetJSON(ctx, key, report, cache.StatsTTL)
	return report, nil
}

// VoidQty is the damaged quantity for partial damage, else the pallet quantity
func VoidQty(r *models.VoidReportRow) int {
	if r.DamageQty > 0 {
		return r.DamageQty
	}
	return r.ProductQty
}

// SummarizeVoids aggregates report rows. ByReason is ordered by quantity,
// largest first, ties by reason name.
func SummarizeVoids(rows []*models.VoidReportRow) *models.VoidReportSummary {
	sum := &models.VoidReportSummary{TotalRecords: len(rows), ByReason: []models.ReasonStat{}}
	products := make(map[string]struct{})
	reasons := make(map[string]*models.ReasonStat)

	for _, r := range rows {
		qty := VoidQty(r)
		sum.TotalQuantity += qty
		if r.DamageQty > 0 {
			sum.DamageCount++
		} else {
			sum.FullVoidCount++
		}
		if r.ProductCode != "" {
			products[r.ProductCode] = struct{}{}
		}

		stat, ok := reasons[r.VoidReason]
		if !ok {
			stat = &models.ReasonStat{Reason: r.VoidReason}
			reasons[r.VoidReason] = stat
		}
		stat.Count++
		stat.Quantity += qty
	}

	sum.UniqueProducts = len(products)
	sum.UniqueReasons = len(reasons)
	for _, stat := range reasons {
		sum.ByReason = append(sum.ByReason, *stat)
	}
	sort.Slice(sum.ByReason, func(i, j int) bool {
		if sum.ByReason[i].Quantity != sum.ByReason[j].Quantity {
			return sum.ByReason[i].Quantity > sum.ByReason[j].Quantity
		}
		return sum.ByReason[i].Reason < sum.ByReason[j].Reason
	})
	return sum
}

// RenderVoidReportPDF draws the report on landscape A4
func RenderVoidReportPDF(report *models.VoidReport) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(277, 12, "Void Pallet Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(277, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.In(timeutil.Local).Format(timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	sum := report.Summary
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(277, 8, "Summary", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(69, 8, fmt.Sprintf("Records: %d", sum.TotalRecords), "1", 0, "C", false, 0, "")
	pdf.CellFormat(69, 8, fmt.Sprintf("Quantity: %d", sum.TotalQuantity), "1", 0, "C", false, 0, "")
	pdf.CellFormat(69, 8, fmt.Sprintf("Full void: %d / Damage: %d", sum.FullVoidCount, sum.DamageCount), "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 8, fmt.Sprintf("Products: %d / Reasons: %d", sum.UniqueProducts, sum.UniqueReasons), "1", 1, "C", false, 0, "")
	pdf.Ln(3)

	if len(sum.ByReason) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(100, 7, "Reason", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 7, "Count", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 7, "Quantity", "1", 1, "C", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, r := range sum.ByReason {
			pdf.CellFormat(100, 6, truncateRunes(r.Reason, 45), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%d", r.Count), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%d", r.Quantity), "1", 1, "C", false, 0, "")
		}
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(10, 7, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Pallet", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Void Time", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Product", "1", 0, "C", true, 0, "")
	pdf.CellFormat(62, 7, "Description", "1", 0, "C", true, 0, "")
	pdf.CellFormat(18, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(18, 7, "Void Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, "Reason", "1", 0, "C", true, 0, "")
	pdf.CellFormat(34, 7, "Void By", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 8)
	for i, r := range report.Records {
		if i%2 == 0 {
			pdf.SetFillColor(255, 255, 255)
		} else {
			pdf.SetFillColor(245, 245, 245)
		}
		pdf.CellFormat(10, 6, fmt.Sprintf("%d", i+1), "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 6, r.PltNum, "1", 0, "C", true, 0, "")
		pdf.CellFormat(35, 6, r.VoidTime.In(timeutil.Local).Format(timeutil.DisplayLayout), "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 6, r.ProductCode, "1", 0, "C", true, 0, "")
		pdf.CellFormat(62, 6, truncateRunes(r.ProductDesc, 38), "1", 0, "L", true, 0, "")
		pdf.CellFormat(18, 6, fmt.Sprintf("%d", r.ProductQty), "1", 0, "C", true, 0, "")
		pdf.CellFormat(18, 6, fmt.Sprintf("%d", VoidQty(r)), "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 6, truncateRunes(r.VoidReason, 22), "1", 0, "L", true, 0, "")
		pdf.CellFormat(34, 6, truncateRunes(r.VoidBy, 20), "1", 1, "L", true, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const (
	voidSheet    = "Void Report"
	summarySheet = "Summary"
)

var voidReportHeader = []any{
	"Pallet", "Void Time", "Product Code", "Description", "Product Qty",
	"Damage Qty", "Void Qty", "Reason", "Void By", "Original Remark",
}

// RenderVoidReportXLSX writes the records and summary as two sheets
func RenderVoidReportXLSX(report *models.VoidReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", voidSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	if err := f.SetSheetRow(voidSheet, "A1", &voidReportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(voidSheet, "A1", "J1", bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, r := range report.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			r.PltNum,
			r.VoidTime.In(timeutil.Local).Format(timeutil.DateTimeLayout),
			r.ProductCode,
			r.ProductDesc,
			r.ProductQty,
			r.DamageQty,
			VoidQty(r),
			r.VoidReason,
			r.VoidBy,
			r.OriginalRemark,
		}
		if err := f.SetSheetRow(voidSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	sum := report.Summary
	lines := [][]any{
		{"Total Records", sum.TotalRecords},
		{"Total Quantity", sum.TotalQuantity},
		{"Full Void", sum.FullVoidCount},
		{"Damage", sum.DamageCount},
		{"Unique Products", sum.UniqueProducts},
		{"Unique Reasons", sum.UniqueReasons},
		{},
		{"Reason", "Count", "Quantity"},
	}
	for _, r := range sum.ByReason {
		lines = append(lines, []any{r.Reason, r.Count, r.Quantity})
	}
	for i := range lines {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &lines[i]); err != nil {
			return nil, fmt.Errorf("write summary: %w", err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A8", "C8", bold); err != nil {
		return nil, fmt.Errorf("style summary: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
