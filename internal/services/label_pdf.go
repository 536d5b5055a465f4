package services

import (
	"bytes"
	"fmt"
	"strings"

	"pallet-backend/internal/models"
	"pallet-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// LabelFileName is the download name of a pallet label: 250525/13 -> 250525_13.pdf
func LabelFileName(pltNum string) string {
	return strings.ReplaceAll(pltNum, "/", "_") + ".pdf"
}

// PalletNumFromFileName reverses LabelFileName. Plain pallet numbers pass
// through unchanged.
func PalletNumFromFileName(name string) string {
	return strings.ReplaceAll(strings.TrimSuffix(name, ".pdf"), "_", "/")
}

// RenderPalletLabel draws a QC pallet label on an A4 page
func RenderPalletLabel(data *models.QCInputData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle("Pallet Label "+data.PalletNum, false)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(190, 12, "PALLET LABEL", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Printed: %s", timeutil.Now().Format(timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Product block
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(60, 12, "Product Code", "1", 0, "L", true, 0, "")
	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(130, 12, data.ProductCode, "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(60, 10, "Description", "1", 0, "L", true, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(130, 10, truncateRunes(data.ProductDescription, 60), "1", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(60, 12, "Quantity", "1", 0, "L", true, 0, "")
	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(130, 12, fmt.Sprintf("%d", data.Quantity), "1", 1, "C", false, 0, "")

	if data.ProductType != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(60, 10, "Type", "1", 0, "L", true, 0, "")
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(130, 10, data.ProductType, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Traceability block
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(95, 8, "Work Order", "1", 0, "C", true, 0, "")
	pdf.CellFormat(95, 8, "Operator / Q.C.", "1", 1, "C", true, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(95, 10, data.WorkOrderNumber, "1", 0, "C", false, 0, "")
	pdf.CellFormat(95, 10, fmt.Sprintf("%s / %s", data.OperatorClockNum, data.QCClockNum), "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	// Identifiers
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Pallet No.", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 36)
	pdf.CellFormat(190, 18, data.PalletNum, "1", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Series", "", 1, "C", false, 0, "")
	pdf.SetFont("Courier", "B", 24)
	pdf.CellFormat(190, 14, data.Series, "1", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render label: %w", err)
	}
	return buf.Bytes(), nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
