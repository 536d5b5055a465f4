package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"pallet-backend/internal/metrics"
	"pallet-backend/internal/models"
	"pallet-backend/internal/timeutil"

	"github.com/jackc/pgx/v5"
)

type ReprintPalletStore interface {
	GetByPltNum(ctx context.Context, pltNum string) (*models.Pallet, error)
	CreateReprint(ctx context.Context, p *models.Pallet, event *models.HistoryEvent, delta *models.InventoryDelta, prefix string) error
	SetPDFURL(ctx context.Context, pltNum, url string) error
}

type DamageLinker interface {
	LinkPartialDamage(ctx context.Context, originalPltNum, newPltNum string) (bool, error)
}

type LabelUploader interface {
	Put(ctx context.Context, fileName string, data []byte) (string, error)
	Get(ctx context.Context, fileName string) ([]byte, error)
}

type LabelPrinter interface {
	PrintPDF(ctx context.Context, fileName string, pdf []byte, copies int) error
}

// ReprintService issues replacement pallets after a void or partial damage.
// Labels and Printer are optional; leave them nil when not configured.
type ReprintService struct {
	Pallets     ReprintPalletStore
	History     DamageLinker
	Products    ProductStore
	StockLevels StockLevelStore
	ErrorLogs   ErrorLogStore
	Labels      LabelUploader
	Printer     LabelPrinter
	Notifier    ChangeNotifier
	Now         func() time.Time
}

func NewReprintService(pallets ReprintPalletStore, history DamageLinker, products ProductStore, stock StockLevelStore, errorLogs ErrorLogStore, notifier ChangeNotifier) *ReprintService {
	return &ReprintService{
		Pallets:     pallets,
		History:     history,
		Products:    products,
		StockLevels: stock,
		ErrorLogs:   errorLogs,
		Notifier:    notifier,
		Now:         timeutil.Now,
	}
}

func validateReprint(req *models.ReprintRequest) error {
	var missing []string
	if strings.TrimSpace(req.ProductCode) == "" {
		missing = append(missing, "productCode")
	}
	if req.Quantity <= 0 {
		missing = append(missing, "quantity")
	}
	if strings.TrimSpace(req.OperatorClockNum) == "" {
		missing = append(missing, "operatorClockNum")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingReprintData, strings.Join(missing, ", "))
	}
	return nil
}

// Reprint creates the replacement pallet and its label. Once the pallet row
// is committed every later step is best effort.
func (s *ReprintService) Reprint(ctx context.Context, req models.ReprintRequest) (*models.ReprintResult, error) {
	if err := validateReprint(&req); err != nil {
		metrics.ReprintLabels.WithLabelValues("rejected").Inc()
		return nil, err
	}

	product, err := s.Products.GetByCode(ctx, req.ProductCode)
	if err != nil {
		metrics.ReprintLabels.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		metrics.ReprintLabels.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, req.ProductCode)
	}

	target := req.TargetLocation
	if target == "" {
		target = "Pipeline"
	}

	var operatorID *int
	if n, err := strconv.Atoi(strings.TrimSpace(req.OperatorClockNum)); err == nil {
		operatorID = &n
	}

	pallet := &models.Pallet{
		ProductCode: product.Code,
		ProductQty:  req.Quantity,
		Remark:      "Auto-reprinted from " + req.OriginalPltNum,
	}
	event := &models.HistoryEvent{
		OperatorID: operatorID,
		Action:     models.ActionAutoReprint,
		Location:   target,
		Remark:     reprintHistoryRemark(req),
	}
	delta := &models.InventoryDelta{
		ProductCode: product.Code,
		Buckets:     map[string]int{ReprintBucket(req.OriginalLocation): req.Quantity},
	}

	if err := s.Pallets.CreateReprint(ctx, pallet, event, delta, timeutil.PalletDatePrefix(s.Now())); err != nil {
		metrics.ReprintLabels.WithLabelValues("failed").Inc()
		s.logError(ctx, operatorID, fmt.Sprintf("Auto reprint failed for %s: %v", req.OriginalPltNum, err))
		return nil, fmt.Errorf("Auto reprint failed: %w", err)
	}

	log.Printf("[Reprint] %s -> %s (%s x%d) at %s", req.OriginalPltNum, pallet.PltNum, product.Code, req.Quantity, target)

	if req.OriginalPltNum != "" {
		if linked, err := s.History.LinkPartialDamage(ctx, req.OriginalPltNum, pallet.PltNum); err != nil {
			log.Printf("[Reprint] Failed to link damage history of %s: %v", req.OriginalPltNum, err)
		} else if linked {
			log.Printf("[Reprint] Linked partial damage of %s to %s", req.OriginalPltNum, pallet.PltNum)
		}
	}

	if msg, err := s.StockLevels.ApplyVoid(ctx, product.Code, -req.Quantity, "auto_reprint"); err != nil {
		metrics.VoidSideEffectFailures.WithLabelValues("stock_level").Inc()
		log.Printf("[Reprint] Stock level update failed for %s: %v", product.Code, err)
	} else if msg != "" {
		log.Printf("[Reprint] Stock level: %s", msg)
	}

	qc := &models.QCInputData{
		ProductCode:        product.Code,
		ProductDescription: product.Description,
		Quantity:           req.Quantity,
		Series:             pallet.Series,
		PalletNum:          pallet.PltNum,
		OperatorClockNum:   req.OperatorClockNum,
		QCClockNum:         req.OperatorClockNum,
		WorkOrderNumber:    s.workOrderFor(ctx, req.OriginalPltNum),
		ProductType:        product.Type,
	}

	result := &models.ReprintResult{
		NewPalletNumber: pallet.PltNum,
		FileName:        LabelFileName(pallet.PltNum),
		QCInputData:     qc,
		Autoprint:       true,
	}

	s.publishLabel(ctx, result)

	metrics.ReprintLabels.WithLabelValues("success").Inc()
	if s.Notifier != nil {
		s.Notifier.PalletChanged(pallet.PltNum, models.ActionAutoReprint)
	}

	return result, nil
}

func reprintHistoryRemark(req models.ReprintRequest) string {
	remark := "Reprinted from " + req.OriginalPltNum
	if req.Reason != "" {
		remark += " (" + req.Reason + ")"
	}
	if req.SourceAction != "" {
		remark += " [" + req.SourceAction + "]"
	}
	return remark
}

// workOrderFor carries the ACO order of the original pallet over to the label
func (s *ReprintService) workOrderFor(ctx context.Context, originalPltNum string) string {
	if originalPltNum == "" {
		return "-"
	}
	orig, err := s.Pallets.GetByPltNum(ctx, originalPltNum)
	if err != nil {
		return "-"
	}
	if ref, ok := ParseACORef(orig.Remark); ok {
		return strconv.Itoa(ref)
	}
	return "-"
}

// publishLabel renders, uploads and prints the label. Failures leave the
// reprint in place and are only logged.
func (s *ReprintService) publishLabel(ctx context.Context, result *models.ReprintResult) {
	pdf, err := RenderPalletLabel(result.QCInputData)
	if err != nil {
		metrics.VoidSideEffectFailures.WithLabelValues("label_render").Inc()
		log.Printf("[Reprint] Failed to render label %s: %v", result.FileName, err)
		return
	}

	if s.Labels != nil {
		url, err := s.Labels.Put(ctx, result.FileName, pdf)
		if err != nil {
			metrics.VoidSideEffectFailures.WithLabelValues("label_upload").Inc()
			log.Printf("[Reprint] Failed to upload label %s: %v", result.FileName, err)
		} else {
			result.PDFURL = url
			if err := s.Pallets.SetPDFURL(ctx, result.NewPalletNumber, url); err != nil {
				log.Printf("[Reprint] Failed to save pdf_url for %s: %v", result.NewPalletNumber, err)
			}
		}
	}

	if s.Printer != nil {
		if err := s.Printer.PrintPDF(ctx, result.FileName, pdf, 1); err != nil {
			metrics.VoidSideEffectFailures.WithLabelValues("label_print").Inc()
			log.Printf("[Reprint] Failed to print label %s: %v", result.FileName, err)
		} else {
			result.Printed = true
		}
	}
}

// LabelPDF returns the stored label of a pallet, rendering it again when
// storage has no copy.
func (s *ReprintService) LabelPDF(ctx context.Context, pltNum string) ([]byte, error) {
	pallet, err := s.Pallets.GetByPltNum(ctx, pltNum)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPalletNotFound
	}
	if err != nil {
		return nil, err
	}

	fileName := LabelFileName(pallet.PltNum)
	if s.Labels != nil {
		data, err := s.Labels.Get(ctx, fileName)
		if err == nil && len(data) > 0 {
			return data, nil
		}
		if err != nil {
			log.Printf("[Reprint] Stored label %s unavailable, re-rendering: %v", fileName, err)
		}
	}

	qc := &models.QCInputData{
		ProductCode:      pallet.ProductCode,
		Quantity:         pallet.ProductQty,
		Series:           pallet.Series,
		PalletNum:        pallet.PltNum,
		OperatorClockNum: "-",
		QCClockNum:       "-",
		WorkOrderNumber:  "-",
	}
	if ref, ok := ParseACORef(pallet.Remark); ok {
		qc.WorkOrderNumber = strconv.Itoa(ref)
	}
	if product, err := s.Products.GetByCode(ctx, pallet.ProductCode); err == nil && product != nil {
		qc.ProductDescription = product.Description
		qc.ProductType = product.Type
	}

	return RenderPalletLabel(qc)
}

// PrintLabel sends an existing pallet label to the printer
func (s *ReprintService) PrintLabel(ctx context.Context, pltNum string, copies int) error {
	if s.Printer == nil {
		return ErrPrinterDisabled
	}
	pdf, err := s.LabelPDF(ctx, pltNum)
	if err != nil {
		return err
	}
	if err := s.Printer.PrintPDF(ctx, LabelFileName(pltNum), pdf, copies); err != nil {
		metrics.VoidSideEffectFailures.WithLabelValues("label_print").Inc()
		return fmt.Errorf("print %s: %w", pltNum, err)
	}
	log.Printf("[Reprint] Printed %d copies of %s", max(copies, 1), pltNum)
	return nil
}

func (s *ReprintService) logError(ctx context.Context, operatorID *int, info string) {
	if s.ErrorLogs == nil {
		return
	}
	if err := s.ErrorLogs.Insert(ctx, &models.ErrorLog{
		Error:     "Auto Reprint Error",
		ErrorInfo: info,
		UserID:    operatorID,
	}); err != nil {
		log.Printf("[Reprint] Failed to write report_log: %v", err)
	}
}
