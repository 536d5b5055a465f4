package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"pallet-backend/internal/metrics"
	"pallet-backend/internal/models"
	"pallet-backend/internal/timeutil"

	"github.com/jackc/pgx/v5"
)

// VoidStores groups the tables a void touches
type VoidStores struct {
	Pallets     PalletStore
	History     HistoryStore
	Inventory   InventoryStore
	ACO         ACOStore
	GRN         GRNStore
	Reports     VoidRecordStore
	ErrorLogs   ErrorLogStore
	StockLevels StockLevelStore
}

// VoidService voids and damages pallets. Steps run in order without a
// surrounding transaction; only the remark/quantity update is compensated
// when the inventory insert fails. Later side effects are best effort.
type VoidService struct {
	VoidStores
	Search   *PalletSearchService
	Verifier *PasswordVerifier
	Notifier ChangeNotifier
	Now      func() time.Time
}

func NewVoidService(search *PalletSearchService, verifier *PasswordVerifier, stores VoidStores, notifier ChangeNotifier) *VoidService {
	return &VoidService{
		VoidStores: stores,
		Search:     search,
		Verifier:   verifier,
		Notifier:   notifier,
		Now:        timeutil.Now,
	}
}

// VoidPallet voids a whole pallet. A Damage reason is delegated to ProcessDamage.
func (s *VoidService) VoidPallet(ctx context.Context, email string, req models.VoidRequest) (*models.VoidResult, error) {
	reason, ok := models.LookupVoidReason(req.Reason)
	if !ok {
		return nil, s.rejected("void", ErrInvalidReason)
	}
	if reason.RequiresDamageQty {
		return s.ProcessDamage(ctx, email, models.DamageRequest{
			PltNum:    req.PltNum,
			Password:  req.Password,
			DamageQty: req.DamageQty,
		})
	}
	if req.Password == "" {
		return nil, s.rejected("void", ErrPasswordRequired)
	}

	info, err := s.loadVoidable(ctx, req.PltNum)
	if err != nil {
		return nil, s.rejected("void", err)
	}

	clock, err := s.verify(ctx, email, req.Password, info)
	if err != nil {
		return nil, s.rejected("void", err)
	}

	log.Printf("[VoidService] Voiding %s (%s x%d) reason=%s by %d",
		info.PltNum, info.ProductCode, info.ProductQty, reason.Value, clock)

	var warnings []string

	remark := fmt.Sprintf("%s | Voided: %s at %s", info.Remark, reason.Value, timeutil.ISO(s.Now()))
	if err := s.Pallets.UpdateRemark(ctx, info.PltNum, remark); err != nil {
		s.logError(ctx, &clock, fmt.Sprintf("Void pallet error: Update failed: %v", err))
		s.record(ctx, &clock, models.ActionVoidPalletFail, info.PltNum, info.Location,
			fmt.Sprintf("Update failed: %v", err))
		return nil, s.failed("void", fmt.Errorf("Failed to update pallet: %w", err))
	}

	bucket := VoidBucket(info.Location)
	delta := &models.InventoryDelta{
		ProductCode: info.ProductCode,
		PltNum:      info.PltNum,
		Buckets:     map[string]int{bucket: -info.ProductQty},
	}
	if err := s.Inventory.InsertDelta(ctx, delta); err != nil {
		if rbErr := s.Pallets.UpdateRemark(ctx, info.PltNum, info.Remark); rbErr != nil {
			log.Printf("[VoidService] Remark rollback failed for %s: %v", info.PltNum, rbErr)
		}
		s.logError(ctx, &clock, fmt.Sprintf("Void pallet error: Inventory failed: %v", err))
		return nil, s.failed("void", fmt.Errorf("Failed to update inventory: %w", err))
	}

	s.syncStockLevel(ctx, &clock, info.ProductCode, info.ProductQty, "void", &warnings)

	s.record(ctx, &clock, models.ActionVoidPallet, info.PltNum, models.LocationVoided,
		"Reason: "+reason.Value)

	s.insertVoidRecord(ctx, &models.VoidRecord{PltNum: info.PltNum, Reason: reason.Value}, &warnings)

	s.applyOrderSideEffects(ctx, clock, info, info.ProductQty, models.LocationVoided, &warnings)

	result := &models.VoidResult{
		Success:  true,
		Message:  fmt.Sprintf("Pallet %s voided successfully", info.PltNum),
		PltNum:   info.PltNum,
		Warnings: warnings,
	}
	if reason.AllowsReprint {
		result.RequiresReprint = true
		result.ReprintInfo = &models.ReprintInfo{
			ProductCode:    info.ProductCode,
			Quantity:       info.ProductQty,
			OriginalPltNum: info.PltNum,
			SourceAction:   models.SourceVoidCorrection,
			TargetLocation: info.Location,
			Reason:         reason.Value,
		}
	}

	s.succeeded(ctx, "void", info.PltNum, models.ActionVoidPallet)
	return result, nil
}

// ProcessDamage marks damageQty of a pallet as damaged. The pallet itself
// is always zeroed; a partial damage asks the caller to print a new pallet
// for the remainder.
func (s *VoidService) ProcessDamage(ctx context.Context, email string, req models.DamageRequest) (*models.VoidResult, error) {
	if req.Password == "" {
		return nil, s.rejected("damage", ErrPasswordRequired)
	}

	info, err := s.loadVoidable(ctx, req.PltNum)
	if err != nil {
		return nil, s.rejected("damage", err)
	}

	qty := info.ProductQty
	if req.DamageQty < 1 || req.DamageQty > qty {
		return nil, s.rejected("damage", fmt.Errorf("%w. Must be between 1 and %d", ErrInvalidDamageQty, qty))
	}

	remaining := qty - req.DamageQty
	fullDamage := remaining == 0
	_, isACO := ParseACORef(info.Remark)
	if isACO && !fullDamage {
		return nil, s.rejected("damage", ErrACOPartialDamage)
	}

	clock, err := s.verify(ctx, email, req.Password, info)
	if err != nil {
		return nil, s.rejected("damage", err)
	}

	log.Printf("[VoidService] Damaging %s: %d/%d by %d", info.PltNum, req.DamageQty, qty, clock)

	var warnings []string

	remark := fmt.Sprintf("%s | Damaged: %d/%d at %s", info.Remark, req.DamageQty, qty, timeutil.ISO(s.Now()))
	if err := s.Pallets.UpdateQtyAndRemark(ctx, info.PltNum, 0, remark); err != nil {
		s.logError(ctx, &clock, fmt.Sprintf("Damage processing error: Update failed: %v", err))
		s.record(ctx, &clock, models.ActionVoidPalletFail, info.PltNum, info.Location,
			fmt.Sprintf("Update failed: %v", err))
		return nil, s.failed("damage", fmt.Errorf("Failed to update pallet: %w", err))
	}

	delta := &models.InventoryDelta{
		ProductCode: info.ProductCode,
		PltNum:      info.PltNum,
		Buckets: map[string]int{
			VoidBucket(info.Location): -qty,
			models.BucketDamage:       req.DamageQty,
		},
	}
	if err := s.Inventory.InsertDelta(ctx, delta); err != nil {
		if rbErr := s.Pallets.UpdateQtyAndRemark(ctx, info.PltNum, qty, info.Remark); rbErr != nil {
			log.Printf("[VoidService] Pallet rollback failed for %s: %v", info.PltNum, rbErr)
		}
		s.logError(ctx, &clock, fmt.Sprintf("Damage processing error: Inventory failed: %v", err))
		return nil, s.failed("damage", fmt.Errorf("Failed to update inventory: %w", err))
	}

	s.syncStockLevel(ctx, &clock, info.ProductCode, qty, "damage", &warnings)

	action, location := models.ActionPartiallyDamaged, models.LocationVoidedPartial
	if fullDamage {
		action, location = models.ActionFullyDamaged, models.LocationDamaged
	}
	s.record(ctx, &clock, action, info.PltNum, location,
		fmt.Sprintf("Damage: %d/%d, Remaining: %d", req.DamageQty, qty, remaining))

	s.insertVoidRecord(ctx, &models.VoidRecord{
		PltNum:    info.PltNum,
		Reason:    models.ReasonDamage,
		DamageQty: req.DamageQty,
	}, &warnings)

	// The ACO line is credited with the whole pallet, not just the damaged part
	s.applyOrderSideEffects(ctx, clock, info, qty, location, &warnings)

	result := &models.VoidResult{
		Success:  true,
		PltNum:   info.PltNum,
		Warnings: warnings,
	}
	if fullDamage {
		result.Message = fmt.Sprintf("Pallet %s fully damaged. No reprint needed.", info.PltNum)
	} else {
		result.Message = fmt.Sprintf("Pallet %s partially damaged. Remaining: %d", info.PltNum, remaining)
		result.RemainingQty = remaining
		result.RequiresReprint = true
		result.ReprintInfo = &models.ReprintInfo{
			ProductCode:    info.ProductCode,
			Quantity:       remaining,
			OriginalPltNum: info.PltNum,
			SourceAction:   models.SourceVoidCorrectionDamagePartial,
			TargetLocation: info.Location,
			Reason:         models.ReasonDamage,
		}
	}

	s.succeeded(ctx, "damage", info.PltNum, action)
	return result, nil
}

// loadVoidable re-reads the pallet and rejects ones already out of stock
func (s *VoidService) loadVoidable(ctx context.Context, pltNum string) (*models.PalletInfo, error) {
	info, err := s.Search.PalletInfo(ctx, pltNum, models.SearchByPalletNum)
	if err != nil {
		return nil, err
	}
	if err := checkNotVoided(info.Location); err != nil {
		return nil, err
	}
	return info, nil
}

// verify checks the operator password. Failures are written to history
// without an operator id.
func (s *VoidService) verify(ctx context.Context, email, password string, info *models.PalletInfo) (int, error) {
	clock, err := s.Verifier.Verify(ctx, email, password)
	if err != nil {
		s.record(ctx, nil, models.ActionVoidPalletFail, info.PltNum, info.Location,
			"Password verification failed: "+err.Error())
		return 0, err
	}
	return clock, nil
}

func (s *VoidService) syncStockLevel(ctx context.Context, clock *int, productCode string, qty int, operation string, warnings *[]string) {
	if s.StockLevels == nil {
		return
	}
	if _, err := s.StockLevels.ApplyVoid(ctx, productCode, qty, operation); err != nil {
		log.Printf("[VoidService] Stock level update failed for %s: %v", productCode, err)
		metrics.VoidSideEffectFailures.WithLabelValues("stock_level").Inc()
		s.logError(ctx, clock, fmt.Sprintf("Stock level update failed for %s: %v", productCode, err))
		*warnings = append(*warnings, "Stock level update failed")
	}
}

func (s *VoidService) insertVoidRecord(ctx context.Context, rec *models.VoidRecord, warnings *[]string) {
	if err := s.Reports.Insert(ctx, rec); err != nil {
		log.Printf("[VoidService] report_void insert failed for %s: %v", rec.PltNum, err)
		metrics.VoidSideEffectFailures.WithLabelValues("report_void").Inc()
		*warnings = append(*warnings, "Void report record failed")
	}
}

// applyOrderSideEffects credits the ACO order line and removes the GRN
// record when the pallet remark links them. Failures are recorded as
// history events and never fail the void.
func (s *VoidService) applyOrderSideEffects(ctx context.Context, clock int, info *models.PalletInfo, qty int, location string, warnings *[]string) {
	if ref, ok := ParseACORef(info.Remark); ok {
		finished, err := s.ACO.DecrementFinished(ctx, ref, info.ProductCode, qty)
		if err != nil {
			msg := fmt.Sprintf("Failed to update ACO record: %v", err)
			if errors.Is(err, pgx.ErrNoRows) {
				msg = fmt.Sprintf("ACO record not found for ref: %d, code: %s", ref, info.ProductCode)
			}
			log.Printf("[VoidService] ACO update failed for %s: %s", info.PltNum, msg)
			metrics.VoidSideEffectFailures.WithLabelValues("aco").Inc()
			s.record(ctx, &clock, models.ActionACOUpdateFailed, info.PltNum, location, "ACO update failed: "+msg)
			*warnings = append(*warnings, "ACO update failed")
		} else {
			s.record(ctx, &clock, models.ActionACOUpdated, info.PltNum, location,
				fmt.Sprintf("ACO finished_qty updated: ref=%d, removed=%d, finished=%d", ref, qty, finished))
		}
	}

	if grn, ok := ParseGRNRef(info.Remark); ok {
		n, err := s.GRN.DeleteByPallet(ctx, info.PltNum)
		if err == nil && n == 0 {
			err = fmt.Errorf("GRN record not found for pallet %s", info.PltNum)
		}
		if err != nil {
			log.Printf("[VoidService] GRN delete failed for %s: %v", info.PltNum, err)
			metrics.VoidSideEffectFailures.WithLabelValues("grn").Inc()
			s.record(ctx, &clock, models.ActionGRNDeleteFailed, info.PltNum, location,
				fmt.Sprintf("GRN deletion failed: %v", err))
			*warnings = append(*warnings, "GRN delete failed")
		} else {
			s.record(ctx, &clock, models.ActionGRNDeleted, info.PltNum, location,
				"GRN record deleted: grn="+grn)
		}
	}
}

func (s *VoidService) record(ctx context.Context, clock *int, action, pltNum, location, remark string) {
	err := s.History.Record(ctx, &models.HistoryEvent{
		Time:       s.Now(),
		OperatorID: clock,
		Action:     action,
		PltNum:     pltNum,
		Location:   location,
		Remark:     remark,
	})
	if err != nil {
		log.Printf("[VoidService] Failed to record %q for %s: %v", action, pltNum, err)
		metrics.VoidSideEffectFailures.WithLabelValues("history").Inc()
	}
}

func (s *VoidService) logError(ctx context.Context, clock *int, info string) {
	if s.ErrorLogs == nil {
		return
	}
	err := s.ErrorLogs.Insert(ctx, &models.ErrorLog{
		Error:     "Void Pallet Error",
		ErrorInfo: info,
		UserID:    clock,
	})
	if err != nil {
		log.Printf("[VoidService] Failed to write report_log: %v", err)
	}
}

func (s *VoidService) rejected(op string, err error) error {
	metrics.VoidOperations.WithLabelValues(op, "rejected").Inc()
	return err
}

func (s *VoidService) failed(op string, err error) error {
	metrics.VoidOperations.WithLabelValues(op, "failed").Inc()
	log.Printf("[VoidService] %s failed: %v", op, err)
	return err
}

func (s *VoidService) succeeded(ctx context.Context, op, pltNum, action string) {
	metrics.VoidOperations.WithLabelValues(op, "success").Inc()
	if s.Notifier != nil && !notifyDeferred(ctx) {
		s.Notifier.PalletChanged(pltNum, action)
	}
}
