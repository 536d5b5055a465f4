package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"pallet-backend/internal/metrics"
	"pallet-backend/internal/models"
)

const DefaultMaxBatchSize = 50

// BatchSession accumulates scanned pallets before a batch void. It is not
// safe for concurrent use.
type BatchSession struct {
	MaxSize int
	Items   []*models.BatchItem
}

func NewBatchSession(maxSize int) *BatchSession {
	if maxSize <= 0 {
		maxSize = DefaultMaxBatchSize
	}
	return &BatchSession{MaxSize: maxSize}
}

func (b *BatchSession) find(pltNum string) *models.BatchItem {
	for _, item := range b.Items {
		if item.Pallet.PltNum == pltNum {
			return item
		}
	}
	return nil
}

// Add appends a pallet as selected and pending
func (b *BatchSession) Add(p *models.PalletInfo) error {
	if b.find(p.PltNum) != nil {
		return fmt.Errorf("%w: %s", ErrBatchDuplicate, p.PltNum)
	}
	if len(b.Items) >= b.MaxSize {
		return fmt.Errorf("%w (max %d pallets)", ErrBatchFull, b.MaxSize)
	}
	b.Items = append(b.Items, &models.BatchItem{
		Pallet:   p,
		Selected: true,
		Status:   models.BatchPending,
	})
	return nil
}

// Remove drops a pallet from the batch
func (b *BatchSession) Remove(pltNum string) bool {
	for i, item := range b.Items {
		if item.Pallet.PltNum == pltNum {
			b.Items = append(b.Items[:i], b.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (b *BatchSession) Select(pltNum string) bool {
	return b.setSelected(pltNum, true)
}

func (b *BatchSession) Deselect(pltNum string) bool {
	return b.setSelected(pltNum, false)
}

func (b *BatchSession) setSelected(pltNum string, selected bool) bool {
	item := b.find(pltNum)
	if item == nil {
		return false
	}
	item.Selected = selected
	return true
}

// SelectAll toggles every item
func (b *BatchSession) SelectAll(selected bool) {
	for _, item := range b.Items {
		item.Selected = selected
	}
}

// Selected returns the selected items in scan order
func (b *BatchSession) Selected() []*models.BatchItem {
	var out []*models.BatchItem
	for _, item := range b.Items {
		if item.Selected {
			out = append(out, item)
		}
	}
	return out
}

// PalletVoider is the single-pallet operation applied to each batch item
type PalletVoider interface {
	VoidPallet(ctx context.Context, email string, req models.VoidRequest) (*models.VoidResult, error)
}

type BatchVoidService struct {
	Search   *PalletSearchService
	Voider   PalletVoider
	Notifier ChangeNotifier
	MaxSize  int
}

func NewBatchVoidService(search *PalletSearchService, voider PalletVoider, notifier ChangeNotifier, maxSize int) *BatchVoidService {
	return &BatchVoidService{Search: search, Voider: voider, Notifier: notifier, MaxSize: maxSize}
}

func (s *BatchVoidService) NewSession() *BatchSession {
	return NewBatchSession(s.MaxSize)
}

// Process voids the selected items one at a time. A failing item is marked
// and the batch moves on. For Damage with damageQty 0 each pallet is
// damaged in full. Dashboards are told once, after the last item.
func (s *BatchVoidService) Process(ctx context.Context, email string, session *BatchSession, reason, password string, damageQty int) (models.BatchSummary, []models.ReprintInfo) {
	selected := session.Selected()
	summary := models.BatchSummary{Total: len(selected)}
	var reprints []models.ReprintInfo
	var changed []string

	itemCtx := deferNotify(ctx)
	defer func() {
		if s.Notifier != nil && len(changed) > 0 {
			s.Notifier.PalletChanged(strings.Join(changed, ","), models.ActionBatchVoid)
		}
	}()

	for _, item := range selected {
		if err := ctx.Err(); err != nil {
			item.Status = models.BatchError
			item.Error = err.Error()
			summary.Failed++
			metrics.BatchVoidItems.WithLabelValues(string(models.BatchError)).Inc()
			continue
		}

		item.Status = models.BatchProcessing
		qty := damageQty
		if reason == models.ReasonDamage && qty == 0 {
			qty = item.Pallet.ProductQty
		}

		result, err := s.Voider.VoidPallet(itemCtx, email, models.VoidRequest{
			PltNum:    item.Pallet.PltNum,
			Reason:    reason,
			Password:  password,
			DamageQty: qty,
		})
		if err != nil {
			item.Status = models.BatchError
			item.Error = err.Error()
			summary.Failed++
			log.Printf("[BatchVoid] %s failed: %v", item.Pallet.PltNum, err)
		} else {
			item.Status = models.BatchCompleted
			item.Result = result
			summary.Completed++
			changed = append(changed, item.Pallet.PltNum)
			if result.RequiresReprint && result.ReprintInfo != nil {
				reprints = append(reprints, *result.ReprintInfo)
			}
		}
		metrics.BatchVoidItems.WithLabelValues(string(item.Status)).Inc()
	}

	return summary, reprints
}

// Run scans the requested pallets into a fresh session, then processes it.
// Pallets that cannot be added are reported in Rejected.
func (s *BatchVoidService) Run(ctx context.Context, email string, req models.BatchVoidRequest) (*models.BatchVoidResponse, error) {
	if len(req.Pallets) == 0 {
		return nil, ErrBatchEmpty
	}
	if _, ok := models.LookupVoidReason(req.Reason); !ok {
		return nil, ErrInvalidReason
	}
	if req.Password == "" {
		return nil, ErrPasswordRequired
	}

	session := s.NewSession()
	var rejected []string

	for _, value := range req.Pallets {
		res, err := s.Search.Search(ctx, models.SearchRequest{SearchValue: value, SearchType: models.SearchByPalletNum})
		if err != nil {
			rejected = append(rejected, fmt.Sprintf("%s: %v", value, err))
			continue
		}
		if !res.Success {
			rejected = append(rejected, fmt.Sprintf("%s: %s", value, res.Error))
			continue
		}
		if err := session.Add(res.Data); err != nil {
			rejected = append(rejected, fmt.Sprintf("%s: %v", value, err))
		}
	}

	summary, reprints := s.Process(ctx, email, session, req.Reason, req.Password, req.DamageQty)

	items := session.Items
	if items == nil {
		items = []*models.BatchItem{}
	}

	return &models.BatchVoidResponse{
		Items:       items,
		Summary:     summary,
		Rejected:    rejected,
		SummaryText: BatchSummaryText(req.Reason, items, summary),
		Reprints:    reprints,
	}, nil
}

// BatchSummaryText renders a plain-text receipt of a processed batch
func BatchSummaryText(reason string, items []*models.BatchItem, summary models.BatchSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch void (%s): %d pallets, %d completed, %d failed\n",
		reason, summary.Total, summary.Completed, summary.Failed)

	for _, item := range items {
		if !item.Selected {
			continue
		}
		switch item.Status {
		case models.BatchCompleted:
			fmt.Fprintf(&b, "[OK]   %-12s %s x%d\n", item.Pallet.PltNum, item.Pallet.ProductCode, item.Pallet.ProductQty)
		case models.BatchError:
			fmt.Fprintf(&b, "[FAIL] %-12s %s\n", item.Pallet.PltNum, item.Error)
		default:
			fmt.Fprintf(&b, "[--]   %-12s %s\n", item.Pallet.PltNum, item.Status)
		}
	}
	return b.String()
}
