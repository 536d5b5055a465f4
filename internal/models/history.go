package models

import "time"

// HistoryEvent is an audit row of record_history. OperatorID is nil when
// the operator could not be identified.
type HistoryEvent struct {
	UUID         string    `json:"uuid"`
	Time         time.Time `json:"time"`
	OperatorID   *int      `json:"id"`
	Action       string    `json:"action"`
	PltNum       string    `json:"plt_num"`
	Location     string    `json:"loc"`
	Remark       string    `json:"remark"`
	OperatorName string    `json:"operator_name,omitempty"`
}

// Inventory buckets of record_inventory.
const (
	BucketInjection   = "injection"
	BucketPipeline    = "pipeline"
	BucketPrebook     = "prebook"
	BucketAwait       = "await"
	BucketFold        = "fold"
	BucketBulk        = "bulk"
	BucketBackcarpark = "backcarpark"
	BucketDamage      = "damage"
	BucketAwaitGRN    = "await_grn"
)

// InventoryBuckets lists every bucket column in table order.
var InventoryBuckets = []string{
	BucketInjection, BucketPipeline, BucketPrebook, BucketAwait, BucketFold,
	BucketBulk, BucketBackcarpark, BucketDamage, BucketAwaitGRN,
}

// InventoryDelta is one ledger row; Buckets holds only non-zero columns.
type InventoryDelta struct {
	ProductCode string         `json:"product_code"`
	PltNum      string         `json:"plt_num"`
	Buckets     map[string]int `json:"buckets"`
	UpdatedAt   time.Time      `json:"latest_update"`
}

// StockTotals is the per-bucket sum for one product code.
type StockTotals struct {
	ProductCode string `json:"product_code"`
	Injection   int    `json:"injection"`
	Pipeline    int    `json:"pipeline"`
	Prebook     int    `json:"prebook"`
	Await       int    `json:"await"`
	Fold        int    `json:"fold"`
	Bulk        int    `json:"bulk"`
	Backcarpark int    `json:"backcarpark"`
	Damage      int    `json:"damage"`
	AwaitGRN    int    `json:"await_grn"`
	Total       int    `json:"total"`
	HasStock    bool   `json:"has_stock"`
}

// Add folds one ledger row into the totals.
func (s *StockTotals) Add(buckets map[string]int) {
	for name, qty := range buckets {
		switch name {
		case BucketInjection:
			s.Injection += qty
		case BucketPipeline:
			s.Pipeline += qty
		case BucketPrebook:
			s.Prebook += qty
		case BucketAwait:
			s.Await += qty
		case BucketFold:
			s.Fold += qty
		case BucketBulk:
			s.Bulk += qty
		case BucketBackcarpark:
			s.Backcarpark += qty
		case BucketDamage:
			s.Damage += qty
		case BucketAwaitGRN:
			s.AwaitGRN += qty
		default:
			continue
		}
		s.HasStock = true
	}
	s.Total = s.Injection + s.Pipeline + s.Prebook + s.Await + s.Fold +
		s.Bulk + s.Backcarpark + s.AwaitGRN
}

// PalletHistoryResult is returned by the view-history lookup.
type PalletHistoryResult struct {
	PalletInfo     *PalletInfo     `json:"palletInfo"`
	ProductDetails *Product        `json:"productDetails,omitempty"`
	History        []*HistoryEvent `json:"palletHistory"`
	Stock          *StockTotals    `json:"stockInfo"`
}
