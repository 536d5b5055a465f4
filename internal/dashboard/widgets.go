package dashboard

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"pallet-backend/internal/models"
	"pallet-backend/internal/repositories"
	"pallet-backend/internal/timeutil"
)

type PalletStats interface {
	CountGeneratedBetween(ctx context.Context, from, to time.Time, remarkLike string) (int, int, error)
}

type InventoryStats interface {
	SumBucket(ctx context.Context, bucket string) (int, error)
}

type TransferStats interface {
	List(ctx context.Context, f models.TransferFilter) ([]*models.Transfer, error)
	Count(ctx context.Context, f models.TransferFilter) (int, error)
	HourlyDistribution(ctx context.Context, from, to time.Time, tz string) ([24]int, error)
}

type HistoryStats interface {
	CountPalletsLatestAt(ctx context.Context, loc string, from, to time.Time) (int, int, error)
	CountByDay(ctx context.Context, from, to time.Time, actions []string) ([]repositories.DayCount, error)
}

type ProductStats interface {
	TopProducts(ctx context.Context, from time.Time, limit int) ([]repositories.ProductQty, error)
}

type StockStats interface {
	Latest(ctx context.Context, limit int) ([]repositories.StockLevel, error)
}

type OrderStats interface {
	OrderProgress(ctx context.Context, limit int) ([]*models.ACOLine, error)
}

// StatValue is the payload of a stats widget
type StatValue struct {
	Metric string         `json:"metric"`
	Value  float64        `json:"value"`
	Label  string         `json:"label"`
	Extra  map[string]int `json:"extra,omitempty"`
}

type ChartPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// ChartData is the payload of a chart widget
type ChartData struct {
	ChartType string       `json:"chart_type"`
	Points    []ChartPoint `json:"points"`
}

// ListData is the payload of list and table widgets
type ListData struct {
	Items any `json:"items"`
	Total int `json:"total"`
}

const (
	topProductsLimit = 10
	listLimit        = 50
	stockLevelLimit  = 20
	orderLimit       = 20
	batchWindow      = 5 * time.Second
)

// WidgetService computes widget data straight from the database
type WidgetService struct {
	Pallets   PalletStats
	Inventory InventoryStats
	Transfers TransferStats
	History   HistoryStats
	Products  ProductStats
	Stock     StockStats
	Orders    OrderStats
	System    func(ctx context.Context) (*SystemStatus, error)
	Clients   func() int
	Now       func() time.Time

	mu      sync.Mutex
	gen     uint64
	batches map[string]*batchEntry
}

func NewWidgetService(pallets PalletStats, inventory InventoryStats, transfers TransferStats, history HistoryStats, products ProductStats, stock StockStats, orders OrderStats) *WidgetService {
	return &WidgetService{
		Pallets:   pallets,
		Inventory: inventory,
		Transfers: transfers,
		History:   history,
		Products:  products,
		Stock:     stock,
		Orders:    orders,
		System:    SampleSystem,
		Now:       timeutil.Now,
		batches:   make(map[string]*batchEntry),
	}
}

const DefaultTimeRange = "7d"

// TimeRangeDays parses 1d, 7d, 30d or 90d. Anything else is 7 days.
func TimeRangeDays(timeRange string) int {
	switch timeRange {
	case "1d", "7d", "30d", "90d":
		n, _ := strconv.Atoi(strings.TrimSuffix(timeRange, "d"))
		return n
	}
	return 7
}

func (s *WidgetService) rangeStart(timeRange string) time.Time {
	return timeutil.StartOfDay(s.Now()).AddDate(0, 0, 1-TimeRangeDays(timeRange))
}

func (s *WidgetService) today() (time.Time, time.Time) {
	start := timeutil.StartOfDay(s.Now())
	return start, start.AddDate(0, 0, 1)
}

func (s *WidgetService) yesterday() (time.Time, time.Time) {
	end := timeutil.StartOfDay(s.Now())
	return end.AddDate(0, 0, -1), end
}

func metric(w Widget) string {
	if len(w.Metrics) > 0 {
		return w.Metrics[0]
	}
	return ""
}

// Fetch computes one widget. Widgets without a backing query return
// ErrUnsupported.
func (s *WidgetService) Fetch(ctx context.Context, q Query) (any, error) {
	w := q.Widget
	switch w.DataSource {
	case "record_inventory":
		return s.inventoryStat(ctx, w)
	case "record_transfer":
		return s.transferData(ctx, w, q.TimeRange)
	case "record_palletinfo":
		return s.palletData(ctx, w, q.TimeRange)
	case "work_level", "pipeline_work_level":
		return s.workLevel(ctx, w, q.TimeRange)
	case "stock_level":
		return s.stockLevels(ctx, w)
	case "data_order":
		return s.orderProgress(ctx)
	case "system_status":
		return s.systemStatus(ctx)
	}
	return nil, ErrUnsupported
}

func (s *WidgetService) inventoryStat(ctx context.Context, w Widget) (any, error) {
	if metric(w) != "await_total" {
		return nil, ErrUnsupported
	}
	total, err := s.Inventory.SumBucket(ctx, models.BucketAwait)
	if err != nil {
		return nil, err
	}
	return StatValue{Metric: "await_total", Value: float64(total), Label: w.Title}, nil
}

func (s *WidgetService) transferData(ctx context.Context, w Widget, timeRange string) (any, error) {
	switch {
	case metric(w) == "yesterday_count":
		from, to := s.yesterday()
		n, err := s.Transfers.Count(ctx, models.TransferFilter{StartDate: &from, EndDate: &to})
		if err != nil {
			return nil, err
		}
		return StatValue{Metric: "yesterday_count", Value: float64(n), Label: w.Title}, nil

	case w.Type == "chart":
		from := s.rangeStart(timeRange)
		_, to := s.today()
		hours, err := s.Transfers.HourlyDistribution(ctx, from, to, timeutil.Local.String())
		if err != nil {
			return nil, err
		}
		points := make([]ChartPoint, 24)
		for h, n := range hours {
			points[h] = ChartPoint{Name: fmt.Sprintf("%02d:00", h), Value: n}
		}
		return ChartData{ChartType: w.ChartType, Points: points}, nil

	default:
		from := s.rangeStart(timeRange)
		f := models.TransferFilter{StartDate: &from, Limit: listLimit}
		rows, err := s.Transfers.List(ctx, f)
		if err != nil {
			return nil, err
		}
		total, err := s.Transfers.Count(ctx, f)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []*models.Transfer{}
		}
		return ListData{Items: rows, Total: total}, nil
	}
}

func (s *WidgetService) palletData(ctx context.Context, w Widget, timeRange string) (any, error) {
	m := metric(w)
	switch m {
	case "pallet_count", "quantity_sum", "pipeline_pallet_count", "pipeline_quantity_sum":
		from, to := s.today()
		like := ""
		if strings.HasPrefix(m, "pipeline_") {
			like = "pipeline"
		}
		count, qty, err := s.Pallets.CountGeneratedBetween(ctx, from, to, like)
		if err != nil {
			return nil, err
		}
		v := count
		if strings.HasSuffix(m, "quantity_sum") {
			v = qty
		}
		return StatValue{Metric: m, Value: float64(v), Label: w.Title}, nil

	case "still_in_await_qty", "still_in_await_percentage":
		from, to := s.yesterday()
		count, qty, err := s.History.CountPalletsLatestAt(ctx, "Await", from, to)
		if err != nil {
			return nil, err
		}
		if m == "still_in_await_qty" {
			return StatValue{Metric: m, Value: float64(count), Label: w.Title, Extra: map[string]int{"quantity": qty}}, nil
		}
		transfers, err := s.Transfers.Count(ctx, models.TransferFilter{StartDate: &from, EndDate: &to})
		if err != nil {
			return nil, err
		}
		return StatValue{Metric: m, Value: Percentage(count, transfers), Label: w.Title,
			Extra: map[string]int{"still_in_await": count, "transferred": transfers}}, nil
	}

	if w.Type != "chart" {
		return nil, ErrUnsupported
	}

	limit := topProductsLimit
	if m == "pipeline_products" {
		limit = 5
	}
	top, err := s.Products.TopProducts(ctx, s.rangeStart(timeRange), limit)
	if err != nil {
		return nil, err
	}
	points := make([]ChartPoint, 0, len(top))
	for _, p := range top {
		points = append(points, ChartPoint{Name: p.ProductCode, Value: p.Quantity})
	}
	return ChartData{ChartType: w.ChartType, Points: points}, nil
}

// Percentage is part/whole*100 rounded to one decimal; 0 when whole is 0
func Percentage(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(whole)) / 10
}

func (s *WidgetService) workLevel(ctx context.Context, w Widget, timeRange string) (any, error) {
	from := s.rangeStart(timeRange)
	_, to := s.today()
	days, err := s.History.CountByDay(ctx, from, to, nil)
	if err != nil {
		return nil, err
	}

	// One point per day, zero-filled
	counts := make(map[string]int, len(days))
	for _, d := range days {
		counts[d.Day.In(timeutil.Local).Format(timeutil.DateLayout)] = d.Count
	}
	var points []ChartPoint
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(timeutil.DateLayout)
		points = append(points, ChartPoint{Name: key, Value: counts[key]})
	}
	return ChartData{ChartType: w.ChartType, Points: points}, nil
}

func (s *WidgetService) stockLevels(ctx context.Context, w Widget) (any, error) {
	levels, err := s.Stock.Latest(ctx, stockLevelLimit)
	if err != nil {
		return nil, err
	}
	if w.Type != "chart" {
		if levels == nil {
			levels = []repositories.StockLevel{}
		}
		return ListData{Items: levels, Total: len(levels)}, nil
	}
	points := make([]ChartPoint, 0, len(levels))
	for _, l := range levels {
		points = append(points, ChartPoint{Name: l.ProductCode, Value: int(l.Level)})
	}
	return ChartData{ChartType: w.ChartType, Points: points}, nil
}

func (s *WidgetService) orderProgress(ctx context.Context) (any, error) {
	lines, err := s.Orders.OrderProgress(ctx, orderLimit)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []*models.ACOLine{}
	}
	return ListData{Items: lines, Total: len(lines)}, nil
}

func (s *WidgetService) systemStatus(ctx context.Context) (any, error) {
	if s.System == nil {
		return nil, ErrUnsupported
	}
	status, err := s.System(ctx)
	if err != nil {
		return nil, err
	}
	if s.Clients != nil {
		status.Clients = s.Clients()
	}
	return status, nil
}

type batchEntry struct {
	done chan struct{}
	gen  uint64
	at   time.Time
	data map[string]any
	errs map[string]error
}

// BatchSource computes every data widget of a theme in one pass and shares
// the result with sibling requests for a few seconds.
func (s *WidgetService) BatchSource() Source {
	return SourceFunc(s.fetchBatched)
}

func (s *WidgetService) fetchBatched(ctx context.Context, q Query) (any, error) {
	layout := LayoutFor(q.Theme)
	if !slices.ContainsFunc(layout.Widgets, func(w Widget) bool { return w.GridArea == q.Widget.GridArea }) {
		return nil, ErrUnsupported
	}

	key := layout.Theme + "|" + strconv.Itoa(TimeRangeDays(q.TimeRange))

	s.mu.Lock()
	if s.batches == nil {
		s.batches = make(map[string]*batchEntry)
	}
	entry, ok := s.batches[key]
	if !ok || time.Since(entry.at) > batchWindow {
		entry = &batchEntry{done: make(chan struct{}), gen: s.gen, at: time.Now()}
		s.batches[key] = entry
		go s.runBatch(context.WithoutCancel(ctx), layout, q.TimeRange, entry)
	}
	s.mu.Unlock()

	select {
	case <-entry.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// A pallet changed while the batch ran; its numbers may predate it
	s.mu.Lock()
	stale := entry.gen != s.gen
	s.mu.Unlock()
	if stale {
		return s.Fetch(ctx, q)
	}

	if err := entry.errs[q.Widget.GridArea]; err != nil {
		return nil, err
	}
	v, ok := entry.data[q.Widget.GridArea]
	if !ok {
		return nil, ErrUnsupported
	}
	return v, nil
}

// Reset drops every shared batch so the next request reads fresh data
func (s *WidgetService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.batches = make(map[string]*batchEntry)
}

func (s *WidgetService) runBatch(ctx context.Context, layout Layout, timeRange string, entry *batchEntry) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	defer close(entry.done)

	entry.data = make(map[string]any)
	entry.errs = make(map[string]error)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, w := range layout.Widgets {
		if w.DataSource == "" {
			continue
		}
		wg.Add(1)
		go func(w Widget) {
			defer wg.Done()
			v, err := s.Fetch(ctx, Query{Theme: layout.Theme, Widget: w, TimeRange: timeRange})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				entry.errs[w.GridArea] = err
				return
			}
			entry.data[w.GridArea] = v
		}(w)
	}
	wg.Wait()
}
