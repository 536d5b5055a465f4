package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"pallet-backend/internal/auth"
	"pallet-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// memDB is an in-memory stand-in for the pallet tables. Each fake view
// below exposes one store interface over it.
type memDB struct {
	mu sync.Mutex

	pallets   map[string]*models.Pallet
	locations map[string]string
	history   []*models.HistoryEvent
	deltas    []*models.InventoryDelta
	aco       map[string]int // "ref|code" -> finished qty
	grn       map[string]bool
	voids     []*models.VoidRecord
	errorLogs []*models.ErrorLog
	stockOps  []stockOp
	operators map[string]*models.Operator
	users     map[string]*models.User
	products  map[string]*models.Product
	pdfURLs   map[string]string
	nextPlt   int

	failPalletUpdate error
	failInventory    error
	failStock        error
	failACO          error
	failCreate       error
}

type stockOp struct {
	Code string
	Qty  int
	Op   string
}

func newMemDB() *memDB {
	return &memDB{
		pallets:   make(map[string]*models.Pallet),
		locations: make(map[string]string),
		aco:       make(map[string]int),
		grn:       make(map[string]bool),
		operators: make(map[string]*models.Operator),
		users:     make(map[string]*models.User),
		products:  make(map[string]*models.Product),
		pdfURLs:   make(map[string]string),
		nextPlt:   1,
	}
}

func (m *memDB) addPallet(p *models.Pallet, loc string) {
	m.pallets[p.PltNum] = p
	m.locations[p.PltNum] = loc
}

func (m *memDB) addOperator(t *testing.T, id int, email, password string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	m.operators[email] = &models.Operator{ID: id, Email: email, Name: fmt.Sprintf("Operator %d", id)}
	m.users[email] = &models.User{ID: id, Email: email, PasswordHash: hash, IsActive: true, Role: "operator"}
}

func (m *memDB) actions(pltNum string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.history {
		if e.PltNum == pltNum {
			out = append(out, e.Action)
		}
	}
	return out
}

func (m *memDB) lastEvent(pltNum, action string) *models.HistoryEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.history) - 1; i >= 0; i-- {
		if e := m.history[i]; e.PltNum == pltNum && e.Action == action {
			return e
		}
	}
	return nil
}

type fakePallets struct{ *memDB }

func (f fakePallets) GetByPltNum(ctx context.Context, pltNum string) (*models.Pallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pallets[pltNum]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f fakePallets) GetBySeries(ctx context.Context, series string) (*models.Pallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pallets {
		if p.Series == series {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f fakePallets) UpdateRemark(ctx context.Context, pltNum, remark string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPalletUpdate != nil {
		return f.failPalletUpdate
	}
	p, ok := f.pallets[pltNum]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Remark = remark
	return nil
}

func (f fakePallets) UpdateQtyAndRemark(ctx context.Context, pltNum string, qty int, remark string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPalletUpdate != nil {
		return f.failPalletUpdate
	}
	p, ok := f.pallets[pltNum]
	if !ok {
		return pgx.ErrNoRows
	}
	p.ProductQty = qty
	p.Remark = remark
	return nil
}

func (f fakePallets) CreateReprint(ctx context.Context, p *models.Pallet, event *models.HistoryEvent, delta *models.InventoryDelta, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	p.PltNum = fmt.Sprintf("%s/%d", prefix, f.nextPlt)
	p.Series = fmt.Sprintf("%s-ABC%03d", prefix, f.nextPlt)
	p.GenerateTime = time.Now()
	f.nextPlt++

	cp := *p
	f.pallets[p.PltNum] = &cp
	if event != nil {
		event.PltNum = p.PltNum
		f.history = append(f.history, event)
		f.locations[p.PltNum] = event.Location
	}
	if delta != nil {
		delta.PltNum = p.PltNum
		f.deltas = append(f.deltas, delta)
	}
	return nil
}

func (f fakePallets) SetPDFURL(ctx context.Context, pltNum, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pdfURLs[pltNum] = url
	return nil
}

type fakeHistory struct{ *memDB }

func (f fakeHistory) Record(ctx context.Context, e *models.HistoryEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, e)
	if e.Location != "" {
		f.locations[e.PltNum] = e.Location
	}
	return nil
}

func (f fakeHistory) LatestLocation(ctx context.Context, pltNum string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locations[pltNum], nil
}

func (f fakeHistory) ListByPallet(ctx context.Context, pltNum string) ([]*models.HistoryEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.HistoryEvent
	for i := len(f.history) - 1; i >= 0; i-- {
		if f.history[i].PltNum == pltNum {
			out = append(out, f.history[i])
		}
	}
	return out, nil
}

func (f fakeHistory) ListByOperator(ctx context.Context, operatorID, limit int) ([]*models.HistoryEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.HistoryEvent
	for i := len(f.history) - 1; i >= 0 && len(out) < limit; i-- {
		if e := f.history[i]; e.OperatorID != nil && *e.OperatorID == operatorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f fakeHistory) LinkPartialDamage(ctx context.Context, originalPltNum, newPltNum string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.history) - 1; i >= 0; i-- {
		e := f.history[i]
		if e.PltNum == originalPltNum && e.Action == models.ActionPartiallyDamaged {
			e.Remark += " | Reprinted as " + newPltNum
			return true, nil
		}
	}
	return false, nil
}

type fakeInventory struct{ *memDB }

func (f fakeInventory) InsertDelta(ctx context.Context, d *models.InventoryDelta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInventory != nil {
		return f.failInventory
	}
	f.deltas = append(f.deltas, d)
	return nil
}

func (f fakeInventory) SumByProduct(ctx context.Context, productCode string) (*models.StockTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	totals := &models.StockTotals{ProductCode: productCode}
	for _, d := range f.deltas {
		if d.ProductCode == productCode {
			totals.Add(d.Buckets)
		}
	}
	return totals, nil
}

type fakeACO struct{ *memDB }

func (f fakeACO) DecrementFinished(ctx context.Context, orderRef int, code string, qty int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failACO != nil {
		return 0, f.failACO
	}
	key := fmt.Sprintf("%d|%s", orderRef, code)
	finished, ok := f.aco[key]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	finished = max(finished-qty, 0)
	f.aco[key] = finished
	return finished, nil
}

type fakeGRN struct{ *memDB }

func (f fakeGRN) DeleteByPallet(ctx context.Context, pltNum string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.grn[pltNum] {
		return 0, nil
	}
	delete(f.grn, pltNum)
	return 1, nil
}

type fakeVoidRecords struct{ *memDB }

func (f fakeVoidRecords) Insert(ctx context.Context, rec *models.VoidRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voids = append(f.voids, rec)
	return nil
}

type fakeErrorLogs struct{ *memDB }

func (f fakeErrorLogs) Insert(ctx context.Context, l *models.ErrorLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errorLogs = append(f.errorLogs, l)
	return nil
}

type fakeStock struct{ *memDB }

func (f fakeStock) ApplyVoid(ctx context.Context, productCode string, qty int, operation string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStock != nil {
		return "", f.failStock
	}
	f.stockOps = append(f.stockOps, stockOp{Code: productCode, Qty: qty, Op: operation})
	return "ok", nil
}

type fakeOperators struct{ *memDB }

func (f fakeOperators) GetByEmail(ctx context.Context, email string) (*models.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.operators[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return op, nil
}

type fakeUsers struct{ *memDB }

func (f fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

type fakeProducts struct{ *memDB }

func (f fakeProducts) GetByCode(ctx context.Context, code string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[code], nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) PalletChanged(pltNum, action string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, action+":"+pltNum)
}

var errBoom = errors.New("boom")

const (
	testEmail    = "op@pennine.test"
	testPassword = "secret123"
	testClock    = 5997
)

type testEnv struct {
	db       *memDB
	search   *PalletSearchService
	verifier *PasswordVerifier
	void     *VoidService
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	db.addOperator(t, testClock, testEmail, testPassword)
	db.products["MEP9090150"] = &models.Product{Code: "MEP9090150", Description: "Envirocrate 90x90", Type: "EasyLiner", StandardQty: 40}

	search := NewPalletSearchService(fakePallets{db}, fakeHistory{db})
	verifier := NewPasswordVerifier(fakeOperators{db}, fakeUsers{db})
	notifier := &recordingNotifier{}

	svc := NewVoidService(search, verifier, VoidStores{
		Pallets:     fakePallets{db},
		History:     fakeHistory{db},
		Inventory:   fakeInventory{db},
		ACO:         fakeACO{db},
		GRN:         fakeGRN{db},
		Reports:     fakeVoidRecords{db},
		ErrorLogs:   fakeErrorLogs{db},
		StockLevels: fakeStock{db},
	}, notifier)
	svc.Now = func() time.Time { return time.Date(2025, 5, 15, 10, 30, 0, 0, time.UTC) }

	return &testEnv{db: db, search: search, verifier: verifier, void: svc, notifier: notifier}
}
