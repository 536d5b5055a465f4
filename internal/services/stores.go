package services

import (
	"context"

	"pallet-backend/internal/models"
)

// Narrow views of the repositories. The pgx repositories satisfy them;
// tests use in-memory fakes.

type PalletStore interface {
	GetByPltNum(ctx context.Context, pltNum string) (*models.Pallet, error)
	GetBySeries(ctx context.Context, series string) (*models.Pallet, error)
	UpdateRemark(ctx context.Context, pltNum, remark string) error
	UpdateQtyAndRemark(ctx context.Context, pltNum string, qty int, remark string) error
}

type HistoryStore interface {
	Record(ctx context.Context, e *models.HistoryEvent) error
	LatestLocation(ctx context.Context, pltNum string) (string, error)
	ListByPallet(ctx context.Context, pltNum string) ([]*models.HistoryEvent, error)
	ListByOperator(ctx context.Context, operatorID, limit int) ([]*models.HistoryEvent, error)
}

type InventoryStore interface {
	InsertDelta(ctx context.Context, d *models.InventoryDelta) error
	SumByProduct(ctx context.Context, productCode string) (*models.StockTotals, error)
}

type ACOStore interface {
	DecrementFinished(ctx context.Context, orderRef int, code string, qty int) (int, error)
}

type GRNStore interface {
	DeleteByPallet(ctx context.Context, pltNum string) (int64, error)
}

type VoidRecordStore interface {
	Insert(ctx context.Context, rec *models.VoidRecord) error
}

type ErrorLogStore interface {
	Insert(ctx context.Context, l *models.ErrorLog) error
}

type StockLevelStore interface {
	ApplyVoid(ctx context.Context, productCode string, qty int, operation string) (string, error)
}

type OperatorStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Operator, error)
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type ProductStore interface {
	GetByCode(ctx context.Context, code string) (*models.Product, error)
}

// ChangeNotifier is told about every successful pallet mutation so
// dashboards can refresh.
type ChangeNotifier interface {
	PalletChanged(pltNum, action string)
}

type deferNotifyKey struct{}

// deferNotify marks ctx so single-pallet operations skip their own change
// notification; the caller sends one when it is done.
func deferNotify(ctx context.Context) context.Context {
	return context.WithValue(ctx, deferNotifyKey{}, true)
}

func notifyDeferred(ctx context.Context) bool {
	v, _ := ctx.Value(deferNotifyKey{}).(bool)
	return v
}
