package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StockLevelRepository struct {
	DB *pgxpool.Pool
}

func NewStockLevelRepository(db *pgxpool.Pool) *StockLevelRepository {
	return &StockLevelRepository{DB: db}
}

// ApplyVoid calls update_stock_level_void. A negative qty raises the level.
func (r *StockLevelRepository) ApplyVoid(ctx context.Context, productCode string, qty int, operation string) (string, error) {
	var msg string
	err := r.DB.QueryRow(ctx,
		`SELECT update_stock_level_void($1, $2, $3)`, productCode, int64(qty), operation,
	).Scan(&msg)
	return msg, err
}

// StockLevel is the latest level of one product.
type StockLevel struct {
	ProductCode string `json:"stock"`
	Description string `json:"description"`
	Level       int64  `json:"stock_level"`
}

// Latest returns the newest stock level per product, largest first
func (r *StockLevelRepository) Latest(ctx context.Context, limit int) ([]StockLevel, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT stock, description, stock_level FROM (
			SELECT DISTINCT ON (stock) stock, description, stock_level
			FROM stock_level
			ORDER BY stock, update_time DESC
		) s
		ORDER BY stock_level DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockLevel
	for rows.Next() {
		var s StockLevel
		if err := rows.Scan(&s.ProductCode, &s.Description, &s.Level); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
