package repositories

import (
	"context"
	"fmt"
	"strings"

	"pallet-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type InventoryRepository struct {
	DB *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{DB: db}
}

// bucketColumn guards dynamic column names against anything but the known buckets
func bucketColumn(name string) (string, bool) {
	for _, b := range models.InventoryBuckets {
		if b == name {
			return b, true
		}
	}
	return "", false
}

func insertInventoryDelta(ctx context.Context, db execer, d *models.InventoryDelta) error {
	cols := []string{"product_code", "plt_num", "latest_update"}
	placeholders := []string{"$1", "NULLIF($2, '')", "NOW()"}
	args := []any{d.ProductCode, d.PltNum}

	for _, name := range models.InventoryBuckets {
		qty, ok := d.Buckets[name]
		if !ok || qty == 0 {
			continue
		}
		col, _ := bucketColumn(name)
		args = append(args, qty)
		cols = append(cols, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	for name := range d.Buckets {
		if _, ok := bucketColumn(name); !ok {
			return fmt.Errorf("unknown inventory bucket %q", name)
		}
	}

	query := fmt.Sprintf(`INSERT INTO record_inventory (%s) VALUES (%s)`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	_, err := db.Exec(ctx, query, args...)
	return err
}

// InsertDelta appends a ledger row. Buckets not present are stored as 0.
func (r *InventoryRepository) InsertDelta(ctx context.Context, d *models.InventoryDelta) error {
	return insertInventoryDelta(ctx, r.DB, d)
}

// SumByProduct folds every ledger row of a product into totals
func (r *InventoryRepository) SumByProduct(ctx context.Context, productCode string) (*models.StockTotals, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT injection, pipeline, prebook, await, fold, bulk, backcarpark, damage, COALESCE(await_grn, 0)
		FROM record_inventory
		WHERE product_code = $1`, productCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := &models.StockTotals{ProductCode: productCode}
	for rows.Next() {
		vals := make([]int, len(models.InventoryBuckets))
		dest := make([]any, len(vals))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		buckets := make(map[string]int, len(vals))
		for i, name := range models.InventoryBuckets {
			buckets[name] = vals[i]
		}
		totals.Add(buckets)
	}
	return totals, rows.Err()
}

// SumBucket returns the total of one bucket across all products
func (r *InventoryRepository) SumBucket(ctx context.Context, bucket string) (int, error) {
	col, ok := bucketColumn(bucket)
	if !ok {
		return 0, fmt.Errorf("unknown inventory bucket %q", bucket)
	}
	var total int
	err := r.DB.QueryRow(ctx, `SELECT COALESCE(SUM(`+col+`), 0) FROM record_inventory`).Scan(&total)
	return total, err
}
