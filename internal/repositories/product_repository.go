package repositories

import (
	"context"
	"time"

	"pallet-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepository struct {
	DB *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{DB: db}
}

// GetByCode returns nil, nil when the product is unknown
func (r *ProductRepository) GetByCode(ctx context.Context, code string) (*models.Product, error) {
	var p models.Product
	err := r.DB.QueryRow(ctx,
		`SELECT code, description, colour, standard_qty, type
		 FROM data_code WHERE code = $1`, code,
	).Scan(&p.Code, &p.Description, &p.Colour, &p.StandardQty, &p.Type)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductQty is one row of a top-products ranking.
type ProductQty struct {
	ProductCode string `json:"product_code"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Pallets     int    `json:"pallets"`
}

// TopProducts ranks products by quantity generated since from
func (r *ProductRepository) TopProducts(ctx context.Context, from time.Time, limit int) ([]ProductQty, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT p.product_code, COALESCE(c.description, ''), SUM(p.product_qty), COUNT(*)
		FROM record_palletinfo p
		LEFT JOIN data_code c ON c.code = p.product_code
		WHERE p.generate_time >= $1
		GROUP BY p.product_code, c.description
		ORDER BY SUM(p.product_qty) DESC
		LIMIT $2`, from, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProductQty
	for rows.Next() {
		var pq ProductQty
		if err := rows.Scan(&pq.ProductCode, &pq.Description, &pq.Quantity, &pq.Pallets); err != nil {
			return nil, err
		}
		out = append(out, pq)
	}
	return out, rows.Err()
}
