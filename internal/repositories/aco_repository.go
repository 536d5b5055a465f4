package repositories

import (
	"context"

	"pallet-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ACORepository struct {
	DB *pgxpool.Pool
}

func NewACORepository(db *pgxpool.Pool) *ACORepository {
	return &ACORepository{DB: db}
}

// GetLine returns nil, nil when the order has no line for the product
func (r *ACORepository) GetLine(ctx context.Context, orderRef int, code string) (*models.ACOLine, error) {
	var line models.ACOLine
	err := r.DB.QueryRow(ctx,
		`SELECT uuid::text, order_ref, code, required_qty, COALESCE(finished_qty, 0), latest_update
		 FROM record_aco
		 WHERE order_ref = $1 AND code ILIKE $2
		 LIMIT 1`, orderRef, code,
	).Scan(&line.UUID, &line.OrderRef, &line.Code, &line.RequiredQty, &line.FinishedQty, &line.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// DecrementFinished lowers finished_qty by qty, never below zero.
// Returns the new finished quantity, or pgx.ErrNoRows when no line matches.
func (r *ACORepository) DecrementFinished(ctx context.Context, orderRef int, code string, qty int) (int, error) {
	var finished int
	err := r.DB.QueryRow(ctx,
		`UPDATE record_aco
		 SET finished_qty = GREATEST(COALESCE(finished_qty, 0) - $3, 0),
		     latest_update = NOW()
		 WHERE uuid = (
			SELECT uuid FROM record_aco
			WHERE order_ref = $1 AND code ILIKE $2
			LIMIT 1
		 )
		 RETURNING finished_qty`, orderRef, code, qty,
	).Scan(&finished)
	return finished, err
}

// OrderProgress lists open order lines for the orders-list widget
func (r *ACORepository) OrderProgress(ctx context.Context, limit int) ([]*models.ACOLine, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT uuid::text, order_ref, code, required_qty, COALESCE(finished_qty, 0), latest_update
		 FROM record_aco
		 ORDER BY latest_update DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*models.ACOLine
	for rows.Next() {
		var l models.ACOLine
		if err := rows.Scan(&l.UUID, &l.OrderRef, &l.Code, &l.RequiredQty, &l.FinishedQty, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}
