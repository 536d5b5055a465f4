package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pallet-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TransferRepository struct {
	DB *pgxpool.Pool
}

func NewTransferRepository(db *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{DB: db}
}

func transferWhere(f models.TransferFilter) (string, []any) {
	var where []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.StartDate != nil {
		add("t.tran_date >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("t.tran_date < $%d", *f.EndDate)
	}
	if f.FromLocation != "" {
		add("t.f_loc = $%d", f.FromLocation)
	}
	if f.ToLocation != "" {
		add("t.t_loc = $%d", f.ToLocation)
	}
	if f.PltNum != "" {
		add("t.plt_num = $%d", f.PltNum)
	}
	if f.OperatorID != 0 {
		add("t.operator_id = $%d", f.OperatorID)
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// List returns one page of transfers, newest first
func (r *TransferRepository) List(ctx context.Context, f models.TransferFilter) ([]*models.Transfer, error) {
	where, args := transferWhere(f)
	args = append(args, f.Limit, f.Offset)

	query := fmt.Sprintf(`
		SELECT t.uuid::text, t.tran_date, t.plt_num, t.f_loc, t.t_loc, t.operator_id,
		       COALESCE(d.name, ''), COALESCE(p.product_code, ''), COALESCE(p.product_qty, 0)
		FROM record_transfer t
		LEFT JOIN data_id d ON d.id = t.operator_id
		LEFT JOIN record_palletinfo p ON p.plt_num = t.plt_num
		%s
		ORDER BY t.tran_date DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*models.Transfer
	for rows.Next() {
		var t models.Transfer
		if err := rows.Scan(&t.UUID, &t.TranDate, &t.PltNum, &t.FromLocation, &t.ToLocation,
			&t.OperatorID, &t.OperatorName, &t.ProductCode, &t.ProductQty); err != nil {
			return nil, err
		}
		transfers = append(transfers, &t)
	}
	return transfers, rows.Err()
}

// Count returns the number of transfers matching the filter, ignoring paging
func (r *TransferRepository) Count(ctx context.Context, f models.TransferFilter) (int, error) {
	where, args := transferWhere(f)
	var total int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM record_transfer t`+where, args...).Scan(&total)
	return total, err
}

// HourlyDistribution counts transfers in [from, to) per hour of day (0-23)
func (r *TransferRepository) HourlyDistribution(ctx context.Context, from, to time.Time, tz string) ([24]int, error) {
	var out [24]int
	rows, err := r.DB.Query(ctx, `
		SELECT EXTRACT(HOUR FROM tran_date AT TIME ZONE $3)::int, COUNT(*)
		FROM record_transfer
		WHERE tran_date >= $1 AND tran_date < $2
		GROUP BY 1`, from, to, tz)
	if err != nil {
		return out, err
	}
	defer rows.Close()

	for rows.Next() {
		var hour, count int
		if err := rows.Scan(&hour, &count); err != nil {
			return out, err
		}
		if hour >= 0 && hour < 24 {
			out[hour] = count
		}
	}
	return out, rows.Err()
}
