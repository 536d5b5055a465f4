package repositories

import (
	"context"
	"fmt"
	"strings"

	"pallet-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type VoidReportRepository struct {
	DB *pgxpool.Pool
}

func NewVoidReportRepository(db *pgxpool.Pool) *VoidReportRepository {
	return &VoidReportRepository{DB: db}
}

func (r *VoidReportRepository) Insert(ctx context.Context, rec *models.VoidRecord) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO report_void (plt_num, reason, damage_qty, time)
		 VALUES ($1, $2, $3, NOW())
		 RETURNING uuid::text, time`,
		rec.PltNum, rec.Reason, rec.DamageQty,
	).Scan(&rec.UUID, &rec.Time)
}

// List joins report_void with pallets and products, newest first.
// VoidBy matches the operator of the matching "Void Pallet" history row.
func (r *VoidReportRepository) List(ctx context.Context, f models.VoidReportFilter) ([]*models.VoidReportRow, error) {
	var where []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.StartDate != nil {
		add("v.time >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("v.time < $%d", *f.EndDate)
	}
	if f.VoidReason != "" {
		add("v.reason ILIKE '%%' || $%d || '%%'", f.VoidReason)
	}
	if f.ProductCode != "" {
		add("p.product_code = $%d", f.ProductCode)
	}
	if f.VoidBy != "" {
		add("op.name ILIKE '%%' || $%d || '%%'", f.VoidBy)
	}

	query := `
		SELECT v.plt_num, v.time, COALESCE(p.product_code, ''), COALESCE(c.description, ''),
		       COALESCE(p.product_qty, 0), v.damage_qty, v.reason, COALESCE(op.name, ''),
		       COALESCE(p.plt_remark, '')
		FROM report_void v
		LEFT JOIN record_palletinfo p ON p.plt_num = v.plt_num
		LEFT JOIN data_code c ON c.code = p.product_code
		LEFT JOIN LATERAL (
			SELECT d.name
			FROM record_history h
			JOIN data_id d ON d.id = h.id
			WHERE h.plt_num = v.plt_num
			  AND h.action IN ('Void Pallet', 'Fully Damaged', 'Partially Damaged')
			ORDER BY h.time DESC
			LIMIT 1
		) op ON TRUE`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY v.time DESC"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.VoidReportRow
	for rows.Next() {
		var row models.VoidReportRow
		if err := rows.Scan(&row.PltNum, &row.VoidTime, &row.ProductCode, &row.ProductDesc,
			&row.ProductQty, &row.DamageQty, &row.VoidReason, &row.VoidBy, &row.OriginalRemark); err != nil {
			return nil, err
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}
