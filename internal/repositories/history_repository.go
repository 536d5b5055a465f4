package repositories

import (
	"context"
	"time"

	"pallet-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HistoryRepository struct {
	DB *pgxpool.Pool
}

func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{DB: db}
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertHistory(ctx context.Context, db execer, e *models.HistoryEvent) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	_, err := db.Exec(ctx,
		`INSERT INTO record_history (time, id, action, plt_num, loc, remark)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		e.Time, e.OperatorID, e.Action, e.PltNum, e.Location, e.Remark,
	)
	return err
}

// Record appends an audit event
func (r *HistoryRepository) Record(ctx context.Context, e *models.HistoryEvent) error {
	return insertHistory(ctx, r.DB, e)
}

// LatestLocation returns the newest non-null location for a pallet, or ""
func (r *HistoryRepository) LatestLocation(ctx context.Context, pltNum string) (string, error) {
	var loc string
	err := r.DB.QueryRow(ctx,
		`SELECT loc FROM record_history
		 WHERE plt_num = $1 AND loc IS NOT NULL
		 ORDER BY time DESC
		 LIMIT 1`, pltNum,
	).Scan(&loc)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	return loc, err
}

// ListByPallet returns all events for a pallet, newest first
func (r *HistoryRepository) ListByPallet(ctx context.Context, pltNum string) ([]*models.HistoryEvent, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT h.uuid::text, h.time, h.id, h.action, COALESCE(h.plt_num, ''), COALESCE(h.loc, ''), h.remark,
		       COALESCE(d.name, '')
		FROM record_history h
		LEFT JOIN data_id d ON d.id = h.id
		WHERE h.plt_num = $1
		ORDER BY h.time DESC`, pltNum)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistoryRows(rows)
}

// ListByOperator returns the newest events recorded by an operator
func (r *HistoryRepository) ListByOperator(ctx context.Context, operatorID, limit int) ([]*models.HistoryEvent, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT h.uuid::text, h.time, h.id, h.action, COALESCE(h.plt_num, ''), COALESCE(h.loc, ''), h.remark,
		       COALESCE(d.name, '')
		FROM record_history h
		LEFT JOIN data_id d ON d.id = h.id
		WHERE h.id = $1
		ORDER BY h.time DESC
		LIMIT $2`, operatorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistoryRows(rows)
}

func scanHistoryRows(rows pgx.Rows) ([]*models.HistoryEvent, error) {
	var events []*models.HistoryEvent
	for rows.Next() {
		var e models.HistoryEvent
		if err := rows.Scan(&e.UUID, &e.Time, &e.OperatorID, &e.Action, &e.PltNum, &e.Location, &e.Remark, &e.OperatorName); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// LinkPartialDamage points the newest "Partially Damaged" remark of the
// original pallet at its replacement. A "/XX" placeholder takes the new
// pallet suffix; otherwise " | Reprinted as {new}" is appended once.
// Returns false when there was nothing to update.
func (r *HistoryRepository) LinkPartialDamage(ctx context.Context, originalPltNum, newPltNum string) (bool, error) {
	tag, err := r.DB.Exec(ctx, `
		UPDATE record_history
		SET remark = CASE
			WHEN remark LIKE '%/XX%' THEN regexp_replace(remark, '/XX', '/' || split_part($2, '/', 2))
			ELSE remark || ' | Reprinted as ' || $2
		END
		WHERE uuid = (
			SELECT uuid FROM record_history
			WHERE plt_num = $1 AND action = $3
			ORDER BY time DESC
			LIMIT 1
		)
		AND remark NOT LIKE '%Reprinted as%'`, originalPltNum, newPltNum, models.ActionPartiallyDamaged)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountByDay returns per-day event counts for the work-level chart
func (r *HistoryRepository) CountByDay(ctx context.Context, from, to time.Time, actions []string) ([]DayCount, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT date_trunc('day', time) AS day, COUNT(*)
		FROM record_history
		WHERE time >= $1 AND time < $2
		  AND (cardinality($3::text[]) = 0 OR action = ANY($3))
		GROUP BY day
		ORDER BY day`, from, to, actions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var d DayCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountPalletsLatestAt counts pallets whose newest located event is at loc,
// among pallets created in [from, to)
func (r *HistoryRepository) CountPalletsLatestAt(ctx context.Context, loc string, from, to time.Time) (int, int, error) {
	var count, qty int
	err := r.DB.QueryRow(ctx, `
		WITH latest AS (
			SELECT DISTINCT ON (h.plt_num) h.plt_num, h.loc
			FROM record_history h
			JOIN record_palletinfo p ON p.plt_num = h.plt_num
			WHERE h.loc IS NOT NULL
			  AND p.generate_time >= $2 AND p.generate_time < $3
			ORDER BY h.plt_num, h.time DESC
		)
		SELECT COUNT(*), COALESCE(SUM(p.product_qty), 0)
		FROM latest l
		JOIN record_palletinfo p ON p.plt_num = l.plt_num
		WHERE l.loc = $1`, loc, from, to,
	).Scan(&count, &qty)
	return count, qty, err
}

// DayCount is one point of a per-day series.
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}
