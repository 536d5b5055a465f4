package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pallet-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PalletRepository struct {
	DB *pgxpool.Pool
}

func NewPalletRepository(db *pgxpool.Pool) *PalletRepository {
	return &PalletRepository{DB: db}
}

const palletColumns = `plt_num, series, product_code, product_qty, COALESCE(plt_remark, ''), COALESCE(pdf_url, ''), generate_time`

func scanPallet(row pgx.Row) (*models.Pallet, error) {
	var p models.Pallet
	err := row.Scan(&p.PltNum, &p.Series, &p.ProductCode, &p.ProductQty, &p.Remark, &p.PDFURL, &p.GenerateTime)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByPltNum returns pgx.ErrNoRows when the pallet does not exist
func (r *PalletRepository) GetByPltNum(ctx context.Context, pltNum string) (*models.Pallet, error) {
	return scanPallet(r.DB.QueryRow(ctx,
		`SELECT `+palletColumns+` FROM record_palletinfo WHERE plt_num = $1`, pltNum))
}

// GetBySeries returns pgx.ErrNoRows when no pallet has the series
func (r *PalletRepository) GetBySeries(ctx context.Context, series string) (*models.Pallet, error) {
	return scanPallet(r.DB.QueryRow(ctx,
		`SELECT `+palletColumns+` FROM record_palletinfo WHERE series = $1`, series))
}

// UpdateRemark overwrites plt_remark
func (r *PalletRepository) UpdateRemark(ctx context.Context, pltNum, remark string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE record_palletinfo SET plt_remark = $2 WHERE plt_num = $1`, pltNum, remark)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateQtyAndRemark overwrites product_qty and plt_remark together
func (r *PalletRepository) UpdateQtyAndRemark(ctx context.Context, pltNum string, qty int, remark string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE record_palletinfo SET product_qty = $2, plt_remark = $3 WHERE plt_num = $1`, pltNum, qty, remark)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetPDFURL records where the label PDF was stored
func (r *PalletRepository) SetPDFURL(ctx context.Context, pltNum, url string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE record_palletinfo SET pdf_url = $2 WHERE plt_num = $1`, pltNum, url)
	return err
}

// CreateReprint allocates the next DDMMYY/N number for today, inserts the
// pallet, its first history event and its inventory row in one transaction.
// p.PltNum and p.Series are filled in.
func (r *PalletRepository) CreateReprint(ctx context.Context, p *models.Pallet, event *models.HistoryEvent, delta *models.InventoryDelta, prefix string) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Serialise number allocation per day
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "plt_num:"+prefix); err != nil {
		return fmt.Errorf("failed to lock pallet numbering: %w", err)
	}

	var maxSuffix int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(CAST(split_part(plt_num, '/', 2) AS INTEGER)), 0)
		 FROM record_palletinfo
		 WHERE plt_num LIKE $1 || '/%'`, prefix,
	).Scan(&maxSuffix)
	if err != nil {
		return fmt.Errorf("failed to get next pallet number: %w", err)
	}

	p.PltNum = fmt.Sprintf("%s/%d", prefix, maxSuffix+1)
	if p.Series == "" {
		p.Series = NewSeries(prefix)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO record_palletinfo (plt_num, series, product_code, product_qty, plt_remark, generate_time)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 RETURNING generate_time`,
		p.PltNum, p.Series, p.ProductCode, p.ProductQty, p.Remark,
	).Scan(&p.GenerateTime)
	if err != nil {
		return fmt.Errorf("failed to insert pallet: %w", err)
	}

	if event != nil {
		event.PltNum = p.PltNum
		if err := insertHistory(ctx, tx, event); err != nil {
			return fmt.Errorf("failed to insert history: %w", err)
		}
	}

	if delta != nil {
		delta.PltNum = p.PltNum
		if err := insertInventoryDelta(ctx, tx, delta); err != nil {
			return fmt.Errorf("failed to insert inventory: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// NewSeries builds a DDMMYY-XXXXXX series code.
func NewSeries(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + "-" + id[:6]
}

// CountGeneratedBetween returns pallet count and quantity generated in
// [from, to). When remarkLike is non-empty, only matching remarks count.
func (r *PalletRepository) CountGeneratedBetween(ctx context.Context, from, to time.Time, remarkLike string) (int, int, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(product_qty), 0)
		FROM record_palletinfo
		WHERE generate_time >= $1 AND generate_time < $2
		  AND ($3 = '' OR plt_remark ILIKE '%' || $3 || '%')
	`
	var count, qty int
	err := r.DB.QueryRow(ctx, query, from, to, remarkLike).Scan(&count, &qty)
	return count, qty, err
}
