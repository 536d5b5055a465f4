package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type GRNRepository struct {
	DB *pgxpool.Pool
}

func NewGRNRepository(db *pgxpool.Pool) *GRNRepository {
	return &GRNRepository{DB: db}
}

// DeleteByPallet removes the GRN rows of a pallet and returns how many went
func (r *GRNRepository) DeleteByPallet(ctx context.Context, pltNum string) (int64, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM record_grn WHERE plt_num = $1`, pltNum)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
