package repositories

import (
	"context"

	"pallet-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

const maxLogField = 255

type ReportLogRepository struct {
	DB *pgxpool.Pool
}

func NewReportLogRepository(db *pgxpool.Pool) *ReportLogRepository {
	return &ReportLogRepository{DB: db}
}

// Insert writes an error log row, truncating text columns to fit
func (r *ReportLogRepository) Insert(ctx context.Context, l *models.ErrorLog) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO report_log (error, error_info, state, user_id, time)
		 VALUES ($1, $2, $3, $4, NOW())`,
		Truncate(l.Error, maxLogField), Truncate(l.ErrorInfo, maxLogField), l.State, l.UserID,
	)
	return err
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
