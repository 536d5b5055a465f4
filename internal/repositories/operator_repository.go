package repositories

import (
	"context"

	"pallet-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// OperatorRepository reads warehouse staff from data_id
type OperatorRepository struct {
	DB *pgxpool.Pool
}

func NewOperatorRepository(db *pgxpool.Pool) *OperatorRepository {
	return &OperatorRepository{DB: db}
}

func (r *OperatorRepository) Get(ctx context.Context, id int) (*models.Operator, error) {
	var op models.Operator
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, COALESCE(email, ''), department, position
		 FROM data_id WHERE id = $1`, id,
	).Scan(&op.ID, &op.Name, &op.Email, &op.Department, &op.Position)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// GetByEmail returns pgx.ErrNoRows when no operator has the email
func (r *OperatorRepository) GetByEmail(ctx context.Context, email string) (*models.Operator, error) {
	var op models.Operator
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, COALESCE(email, ''), department, position
		 FROM data_id WHERE lower(email) = lower($1)`, email,
	).Scan(&op.ID, &op.Name, &op.Email, &op.Department, &op.Position)
	if err != nil {
		return nil, err
	}
	return &op, nil
}
