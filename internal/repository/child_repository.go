package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/famguard/guardian-service/internal/domain"
)

// ChildRepository defines persistence access for child profiles.
type ChildRepository interface {
	Create(ctx context.Context, child *domain.Child) error
	Update(ctx context.Context, child *domain.Child) error
	Delete(ctx context.Context, id, accountID string) error
	GetByID(ctx context.Context, id string) (*domain.Child, error)
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Child, error)
	OwnedBy(ctx context.Context, id, accountID string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type childRepository struct {
	pool *pgxpool.Pool
}

// NewChildRepository returns a Postgres-backed implementation.
func NewChildRepository(pool *pgxpool.Pool) ChildRepository {
	return &childRepository{pool: pool}
}

const childColumns = `id, account_id, name, age, avatar, device, device_id, status, last_seen, created_at, updated_at`

func (r *childRepository) Create(ctx context.Context, child *domain.Child) error {
	const query = `
        INSERT INTO children (account_id, name, age, avatar, device, device_id, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		child.AccountID,
		child.Name,
		child.Age,
		child.Avatar,
		child.Device,
		child.DeviceID,
		child.Status,
	).Scan(&child.ID, &child.CreatedAt, &child.UpdatedAt)
}

func (r *childRepository) Update(ctx context.Context, child *domain.Child) error {
	const query = `
        UPDATE children SET name=$1, age=$2, avatar=$3, device=$4, status=$5, updated_at=NOW()
        WHERE id=$6 AND account_id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		child.Name,
		child.Age,
		child.Avatar,
		child.Device,
		child.Status,
		child.ID,
		child.AccountID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *childRepository) Delete(ctx context.Context, id, accountID string) error {
	const query = `DELETE FROM children WHERE id=$1 AND account_id=$2`

	cmd, err := r.pool.Exec(ctx, query, id, accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *childRepository) GetByID(ctx context.Context, id string) (*domain.Child, error) {
	const query = `SELECT ` + childColumns + ` FROM children WHERE id=$1`
	return scanChild(r.pool.QueryRow(ctx, query, id))
}

func (r *childRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Child, error) {
	const query = `SELECT ` + childColumns + ` FROM children WHERE account_id=$1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []*domain.Child
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, rows.Err()
}

func (r *childRepository) OwnedBy(ctx context.Context, id, accountID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM children WHERE id=$1 AND account_id=$2)`

	var owned bool
	if err := r.pool.QueryRow(ctx, query, id, accountID).Scan(&owned); err != nil {
		return false, err
	}
	return owned, nil
}

func (r *childRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM children`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanChild(row pgx.Row) (*domain.Child, error) {
	var child domain.Child
	if err := row.Scan(
		&child.ID,
		&child.AccountID,
		&child.Name,
		&child.Age,
		&child.Avatar,
		&child.Device,
		&child.DeviceID,
		&child.Status,
		&child.LastSeen,
		&child.CreatedAt,
		&child.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &child, nil
}
