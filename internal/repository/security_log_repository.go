package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/famguard/guardian-service/internal/domain"
)

// SecurityLogRepository persists security-relevant auth events.
type SecurityLogRepository interface {
	Insert(ctx context.Context, entry *domain.SecurityLog) error
	List(ctx context.Context, limit int) ([]*domain.SecurityLog, error)
}

type securityLogRepository struct {
	pool *pgxpool.Pool
}

// NewSecurityLogRepository returns a Postgres-backed implementation.
func NewSecurityLogRepository(pool *pgxpool.Pool) SecurityLogRepository {
	return &securityLogRepository{pool: pool}
}

func (r *securityLogRepository) Insert(ctx context.Context, entry *domain.SecurityLog) error {
	const query = `
        INSERT INTO security_logs (event_type, account_id, email, detail)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		entry.EventType,
		entry.AccountID,
		entry.Email,
		entry.Detail,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *securityLogRepository) List(ctx context.Context, limit int) ([]*domain.SecurityLog, error) {
	const query = `
        SELECT id, event_type, account_id, email, detail, created_at
        FROM security_logs ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.SecurityLog
	for rows.Next() {
		var entry domain.SecurityLog
		if err := rows.Scan(
			&entry.ID,
			&entry.EventType,
			&entry.AccountID,
			&entry.Email,
			&entry.Detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
