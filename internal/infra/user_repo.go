package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scribenote/scribenote/internal/models"
	"github.com/scribenote/scribenote/internal/ports"
)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) ports.UserRepository {
	return &PostgresUserRepo{pool: pool}
}

func (r *PostgresUserRepo) EnsureUser(ctx context.Context, userID int64) (*models.User, error) {
	query := `
		INSERT INTO users (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, is_privileged, created_at
	`

	var u models.User
	row := r.pool.QueryRow(ctx, query, userID)
	if err := row.Scan(&u.ID, &u.IsPrivileged, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepo) SetPrivileged(ctx context.Context, userID int64, privileged bool) error {
	query := `
		INSERT INTO users (user_id, is_privileged)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET is_privileged = EXCLUDED.is_privileged
	`
	if _, err := r.pool.Exec(ctx, query, userID, privileged); err != nil {
		return fmt.Errorf("set privileged: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) InsertUsage(ctx context.Context, rec *models.UsageRecord) error {
	query := `
		INSERT INTO usage_records (user_id, seconds)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	row := r.pool.QueryRow(ctx, query, rec.UserID, rec.Seconds)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) ConsumedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	query := `
		SELECT COALESCE(SUM(seconds), 0)
		FROM usage_records
		WHERE user_id = $1 AND created_at >= $2
	`
	var total int
	if err := r.pool.QueryRow(ctx, query, userID, since).Scan(&total); err != nil {
		return 0, fmt.Errorf("consumed since: %w", err)
	}
	return total, nil
}

func (r *PostgresUserRepo) TotalConsumed(ctx context.Context, userID int64) (int, error) {
	query := `
		SELECT COALESCE(SUM(seconds), 0)
		FROM usage_records
		WHERE user_id = $1
	`
	var total int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("total consumed: %w", err)
	}
	return total, nil
}
