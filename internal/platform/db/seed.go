package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"timetracker/internal/domain/auth"
	"timetracker/internal/platform/config"
)

// Seed creates the admin account and the default tracker setting so a
// fresh install is immediately usable. It is idempotent.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return err
	}
	_, err := pool.Exec(ctx, `
    INSERT INTO tracker_settings (id, target_days, recurring)
    VALUES (1, 180, 'monthly')
    ON CONFLICT (id) DO NOTHING
  `)
	return err
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	if password == "" {
		password = "admin123!"
	}

	var id int64
	if err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id); err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, role, active)
    VALUES ($1, $2, $3, true)
  `, email, hash, auth.RoleAdmin)
	return err
}
