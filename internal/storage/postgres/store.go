// Package postgres is the hosted-database store. The endpoint URL and
// access key arrive as opaque connection parameters; row-level isolation
// is still enforced here with an explicit user_id predicate on every
// statement rather than relying on server-side policies alone.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tally/internal/core"
	"tally/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database and bootstraps the schema. accessKey may
// be empty when the endpoint URL already embeds the credential.
func New(ctx context.Context, databaseURL, accessKey string) (*Store, error) {
	cfg, err := poolConfig(databaseURL, accessKey)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w: %v", core.ErrUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w: %v", core.ErrUnavailable, err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// poolConfig parses the endpoint URL and rides the separately issued
// access key along as the connection credential.
func poolConfig(databaseURL, accessKey string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if accessKey != "" {
		cfg.ConnConfig.Password = accessKey
	}
	return cfg, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			password_salt TEXT NOT NULL,
			email TEXT,
			currency TEXT NOT NULL DEFAULT 'USD',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			color TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, name)
		);`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount_cents BIGINT NOT NULL CHECK (amount_cents >= 0),
			category TEXT NOT NULL,
			description TEXT,
			date DATE NOT NULL,
			time TEXT,
			payment_method TEXT,
			transaction_id TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses (user_id, date);`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user_category ON expenses (user_id, category);`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}

// mapError translates pgx failures onto the core taxonomy.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		return fmt.Errorf("%s: %w", op, core.ErrConflict)
	case errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08":
		return fmt.Errorf("%s: %w: %v", op, core.ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, password_salt, email, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`,
		string(u.ID), u.Username, u.PasswordHash, u.PasswordSalt,
		u.Email, u.Currency, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return core.User{}, mapError("insert user", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID, "username", u.Username)
	return u, nil
}

const userColumns = `id, username, password_hash, password_salt, COALESCE(email, ''), currency, created_at, updated_at`

func (s *Store) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, id core.UserID) (core.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, string(id))
	return scanUser(row)
}

func (s *Store) SetCurrency(ctx context.Context, id core.UserID, currency string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET currency = $1, updated_at = NOW() WHERE id = $2`,
		currency, string(id))
	if err != nil {
		return mapError("set currency", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (core.User, error) {
	var u core.User
	var id string
	err := row.Scan(&id, &u.Username, &u.PasswordHash, &u.PasswordSalt,
		&u.Email, &u.Currency, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return core.User{}, mapError("get user", err)
	}
	u.ID = core.UserID(id)
	return u, nil
}

// --- categories ---

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO categories (user_id, name, color, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		string(c.UserID), c.Name, c.Color, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return core.Category{}, mapError("insert category", err)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, userID core.UserID) ([]core.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, color, created_at
		FROM categories WHERE user_id = $1 ORDER BY name`,
		string(userID))
	if err != nil {
		return nil, mapError("list categories", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		var uid string
		if err := rows.Scan(&c.ID, &uid, &c.Name, &c.Color, &c.CreatedAt); err != nil {
			return nil, mapError("scan category", err)
		}
		c.UserID = core.UserID(uid)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}
