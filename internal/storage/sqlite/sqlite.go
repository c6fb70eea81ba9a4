// Package sqlite is the embedded store backing local development and
// tests. The hosted deployment uses the postgres store; both satisfy
// storage.Store with identical semantics.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"tally/internal/core"
	"tally/internal/storage"
)

var _ storage.Store = (*Repository)(nil)

type Repository struct {
	db *sql.DB
}

func New(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w: %v", core.ErrUnavailable, err)
	}

	// Required for the ON DELETE CASCADE declarations to take effect.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// isUniqueViolation matches the modernc driver's constraint error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- users ---

func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, password_salt, email, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(u.ID), u.Username, u.PasswordHash, u.PasswordSalt,
		nullable(u.Email), u.Currency, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("username %q: %w", u.Username, core.ErrConflict)
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID, "username", u.Username)
	return u, nil
}

const userColumns = `id, username, password_hash, password_salt, email, currency, created_at, updated_at`

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *Repository) GetUserByID(ctx context.Context, id core.UserID) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, string(id))
	return scanUser(row)
}

func (r *Repository) SetCurrency(ctx context.Context, id core.UserID, currency string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET currency = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		currency, string(id))
	if err != nil {
		return fmt.Errorf("set currency: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	var id string
	var email sql.NullString
	err := row.Scan(&id, &u.Username, &u.PasswordHash, &u.PasswordSalt,
		&email, &u.Currency, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.ID = core.UserID(id)
	u.Email = email.String
	return u, nil
}

// --- categories ---

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, color, created_at)
		VALUES (?, ?, ?, ?)`,
		string(c.UserID), c.Name, c.Color, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, fmt.Errorf("category %q: %w", c.Name, core.ErrConflict)
		}
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context, userID core.UserID) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, color, created_at
		FROM categories WHERE user_id = ? ORDER BY name`,
		string(userID))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		var uid string
		if err := rows.Scan(&c.ID, &uid, &c.Name, &c.Color, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.UserID = core.UserID(uid)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
