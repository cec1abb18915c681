package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/a1media/agency-dashboard/internal"
	"github.com/a1media/agency-dashboard/internal/user"
	"github.com/jmoiron/sqlx"
)

const userColumns = "id, email, name, password_hash, role, is_active, created_at, updated_at"

// Repository reads users with plain SQL through sqlx. Placeholders are
// written as ? and rebound for the connected driver.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) user.Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	query := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *Repository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE 1=1"
	var args []interface{}
	if filter.Role != "" {
		query += " AND role = ?"
		args = append(args, string(filter.Role))
	}
	if filter.ActiveOnly {
		query += " AND is_active = ?"
		args = append(args, true)
	}
	query += " ORDER BY id"

	users := []*user.User{}
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
