// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

// Package postgres implements user.Directory on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/loopers/commerce-api/internal/user"
)

// poolIface is the subset of *pgxpool.Pool the directory uses.
// pgxmock.PgxPoolIface satisfies it as well.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Directory implements user.Directory using PostgreSQL.
type Directory struct {
	pool poolIface
}

// NewDirectory creates a new Directory.
func NewDirectory(pool poolIface) *Directory {
	return &Directory{pool: pool}
}

// ExistsByLoginID reports whether a user with loginID is stored.
func (d *Directory) ExistsByLoginID(ctx context.Context, loginID string) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE login_id = $1)`,
		loginID,
	).Scan(&exists)
	if err != nil {
		return false, oops.Code("USER_EXISTS_FAILED").
			With("operation", "check login id").
			With("login_id", loginID).
			Wrap(err)
	}
	return exists, nil
}

// FindByLoginID retrieves a user by login id. Login ids are case-sensitive.
func (d *Directory) FindByLoginID(ctx context.Context, loginID string) (*user.User, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, login_id, password_hash, name, birthday, email, created_at, updated_at
		FROM users
		WHERE login_id = $1
	`, loginID)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("login_id", loginID).
			Wrap(user.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_FIND_FAILED").
			With("operation", "find user by login id").
			With("login_id", loginID).
			Wrap(err)
	}
	return u, nil
}

// Save inserts u when it has no id yet and updates its password otherwise.
// u itself is not modified; the stored state is returned.
func (d *Directory) Save(ctx context.Context, u *user.User) (*user.User, error) {
	if u.IsNew() {
		return d.insert(ctx, u)
	}
	return d.update(ctx, u)
}

func (d *Directory) insert(ctx context.Context, u *user.User) (*user.User, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	rec := user.Record{ID: ulid.Make(), CreatedAt: now, UpdatedAt: now}

	_, err := d.pool.Exec(ctx, `
		INSERT INTO users (id, login_id, password_hash, name, birthday, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		rec.ID.String(),
		u.LoginID(),
		u.PasswordHash(),
		u.Name(),
		u.Birthday(),
		u.Email(),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, oops.Code("USER_DUPLICATE_LOGIN_ID").
				With("login_id", u.LoginID()).
				With("constraint", pgErr.ConstraintName).
				Wrap(user.ErrDuplicateLoginID)
		}
		return nil, oops.Code("USER_INSERT_FAILED").
			With("operation", "insert user").
			With("login_id", u.LoginID()).
			Wrap(err)
	}

	return user.RestoreUser(rec, u.LoginID(), u.PasswordHash(), u.Name(), u.Birthday(), u.Email()), nil
}

func (d *Directory) update(ctx context.Context, u *user.User) (*user.User, error) {
	updated := time.Now().UTC().Truncate(time.Microsecond)

	tag, err := d.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, u.ID.String(), u.PasswordHash(), updated)
	if err != nil {
		return nil, oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", u.ID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", u.ID.String()).
			Wrap(user.ErrNotFound)
	}

	rec := u.Record
	rec.UpdatedAt = updated
	return user.RestoreUser(rec, u.LoginID(), u.PasswordHash(), u.Name(), u.Birthday(), u.Email()), nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var idStr, loginID, hash, name, email string
	var birthday, created, updatedAt time.Time
	if err := row.Scan(&idStr, &loginID, &hash, &name, &birthday, &email, &created, &updatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_CORRUPT_ID").With("id", idStr).Wrap(err)
	}

	rec := user.Record{ID: id, CreatedAt: created, UpdatedAt: updatedAt}
	return user.RestoreUser(rec, loginID, hash, name, birthday, email), nil
}

// Compile-time interface check.
var _ user.Directory = (*Directory)(nil)
