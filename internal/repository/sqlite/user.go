package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/repository"
)

var (
	_ repository.UserRepository  = (*DB)(nil)
	_ repository.AdminRepository = (*DB)(nil)
)

// CreateUser assigns the id and timestamps and inserts u.
// A duplicate email is a Conflict.
func (db *DB) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.ID = xid.New().String()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.EmailTaken()
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}
	return nil
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.New(apperror.ErrNotFound, "user not found")
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

func (db *DB) CreateAdmin(ctx context.Context, a *model.Admin) error {
	now := time.Now().UTC()
	a.ID = xid.New().String()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.Role = model.RoleAdmin

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO admins (id, name, email, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Email, a.PasswordHash, string(a.Role), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.EmailTaken()
		}
		return fmt.Errorf("sqlite: inserting admin: %w", err)
	}
	return nil
}

func scanAdmin(row interface{ Scan(...any) error }) (*model.Admin, error) {
	var a model.Admin
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (db *DB) GetAdminByID(ctx context.Context, id string) (*model.Admin, error) {
	a, err := scanAdmin(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM admins WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("admin", id)
		}
		return nil, fmt.Errorf("sqlite: getting admin %s: %w", id, err)
	}
	return a, nil
}

func (db *DB) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	a, err := scanAdmin(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM admins WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.New(apperror.ErrNotFound, "admin not found")
		}
		return nil, fmt.Errorf("sqlite: getting admin by email: %w", err)
	}
	return a, nil
}
