// Package repository provides the PostgreSQL persistence layer for user records.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/atarasenko/userd/internal/models"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

var (
	// ErrNotFound is returned when no record matches the given key.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an insert or update violates a unique constraint.
	ErrConflict = errors.New("record already exists")
)

// PostgresUserRepository implements user record persistence against a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// FindByID fetches a single user by its identifier.
// Returns ErrNotFound if no record matches.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, type, username, password, recovery_mail, active_day FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Type, &u.Username, &u.Password, &u.RecoveryMail, &u.ActiveDay)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("FindByID: %w", err)
	}
	return &u, nil
}

// FindByUsername fetches a single user by username.
// Returns ErrNotFound if no record matches.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, type, username, password, recovery_mail, active_day FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Type, &u.Username, &u.Password, &u.RecoveryMail, &u.ActiveDay)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("FindByUsername: %w", err)
	}
	return &u, nil
}

// FindAll returns user records ordered by id. A limit <= 0 returns every record;
// offset skips the given number of rows.
func (r *PostgresUserRepository) FindAll(ctx context.Context, limit, offset int) ([]models.User, error) {
	query := `SELECT id, type, username, password, recovery_mail, active_day FROM users ORDER BY id OFFSET $1`
	args := []any{offset}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("FindAll: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Type, &u.Username, &u.Password, &u.RecoveryMail, &u.ActiveDay); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return users, nil
}

// Insert persists a new user record.
// Returns ErrConflict when the id or username is already taken; the unique
// constraints on the table are the real uniqueness guarantee.
func (r *PostgresUserRepository) Insert(ctx context.Context, u *models.User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, type, username, password, recovery_mail, active_day)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Type, u.Username, u.Password, u.RecoveryMail, u.ActiveDay)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

// UpdateByID overwrites the mutable fields of the record with the given id and
// returns the updated row. Returns ErrNotFound when no record matched, and
// ErrConflict when the new username collides with another record.
func (r *PostgresUserRepository) UpdateByID(ctx context.Context, id string, u *models.User) (*models.User, error) {
	var updated models.User
	err := r.DB.QueryRowContext(ctx, `
		UPDATE users
		   SET type = $2, username = $3, password = $4, recovery_mail = $5, active_day = $6
		 WHERE id = $1
		RETURNING id, type, username, password, recovery_mail, active_day
	`, id, u.Type, u.Username, u.Password, u.RecoveryMail, u.ActiveDay).
		Scan(&updated.ID, &updated.Type, &updated.Username, &updated.Password, &updated.RecoveryMail, &updated.ActiveDay)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("UpdateByID: %w", err)
	}
	return &updated, nil
}

// DeleteByID removes the record with the given id and returns it.
// Returns ErrNotFound when no record matched.
func (r *PostgresUserRepository) DeleteByID(ctx context.Context, id string) (*models.User, error) {
	var deleted models.User
	err := r.DB.QueryRowContext(ctx, `
		DELETE FROM users WHERE id = $1
		RETURNING id, type, username, password, recovery_mail, active_day
	`, id).Scan(&deleted.ID, &deleted.Type, &deleted.Username, &deleted.Password, &deleted.RecoveryMail, &deleted.ActiveDay)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("DeleteByID: %w", err)
	}
	return &deleted, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
