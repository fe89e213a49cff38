// Package repository implements the Postgres-backed credential store and
// article repository. Uniqueness of usernames, e-mails, and slugs is enforced
// by database constraints; violations surface as typed sentinel errors so the
// services can distinguish conflicts from other failures.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Registers the pgx driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned when a username or e-mail is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrSlugTaken is returned when an insert or update loses the race for a
	// slug; the caller retries with the next disambiguation suffix.
	ErrSlugTaken = errors.New("slug already taken")
)

// Storage wraps the database connection.
type Storage struct {
	DB *sql.DB
}

// New opens a connection to PostgreSQL and verifies it with a ping.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

// isUniqueViolation reports whether err is a violation of the named unique
// constraint; an empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
