package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect identifies the backing database engine
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ErrConstraintViolation wraps storage-level invariant breaches (duplicate
// email, dangling reference). Callers check with errors.Is.
var ErrConstraintViolation = errors.New("constraint violation")

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
	dialect Dialect
}

// New creates a new database connection.
// A postgres:// (or postgresql://) DSN uses the pgx driver; any other value
// is treated as a SQLite file path, which keeps local development and the
// test suite self-contained.
func New(dsn string) (*DB, error) {
	var db *sql.DB
	var err error
	var dialect Dialect

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialect = DialectPostgres
		db, err = sql.Open("pgx", dsn)
	} else {
		dialect = DialectSQLite
		db, err = sql.Open("sqlite", dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if dialect == DialectSQLite {
		// Cascade deletes depend on this pragma
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("✅ Database connected (%s)", dialect)

	return &DB{DB: db, dialect: dialect}, nil
}

// Dialect returns the detected engine
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Initialize creates the users, questions and question_assignments tables
func (db *DB) Initialize() error {
	log.Println("🔍 Checking database schema...")

	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.dialect == DialectPostgres {
		serial = "SERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS users (
				id %s,
				name TEXT NOT NULL,
				email TEXT NOT NULL UNIQUE,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`, serial),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS questions (
				id %s,
				title TEXT NOT NULL,
				content TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'todo'
					CHECK (status IN ('todo', 'progress', 'doing', 'done', 'cancelled')),
				reference_urls TEXT NOT NULL DEFAULT '[]',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`, serial),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS question_assignments (
				id %s,
				question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
				user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				assigned_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`, serial),
		`CREATE INDEX IF NOT EXISTS idx_assignments_question ON question_assignments(question_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_user ON question_assignments(user_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	log.Println("✅ Database initialized successfully")
	return nil
}

// Rebind converts ? placeholders to the engine's native form.
// pgx wants $1..$n; SQLite takes ? as-is.
func (db *DB) Rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// WrapConstraint maps driver-specific constraint errors onto
// ErrConstraintViolation so callers don't match on error text.
func WrapConstraint(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique") ||
		strings.Contains(msg, "foreign key") ||
		strings.Contains(msg, "constraint") ||
		strings.Contains(msg, "check") {
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	return err
}
