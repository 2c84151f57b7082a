package database

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew(t *testing.T) {
	db := newTestDB(t)

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if db.Dialect() != DialectSQLite {
		t.Errorf("Expected sqlite dialect for file path, got %s", db.Dialect())
	}
}

func TestNew_InvalidPath(t *testing.T) {
	db, err := New("/invalid/path/that/does/not/exist/test.db")
	if err == nil {
		db.Close()
		t.Fatal("Expected error for invalid path, got nil")
	}
}

func TestInitialize(t *testing.T) {
	db := newTestDB(t)

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	tables := []string{"users", "questions", "question_assignments"}
	for _, table := range tables {
		var name string
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		if err := db.QueryRow(query, table).Scan(&name); err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestInitialize_Idempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.Initialize(); err != nil {
		t.Fatalf("First initialize failed: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Second initialize failed: %v", err)
	}
}

func TestInitialize_ForeignKeysEnforced(t *testing.T) {
	db := newTestDB(t)

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	// Dangling question reference must be rejected
	_, err := db.Exec("INSERT INTO question_assignments (question_id, user_id) VALUES (999, 999)")
	if err == nil {
		t.Fatal("Expected foreign key violation for dangling assignment, got nil")
	}

	if !errors.Is(WrapConstraint(err), ErrConstraintViolation) {
		t.Errorf("Expected constraint violation, got: %v", err)
	}
}

func TestInitialize_UniqueEmail(t *testing.T) {
	db := newTestDB(t)

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	if _, err := db.Exec("INSERT INTO users (name, email) VALUES ('A', 'a@example.com')"); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	_, err := db.Exec("INSERT INTO users (name, email) VALUES ('B', 'a@example.com')")
	if !errors.Is(WrapConstraint(err), ErrConstraintViolation) {
		t.Errorf("Expected unique violation for duplicate email, got: %v", err)
	}
}

func TestInitialize_StatusCheck(t *testing.T) {
	db := newTestDB(t)

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	_, err := db.Exec("INSERT INTO questions (title, content, status) VALUES ('t', 'c', 'bogus')")
	if !errors.Is(WrapConstraint(err), ErrConstraintViolation) {
		t.Errorf("Expected check violation for bogus status, got: %v", err)
	}
}

func TestRebind(t *testing.T) {
	sqlite := &DB{dialect: DialectSQLite}
	pg := &DB{dialect: DialectPostgres}

	query := "SELECT * FROM users WHERE email = ? AND id = ?"

	if got := sqlite.Rebind(query); got != query {
		t.Errorf("SQLite rebind should be a no-op, got: %s", got)
	}

	want := "SELECT * FROM users WHERE email = $1 AND id = $2"
	if got := pg.Rebind(query); got != want {
		t.Errorf("Postgres rebind: expected %q, got %q", want, got)
	}
}

func TestWrapConstraint_PassThrough(t *testing.T) {
	if WrapConstraint(nil) != nil {
		t.Error("Expected nil for nil error")
	}

	plain := errors.New("connection refused")
	if errors.Is(WrapConstraint(plain), ErrConstraintViolation) {
		t.Error("Non-constraint errors must not be wrapped")
	}
}
