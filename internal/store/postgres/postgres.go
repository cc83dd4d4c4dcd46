// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/issuefacets/internal/model"
	"github.com/alfredjeanlab/issuefacets/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) CreateIssue(ctx context.Context, issue *model.Issue) error {
	return queryCreateIssue(ctx, s.db, issue)
}

func (s *PostgresStore) GetIssue(ctx context.Context, key string) (*model.Issue, error) {
	return queryGetIssue(ctx, s.db, key)
}

func (s *PostgresStore) ListIssues(ctx context.Context) ([]*model.Issue, error) {
	return queryListIssues(ctx, s.db)
}

func (s *PostgresStore) DeleteIssue(ctx context.Context, key string) error {
	return queryDeleteIssue(ctx, s.db, key)
}

func (s *PostgresStore) GetNewCodePeriod(ctx context.Context) (*model.NewCodePeriod, error) {
	return queryGetNewCodePeriod(ctx, s.db)
}

func (s *PostgresStore) SetNewCodePeriod(ctx context.Context, p *model.NewCodePeriod) error {
	return querySetNewCodePeriod(ctx, s.db, p)
}

func (s *PostgresStore) GetWorkspace(ctx context.Context) (*model.Workspace, error) {
	return queryGetWorkspace(ctx, s.db)
}

func (s *PostgresStore) SetWorkspace(ctx context.Context, w *model.Workspace) error {
	return querySetWorkspace(ctx, s.db, w)
}

func (s *PostgresStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.db, event)
}

func (s *PostgresStore) ListEvents(ctx context.Context, subject string) ([]*model.Event, error) {
	return queryListEvents(ctx, s.db, subject)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateIssue(ctx context.Context, issue *model.Issue) error {
	return queryCreateIssue(ctx, s.tx, issue)
}

func (s *txStore) GetIssue(ctx context.Context, key string) (*model.Issue, error) {
	return queryGetIssue(ctx, s.tx, key)
}

func (s *txStore) ListIssues(ctx context.Context) ([]*model.Issue, error) {
	return queryListIssues(ctx, s.tx)
}

func (s *txStore) DeleteIssue(ctx context.Context, key string) error {
	return queryDeleteIssue(ctx, s.tx, key)
}

func (s *txStore) GetNewCodePeriod(ctx context.Context) (*model.NewCodePeriod, error) {
	return queryGetNewCodePeriod(ctx, s.tx)
}

func (s *txStore) SetNewCodePeriod(ctx context.Context, p *model.NewCodePeriod) error {
	return querySetNewCodePeriod(ctx, s.tx, p)
}

func (s *txStore) GetWorkspace(ctx context.Context) (*model.Workspace, error) {
	return queryGetWorkspace(ctx, s.tx)
}

func (s *txStore) SetWorkspace(ctx context.Context, w *model.Workspace) error {
	return querySetWorkspace(ctx, s.tx, w)
}

func (s *txStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.tx, event)
}

func (s *txStore) ListEvents(ctx context.Context, subject string) ([]*model.Event, error) {
	return queryListEvents(ctx, s.tx, subject)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Ping is a no-op inside a transaction; the open transaction proves the
// connection.
func (s *txStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
