package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const TableName = "data_table"

// A Row is one generated record in the data table
type Row struct {
	ID   int64     `db:"id"`
	Data string    `db:"data"`
	Date time.Time `db:"date"`
}

type dialect struct {
	createTable string
}

var dialects = map[string]dialect{
	"postgres": {
		createTable: `
			CREATE TABLE IF NOT EXISTS ` + TableName + ` (
				id SERIAL PRIMARY KEY,
				data TEXT NOT NULL,
				date TIMESTAMP NOT NULL
			);`,
	},
	"sqlite3": {
		createTable: `
			CREATE TABLE IF NOT EXISTS ` + TableName + ` (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				data TEXT NOT NULL,
				date TIMESTAMP NOT NULL
			);`,
	},
}

// SupportedDriver reports whether we know the DDL for a database driver
func SupportedDriver(driver string) bool {
	_, ok := dialects[driver]
	return ok
}

// A Store owns the single database connection used to write and purge rows.
type Store struct {
	db      *sqlx.DB
	dialect dialect
}

// New wraps an open database handle. The handle's driver must be one of the
// supported dialects.
func New(db *sqlx.DB) (*Store, error) {
	d, ok := dialects[db.DriverName()]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", db.DriverName())
	}

	return &Store{db: db, dialect: d}, nil
}

// CreateTable makes sure the data table exists. Safe to call repeatedly.
func (s *Store) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.dialect.createTable)
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", TableName, err)
	}

	return nil
}

// Insert writes a single row
func (s *Store) Insert(ctx context.Context, data string, date time.Time) error {
	query := s.db.Rebind(`INSERT INTO ` + TableName + ` (data, date) VALUES (?, ?);`)

	_, err := s.db.ExecContext(ctx, query, data, date)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", TableName, err)
	}

	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+TableName+`;`)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", TableName, err)
	}

	return count, nil
}

// Rows returns every row currently in the table, oldest first
func (s *Store) Rows(ctx context.Context) ([]Row, error) {
	var rows []Row
	err := s.db.SelectContext(ctx, &rows, `SELECT id, data, date FROM `+TableName+` ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", TableName, err)
	}

	return rows, nil
}

// ClearIfFull counts the rows and, when there are at least threshold of them,
// deletes every row. The count and the delete share one transaction. It
// returns the count seen and whether the table was cleared.
func (s *Store) ClearIfFull(ctx context.Context, threshold int) (int, bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// No-op once committed
	defer func() { _ = tx.Rollback() }()

	var count int
	err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+TableName+`;`)
	if err != nil {
		return 0, false, fmt.Errorf("failed to count rows in %s: %w", TableName, err)
	}

	if count < threshold {
		return count, false, tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM `+TableName+`;`)
	if err != nil {
		return count, false, fmt.Errorf("failed to clear %s: %w", TableName, err)
	}

	err = tx.Commit()
	if err != nil {
		return count, false, fmt.Errorf("failed to commit clearing %s: %w", TableName, err)
	}

	return count, true, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
