package order

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/teslashibe/go-drivethru/pkg/cart"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps orders in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path.
// Use ":memory:" for a throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("order: open sqlite: %w", err)
	}
	// One connection: SQLite has a single writer and each :memory: connection is its own database.
	db.SetMaxOpenConns(1)
	s, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database and creates the schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY,
		items TEXT NOT NULL,
		total INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);`
	if _, err := s.db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("order: migrate sqlite: %w", err)
	}
	return nil
}

// Append implements Store. The id is computed inside the INSERT so assignment
// and write happen in one statement.
func (s *SQLiteStore) Append(ctx context.Context, snap cart.Snapshot) (Order, error) {
	o, err := build(snap, s.now())
	if err != nil {
		return Order{}, err
	}
	items, err := encodeItems(o.Items)
	if err != nil {
		return Order{}, err
	}

	query := `INSERT INTO orders (id, items, total, status, created_at)
		SELECT COALESCE(MAX(id), 0) + 1, ?, ?, ?, ? FROM orders
		RETURNING id`

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.db.QueryRowContext(ctx, query,
		items, int64(o.Total), o.Status, o.CreatedAt.Format(time.RFC3339Nano),
	).Scan(&o.ID)
	if err != nil {
		return Order{}, fmt.Errorf("order: insert: %w", err)
	}
	return o, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]Order, error) {
	return queryOrders(ctx, s.db,
		`SELECT id, items, total, status, created_at FROM orders ORDER BY id`,
		func(rows *sql.Rows) (Order, error) {
			var (
				o       Order
				items   string
				total   int64
				created string
			)
			if err := rows.Scan(&o.ID, &items, &total, &o.Status, &created); err != nil {
				return Order{}, fmt.Errorf("order: scan: %w", err)
			}
			if err := fillRow(&o, []byte(items), total); err != nil {
				return Order{}, err
			}
			t, err := time.Parse(time.RFC3339Nano, created)
			if err != nil {
				return Order{}, fmt.Errorf("order: parse created_at: %w", err)
			}
			o.CreatedAt = t
			return o, nil
		})
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
