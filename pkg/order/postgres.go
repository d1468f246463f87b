package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/teslashibe/go-drivethru/pkg/cart"
)

// PostgresStore keeps orders in PostgreSQL through the pgx stdlib driver.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects to dsn, verifies the connection and creates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("order: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("order: ping postgres: %w", err)
	}
	s := NewPostgresStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an open database. Call Migrate before first use.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Migrate creates the orders table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS orders (
		id BIGINT PRIMARY KEY,
		items JSONB NOT NULL,
		total BIGINT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("order: migrate postgres: %w", err)
	}
	return nil
}

// Append implements Store. The table lock serializes id assignment across
// every process sharing the database.
func (s *PostgresStore) Append(ctx context.Context, snap cart.Snapshot) (Order, error) {
	o, err := build(snap, s.now())
	if err != nil {
		return Order{}, err
	}
	items, err := encodeItems(o.Items)
	if err != nil {
		return Order{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, fmt.Errorf("order: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE orders IN EXCLUSIVE MODE`); err != nil {
		return Order{}, fmt.Errorf("order: lock: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (id, items, total, status, created_at) SELECT COALESCE(MAX(id), 0) + 1, $1, $2, $3, $4 FROM orders RETURNING id`,
		items, int64(o.Total), o.Status, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return Order{}, fmt.Errorf("order: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Order{}, fmt.Errorf("order: commit: %w", err)
	}
	return o, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context) ([]Order, error) {
	return queryOrders(ctx, s.db,
		`SELECT id, items, total, status, created_at FROM orders ORDER BY id`,
		func(rows *sql.Rows) (Order, error) {
			var (
				o     Order
				items []byte
				total int64
			)
			if err := rows.Scan(&o.ID, &items, &total, &o.Status, &o.CreatedAt); err != nil {
				return Order{}, fmt.Errorf("order: scan: %w", err)
			}
			if err := fillRow(&o, items, total); err != nil {
				return Order{}, err
			}
			return o, nil
		})
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
