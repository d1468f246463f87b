package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/teslashibe/go-drivethru/pkg/cart"
	"github.com/teslashibe/go-drivethru/pkg/menu"
)

func encodeItems(items []cart.Line) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("order: encode items: %w", err)
	}
	return string(data), nil
}

func decodeItems(raw []byte) ([]cart.Line, error) {
	var items []cart.Line
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("order: decode items: %w", err)
	}
	return items, nil
}

// scanFunc reads one row into an Order. Backends differ in how created_at comes back.
type scanFunc func(rows *sql.Rows) (Order, error)

func queryOrders(ctx context.Context, db *sql.DB, query string, scan scanFunc) ([]Order, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("order: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	orders := []Order{}
	for rows.Next() {
		o, err := scan(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order: list: %w", err)
	}
	return orders, nil
}

func fillRow(o *Order, items []byte, total int64) error {
	lines, err := decodeItems(items)
	if err != nil {
		return err
	}
	o.Items = lines
	o.Total = menu.Money(total)
	return nil
}
