package order

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/teslashibe/go-drivethru/pkg/cart"
)

// appendScript increments the id counter and pushes the record in one step.
// KEYS[1] = id counter
// KEYS[2] = order list
// ARGV[1] = order JSON without id
// Records are stored as "<id>:<json>".
var appendScript = redis.NewScript(`
local id = redis.call("INCR", KEYS[1])
redis.call("RPUSH", KEYS[2], id .. ":" .. ARGV[1])
return id
`)

// RedisStore keeps orders in a Redis list.
type RedisStore struct {
	client  *redis.Client
	seqKey  string
	listKey string
	now     func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to addr. Keys are namespaced under prefix
// ("drivethru" when empty).
func NewRedisStore(ctx context.Context, addr, password string, db int, prefix string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("order: ping redis: %w", err)
	}
	if prefix == "" {
		prefix = "drivethru"
	}
	return &RedisStore{
		client:  rdb,
		seqKey:  prefix + ":orders:seq",
		listKey: prefix + ":orders",
		now:     time.Now,
	}, nil
}

// Append implements Store.
func (s *RedisStore) Append(ctx context.Context, snap cart.Snapshot) (Order, error) {
	o, err := build(snap, s.now())
	if err != nil {
		return Order{}, err
	}
	doc, err := json.Marshal(o)
	if err != nil {
		return Order{}, fmt.Errorf("order: encode: %w", err)
	}

	id, err := appendScript.Run(ctx, s.client, []string{s.seqKey, s.listKey}, string(doc)).Int64()
	if err != nil {
		return Order{}, fmt.Errorf("order: redis append: %w", err)
	}
	o.ID = id
	return o, nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context) ([]Order, error) {
	records, err := s.client.LRange(ctx, s.listKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("order: redis list: %w", err)
	}
	orders := make([]Order, 0, len(records))
	for _, rec := range records {
		o, err := decodeRecord(rec)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeRecord(rec string) (Order, error) {
	idPart, doc, ok := strings.Cut(rec, ":")
	if !ok {
		return Order{}, fmt.Errorf("order: malformed record %q", rec)
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return Order{}, fmt.Errorf("order: malformed record id %q", idPart)
	}
	var o Order
	if err := json.Unmarshal([]byte(doc), &o); err != nil {
		return Order{}, fmt.Errorf("order: decode record %d: %w", id, err)
	}
	o.ID = id
	return o, nil
}
