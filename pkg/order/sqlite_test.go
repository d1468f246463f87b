package order

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-drivethru/pkg/cart"
	"github.com/teslashibe/go-drivethru/pkg/menu"
)

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	o, err := s.Append(ctx, sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, int64(1), o.ID)

	o2, err := s.Append(ctx, sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, int64(2), o2.ID)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	got := list[0]
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, menu.Money(668), got.Total)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Equal(t, o.Items, got.Items)
	assert.True(t, o.CreatedAt.Equal(got.CreatedAt))
}

func TestSQLiteStoreEmpty(t *testing.T) {
	s := newSQLite(t)

	_, err := s.Append(context.Background(), cart.New().Snapshot())
	assert.ErrorIs(t, err, ErrEmptyOrder)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSQLiteStoreConcurrentIDs(t *testing.T) {
	s := newSQLite(t)
	const n = 20

	var wg sync.WaitGroup
	var mu sync.Mutex
	var got []int64
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := s.Append(context.Background(), sampleSnapshot())
			if assert.NoError(t, err) {
				mu.Lock()
				got = append(got, o.ID)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	require.Len(t, got, n)
	for i, id := range got {
		assert.Equal(t, int64(i+1), id)
	}
}
