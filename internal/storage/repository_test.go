package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofinances/internal/cache"
	"gofinances/internal/core"
	applog "gofinances/internal/log"
	"gofinances/internal/storage/memory"
)

// countingStore counts reads so cache behaviour can be observed.
type countingStore struct {
	Store
	mu    sync.Mutex
	reads int
}

func (c *countingStore) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.Store.Get(ctx, key)
}

func (c *countingStore) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

func newTx(name, amount string, typ core.TransactionType) core.Transaction {
	return core.Transaction{Name: name, Amount: amount, Type: typ, Category: "food", Date: "2022-03-05T10:00:00.000Z"}
}

func TestTransactionRepository_AppendAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(memory.New(), nil, applog.Discard())

	list, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	a, err := repo.Append(ctx, "u1", newTx("Almoço", "40", core.Negative))
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)

	b, err := repo.Append(ctx, "u1", core.Transaction{ID: "fixed", Name: "Salário", Amount: "100", Type: core.Positive, Category: "salary", Date: "2022-03-01"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", b.ID)

	list, err = repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, "fixed", list[1].ID)

	other, err := repo.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestTransactionRepository_Rejects(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(memory.New(), nil, applog.Discard())

	_, err := repo.Append(ctx, "", newTx("x", "1", core.Negative))
	assert.ErrorIs(t, err, core.ErrEmptyUserID)

	_, err = repo.Append(ctx, "u1", newTx("x", "abc", core.Negative))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	tx := newTx("x", "1", core.Negative)
	tx.ID = "dup"
	_, err = repo.Append(ctx, "u1", tx)
	require.NoError(t, err)
	_, err = repo.Append(ctx, "u1", tx)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestTransactionRepository_CorruptData(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, TransactionsKey("u1"), "{not json"))
	repo := NewTransactionRepository(store, nil, applog.Discard())

	_, err := repo.List(ctx, "u1")
	assert.True(t, errors.Is(err, ErrCorruptData), "got %v", err)
}

func TestTransactionRepository_CacheInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: memory.New()}
	c := cache.NewLRUCache[[]core.Transaction](10, time.Minute)
	repo := NewTransactionRepository(store, c, applog.Discard())

	_, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	_, err = repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Reads(), "second list should be served from cache")

	_, err = repo.Append(ctx, "u1", newTx("x", "1", core.Negative))
	require.NoError(t, err)

	list, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// Mutating the returned slice must not leak into the cache.
	list[0].Name = "changed"
	again, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "x", again[0].Name)
}

func TestTransactionRepository_ReplaceAndClear(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(memory.New(), cache.NewLRUCache[[]core.Transaction](10, time.Minute), applog.Discard())

	require.NoError(t, repo.Replace(ctx, "u1", []core.Transaction{{ID: "a"}, {ID: "b"}}))
	list, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.Clear(ctx, "u1"))
	list, err = repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTransactionRepository_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(memory.New(), cache.NewLRUCache[[]core.Transaction](10, time.Minute), applog.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Append(ctx, "u1", newTx("x", "1", core.Negative))
			assert.NoError(t, err)
			_, err = repo.List(ctx, "u1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(memory.New())

	_, err := repo.Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Save(ctx, core.User{}), core.ErrEmptyUserID)

	u := core.User{ID: "42", Name: "Ana", Email: "ana@example.com", Photo: "https://example.com/a.png"}
	require.NoError(t, repo.Save(ctx, u))
	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	require.NoError(t, repo.Remove(ctx))
	_, err = repo.Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}
