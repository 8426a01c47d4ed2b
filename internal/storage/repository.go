package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"gofinances/internal/cache"
	"gofinances/internal/core"
	applog "gofinances/internal/log"
)

var ErrDuplicateID = errors.New("duplicate transaction id")

// TransactionRepository stores each user's transactions as one JSON array
// under TransactionsKey(userID). Decoded lists are cached; concurrent cache
// misses for the same user share a single store read.
type TransactionRepository struct {
	store  Store
	cache  cache.Cache[[]core.Transaction]
	group  singleflight.Group
	mu     sync.RWMutex // writers exclude cache fills
	logger *applog.Logger
	newID  func() string
}

// NewTransactionRepository wires a repository. c may be nil to disable caching.
func NewTransactionRepository(store Store, c cache.Cache[[]core.Transaction], logger *applog.Logger) *TransactionRepository {
	return &TransactionRepository{
		store:  store,
		cache:  c,
		logger: logger.WithComponent(applog.ComponentStorage),
		newID:  uuid.NewString,
	}
}

// List returns userID's transactions in stored order. The returned slice is
// the caller's to keep.
func (r *TransactionRepository) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	if userID == "" {
		return nil, core.ErrEmptyUserID
	}
	key := TransactionsKey(userID)

	if r.cache != nil {
		if list, ok := r.cache.Get(key); ok {
			return clone(list), nil
		}
	}

	v, err, shared := r.group.Do(key, func() (any, error) {
		r.mu.RLock()
		defer r.mu.RUnlock()
		list, err := r.load(ctx, key)
		if err != nil {
			return nil, err
		}
		if r.cache != nil {
			r.cache.Set(key, list)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.logger.DebugContext(ctx, "Shared transaction load", applog.FieldUserID, userID)
	}
	return clone(v.([]core.Transaction)), nil
}

// Append validates tx, assigns an id when missing, and appends it to the
// user's list.
func (r *TransactionRepository) Append(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	if userID == "" {
		return core.Transaction{}, core.ErrEmptyUserID
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = r.newID()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := TransactionsKey(userID)
	list, err := r.load(ctx, key)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, existing := range list {
		if existing.ID == tx.ID {
			return core.Transaction{}, fmt.Errorf("%w: %s", ErrDuplicateID, tx.ID)
		}
	}

	if err := r.save(ctx, key, append(list, tx)); err != nil {
		return core.Transaction{}, err
	}

	r.logger.InfoContext(ctx, "Transaction appended",
		applog.NewFields().WithUser(userID).WithTransaction(tx.ID, string(tx.Type), tx.Category).ToSlice()...)
	return tx, nil
}

// Replace overwrites the user's whole list.
func (r *TransactionRepository) Replace(ctx context.Context, userID string, list []core.Transaction) error {
	if userID == "" {
		return core.ErrEmptyUserID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if list == nil {
		list = []core.Transaction{}
	}
	return r.save(ctx, TransactionsKey(userID), list)
}

// Clear removes every transaction of the user.
func (r *TransactionRepository) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return core.ErrEmptyUserID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := TransactionsKey(userID)
	if err := r.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	r.invalidate(key)
	return nil
}

func (r *TransactionRepository) load(ctx context.Context, key string) ([]core.Transaction, error) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	if !ok {
		return []core.Transaction{}, nil
	}
	var list []core.Transaction
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptData, key, err)
	}
	if list == nil {
		list = []core.Transaction{}
	}
	return list, nil
}

func (r *TransactionRepository) save(ctx context.Context, key string, list []core.Transaction) error {
	body, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	if err := r.store.Set(ctx, key, string(body)); err != nil {
		return fmt.Errorf("write transactions: %w", err)
	}
	r.invalidate(key)
	return nil
}

func (r *TransactionRepository) invalidate(key string) {
	if r.cache != nil {
		r.cache.Delete(key)
	}
	r.group.Forget(key)
}

func clone(list []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(list))
	copy(out, list)
	return out
}

// UserRepository persists the signed-in user under UserKey.
type UserRepository struct {
	store Store
}

func NewUserRepository(store Store) *UserRepository {
	return &UserRepository{store: store}
}

// Get returns the stored user or ErrNotFound.
func (r *UserRepository) Get(ctx context.Context) (core.User, error) {
	raw, ok, err := r.store.Get(ctx, UserKey)
	if err != nil {
		return core.User{}, fmt.Errorf("read user: %w", err)
	}
	if !ok {
		return core.User{}, ErrNotFound
	}
	var u core.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return core.User{}, fmt.Errorf("%w: %s: %v", ErrCorruptData, UserKey, err)
	}
	return u, nil
}

func (r *UserRepository) Save(ctx context.Context, u core.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := r.store.Set(ctx, UserKey, string(body)); err != nil {
		return fmt.Errorf("write user: %w", err)
	}
	return nil
}

func (r *UserRepository) Remove(ctx context.Context) error {
	if err := r.store.Remove(ctx, UserKey); err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	return nil
}
