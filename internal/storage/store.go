package storage

import (
	"context"
	"errors"
	"strings"
)

const (
	// UserKey holds the signed-in user.
	UserKey = "@gofinances:user"
	// transactionsKeyPrefix is followed by the user id.
	transactionsKeyPrefix = "@gofinances:transactions_user:"
)

var (
	ErrCorruptData = errors.New("corrupt stored data")
	ErrNotFound    = errors.New("not found")
)

// Store is a string key-value store. Writes are last-write-wins; there is no
// transactionality across keys.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// TransactionsKey is the key holding userID's transaction list.
func TransactionsKey(userID string) string {
	return transactionsKeyPrefix + userID
}

// KeyLister is implemented by stores that can enumerate their keys.
type KeyLister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// UserIDs returns the ids of users with a stored transaction list.
func UserIDs(ctx context.Context, kl KeyLister) ([]string, error) {
	keys, err := kl.Keys(ctx, transactionsKeyPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if id := strings.TrimPrefix(k, transactionsKeyPrefix); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
