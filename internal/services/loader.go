package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"gofinances/internal/core"
	applog "gofinances/internal/log"
)

// ErrSuperseded is returned by Loader.Load when a newer load for the same
// user and view started before this one finished.
var ErrSuperseded = errors.New("load superseded by a newer request")

// Views that reload summaries independently.
const (
	ViewDashboard = "dashboard"
	ViewResume    = "resume"
)

// SummaryFunc computes a summary; TransactionService.Summary fits.
type SummaryFunc func(ctx context.Context, userID string, ref time.Time) (core.Summary, error)

// Loader serialises summary reloads per user and view. Each Load takes a
// token and only the holder of the latest token for that view gets its
// result, so a slow earlier load can never overwrite a newer one. Views
// do not supersede each other.
type Loader struct {
	compute SummaryFunc
	tokens  sync.Map // loadKey -> *atomic.Uint64
	logger  *applog.Logger
}

type loadKey struct {
	userID string
	view   string
}

func NewLoader(compute SummaryFunc, logger *applog.Logger) *Loader {
	return &Loader{compute: compute, logger: logger.WithComponent(applog.ComponentLoader)}
}

func (l *Loader) counter(userID, view string) *atomic.Uint64 {
	v, _ := l.tokens.LoadOrStore(loadKey{userID, view}, new(atomic.Uint64))
	return v.(*atomic.Uint64)
}

// Load computes the summary for userID and ref on behalf of view. It
// returns ErrSuperseded if another Load for the same user and view started
// meanwhile.
func (l *Loader) Load(ctx context.Context, userID, view string, ref time.Time) (core.Summary, error) {
	c := l.counter(userID, view)
	token := c.Add(1)

	summary, err := l.compute(ctx, userID, ref)
	if c.Load() != token {
		l.logger.DebugContext(ctx, "Discarding stale load",
			applog.FieldUserID, userID, applog.FieldView, view, applog.FieldLoadToken, token)
		return core.Summary{}, ErrSuperseded
	}
	if err != nil {
		return core.Summary{}, err
	}
	return summary, nil
}

// Latest returns the token of the most recent Load for userID and view.
func (l *Loader) Latest(userID, view string) uint64 {
	return l.counter(userID, view).Load()
}
