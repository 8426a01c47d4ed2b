package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofinances/internal/amqp"
	"gofinances/internal/cache"
	"gofinances/internal/config"
	"gofinances/internal/core"
	applog "gofinances/internal/log"
	"gofinances/internal/storage"
	"gofinances/internal/storage/memory"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.TransactionRecordedMessage
	err  error
}

func (p *fakePublisher) PublishTransactionRecorded(_ context.Context, msg *amqp.TransactionRecordedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func newTestService(t *testing.T, pub Publisher) *TransactionService {
	t.Helper()
	repo := storage.NewTransactionRepository(memory.New(), cache.NewLRUCache[[]core.Transaction](10, time.Minute), applog.Discard())
	return NewTransactionService(repo, pub, time.UTC, applog.Discard())
}

func validTx() core.Transaction {
	return core.Transaction{Name: "Lunch", Amount: "32.90", Type: core.Negative, Category: "food", Date: "2022-03-08T12:00:00Z"}
}

func TestTransactionService_CreatePublishes(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	saved, err := svc.Create(ctx, "user-1", validTx())
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "user-1", pub.msgs[0].UserID)
	assert.Equal(t, saved.ID, pub.msgs[0].ID)
	assert.Equal(t, "food", pub.msgs[0].Category)

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []core.Transaction{saved}, list)
}

func TestTransactionService_PublishFailureDoesNotFailCreate(t *testing.T) {
	svc := newTestService(t, &fakePublisher{err: errors.New("broker down")})

	_, err := svc.Create(context.Background(), "user-1", validTx())
	require.NoError(t, err)

	list, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTransactionService_CreateWithoutPublisher(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Create(context.Background(), "user-1", validTx())
	require.NoError(t, err)
}

func TestTransactionService_CreateRejectsInvalid(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(t, pub)

	bad := validTx()
	bad.Category = "rent"
	_, err := svc.Create(context.Background(), "user-1", bad)
	require.ErrorIs(t, err, core.ErrUnknownCategory)
	assert.Empty(t, pub.msgs)

	_, err = svc.Create(context.Background(), "", validTx())
	require.ErrorIs(t, err, core.ErrEmptyUserID)
}

func TestTransactionService_CreateDefaultsDate(t *testing.T) {
	svc := newTestService(t, nil)
	svc.now = func() time.Time { return time.Date(2022, 3, 8, 9, 30, 0, 0, time.UTC) }

	tx := validTx()
	tx.Date = ""
	saved, err := svc.Create(context.Background(), "user-1", tx)
	require.NoError(t, err)
	assert.Equal(t, "2022-03-08T09:30:00Z", saved.Date)
}

func TestTransactionService_SummaryAndClear(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", core.Transaction{Name: "Salary", Amount: "100", Type: core.Positive, Category: "salary", Date: "2022-03-01"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-1", core.Transaction{Name: "Market", Amount: "40", Type: core.Negative, Category: "food", Date: "2022-03-05"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-2", validTx())
	require.NoError(t, err)

	s, err := svc.Summary(ctx, "user-1", march2022)
	require.NoError(t, err)
	assert.Equal(t, "60", s.Highlights.Total.Total.String())
	require.Len(t, s.Overview.Categories, 1)
	assert.Equal(t, "100%", s.Overview.Categories[0].Percent)

	require.NoError(t, svc.Clear(ctx, "user-1"))
	s, err = svc.Summary(ctx, "user-1", march2022)
	require.NoError(t, err)
	assert.Empty(t, s.Transactions)

	other, err := svc.List(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestTransactionService_SummaryInConfiguredLocation(t *testing.T) {
	t.Setenv("TIMEZONE", "")
	cfg := config.Load()
	loc := cfg.Location()
	require.Equal(t, "America/Sao_Paulo", loc.String())

	repo := storage.NewTransactionRepository(memory.New(), nil, applog.Discard())
	svc := NewTransactionService(repo, nil, loc, applog.Discard())
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", core.Transaction{Name: "Salary", Amount: "100", Type: core.Positive, Category: "salary", Date: "2022-03-01"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-1", core.Transaction{Name: "Market", Amount: "30", Type: core.Negative, Category: "food", Date: "2022-03-01"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-1", core.Transaction{Name: "Fuel", Amount: "10", Type: core.Negative, Category: "car", Date: "2022-03-31"})
	require.NoError(t, err)

	s, err := svc.Summary(ctx, "user-1", time.Date(2022, 3, 15, 12, 0, 0, 0, loc))
	require.NoError(t, err)

	assert.Equal(t, "Última entrada dia 1 de março", s.Highlights.Entries.LastTransaction)
	assert.Equal(t, "Última saída dia 31 de março", s.Highlights.Expenses.LastTransaction)
	assert.Equal(t, "01/03/22", s.Transactions[0].Date)
	require.Len(t, s.Overview.Categories, 2)
	assert.Equal(t, "food", s.Overview.Categories[0].Key)
	assert.Equal(t, "75%", s.Overview.Categories[0].Percent)
	assert.Equal(t, "car", s.Overview.Categories[1].Key)
	assert.Equal(t, "25%", s.Overview.Categories[1].Percent)
}

func TestTransactionService_Import(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", validTx())
	require.NoError(t, err)

	kept := validTx()
	kept.ID = "keep-me"
	imported, err := svc.Import(ctx, "user-1", []core.Transaction{kept, validTx()})
	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, "keep-me", imported[0].ID)
	assert.NotEmpty(t, imported[1].ID)

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, imported, list)
	assert.Len(t, pub.msgs, 1, "imports are not published")
}

func TestTransactionService_ImportIsAllOrNothing(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	original, err := svc.Create(ctx, "user-1", validTx())
	require.NoError(t, err)

	bad := validTx()
	bad.Amount = "-5"
	_, err = svc.Import(ctx, "user-1", []core.Transaction{validTx(), bad})
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	dup := validTx()
	dup.ID = "same"
	_, err = svc.Import(ctx, "user-1", []core.Transaction{dup, dup})
	require.ErrorIs(t, err, storage.ErrDuplicateID)

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []core.Transaction{original}, list)

	_, err = svc.Import(ctx, "", nil)
	require.ErrorIs(t, err, core.ErrEmptyUserID)
}
