package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gofinances/internal/amqp"
	"gofinances/internal/core"
	applog "gofinances/internal/log"
	"gofinances/internal/storage"
)

// Publisher announces recorded transactions. *amqp.Client satisfies it.
type Publisher interface {
	PublishTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error
}

// TransactionService orchestrates transaction operations across storage and AMQP.
type TransactionService struct {
	repo      *storage.TransactionRepository
	publisher Publisher
	loc       *time.Location
	logger    *applog.Logger
	now       func() time.Time
}

// NewTransactionService wires the service. publisher may be nil; loc
// defaults to UTC.
func NewTransactionService(repo *storage.TransactionRepository, publisher Publisher, loc *time.Location, logger *applog.Logger) *TransactionService {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionService{
		repo:      repo,
		publisher: publisher,
		loc:       loc,
		logger:    logger.WithComponent(applog.ComponentTransaction),
		now:       time.Now,
	}
}

// Location is the zone used to decide days and months.
func (s *TransactionService) Location() *time.Location {
	return s.loc
}

// Create appends tx to the user's list and publishes a notification. A
// missing date is set to now.
func (s *TransactionService) Create(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	if tx.Date == "" {
		tx.Date = s.now().In(s.loc).Format(time.RFC3339)
	}

	saved, err := s.repo.Append(ctx, userID, tx)
	s.logger.LogOp(ctx, applog.OpCreate, err, applog.FieldUserID, userID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publish(ctx, userID, saved); err != nil {
		// saved locally; notification is best effort
		s.logger.LogOp(ctx, applog.OpPublish, err, applog.FieldUserID, userID, applog.FieldTxID, saved.ID)
	}
	return saved, nil
}

func (s *TransactionService) publish(ctx context.Context, userID string, tx core.Transaction) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping transaction message")
		return nil
	}
	msg := amqp.NewTransactionRecordedMessage(userID, tx.ID, string(tx.Type), tx.Category, tx.Amount)
	return s.publisher.PublishTransactionRecorded(ctx, msg)
}

func (s *TransactionService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	list, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return list, nil
}

// Summary loads the user's transactions and aggregates them for the month
// containing ref.
func (s *TransactionService) Summary(ctx context.Context, userID string, ref time.Time) (core.Summary, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return core.Summary{}, err
	}
	summary := Aggregate(list, ref, WithLocation(s.loc))
	s.logger.DebugContext(ctx, "Summary computed",
		applog.FieldUserID, userID,
		applog.FieldCount, len(list),
		applog.FieldYear, summary.Overview.Year,
		applog.FieldMonth, summary.Overview.Month)
	return summary, nil
}

// Import replaces the user's whole list with list. Every record is
// validated and given an id when it has none; ids must be unique. Nothing
// is written if any record fails. Imports are not published.
func (s *TransactionService) Import(ctx context.Context, userID string, list []core.Transaction) ([]core.Transaction, error) {
	if userID == "" {
		return nil, core.ErrEmptyUserID
	}
	out := make([]core.Transaction, len(list))
	seen := make(map[string]struct{}, len(list))
	for i, tx := range list {
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		if _, dup := seen[tx.ID]; dup {
			return nil, fmt.Errorf("record %d: %w: %s", i, storage.ErrDuplicateID, tx.ID)
		}
		seen[tx.ID] = struct{}{}
		out[i] = tx
	}

	err := s.repo.Replace(ctx, userID, out)
	s.logger.LogOp(ctx, applog.OpImport, err, applog.FieldUserID, userID, applog.FieldCount, len(out))
	if err != nil {
		return nil, fmt.Errorf("import transactions: %w", err)
	}
	return out, nil
}

// Clear removes every transaction of the user.
func (s *TransactionService) Clear(ctx context.Context, userID string) error {
	err := s.repo.Clear(ctx, userID)
	s.logger.LogOp(ctx, applog.OpDelete, err, applog.FieldUserID, userID)
	return err
}
