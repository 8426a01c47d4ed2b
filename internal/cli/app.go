// Package cli wires configuration, storage and services for the
// gofinances commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gofinances/internal/amqp"
	"gofinances/internal/auth"
	"gofinances/internal/cache"
	"gofinances/internal/config"
	"gofinances/internal/core"
	applog "gofinances/internal/log"
	"gofinances/internal/services"
	"gofinances/internal/storage"
	"gofinances/internal/storage/memory"
)

// App holds the wired collaborators shared by every command.
type App struct {
	Config       *config.Config
	Logger       *applog.Logger
	Store        storage.Store
	Transactions *services.TransactionService
	Users        *storage.UserRepository
	Session      *auth.Session
	AMQP         *amqp.Client
	Caches       *cache.Manager

	closers []io.Closer
}

// SetupLogger builds the process logger from config and makes it the default.
func SetupLogger(cfg *config.Config, out io.Writer) *applog.Logger {
	lc := applog.DefaultConfig()
	lc.Level = applog.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	if out != nil {
		lc.Output = out
	}
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Options selects the optional parts of the wiring.
type Options struct {
	// WithAMQP dials the broker when AMQP_URL is set.
	WithAMQP bool
}

// Bootstrap opens storage and builds the services described by cfg.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *applog.Logger, opts Options) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.Store = store
	if c, ok := store.(io.Closer); ok {
		app.closers = append(app.closers, c)
	}

	txCache := cache.NewLRUCache[[]core.Transaction](cfg.CacheSize, cfg.CacheTTL)
	app.Caches = cache.NewManager(logger)
	app.Caches.Register(txCache)

	if opts.WithAMQP && cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// transactions are still saved locally
			logger.WarnContext(ctx, "AMQP unavailable, publishing disabled", applog.FieldError, err)
		} else {
			app.AMQP = client
			app.closers = append(app.closers, client)
		}
	}

	repo := storage.NewTransactionRepository(store, txCache, logger)
	var publisher services.Publisher
	if app.AMQP != nil {
		publisher = app.AMQP
	}
	app.Transactions = services.NewTransactionService(repo, publisher, cfg.Location(), logger)

	app.Users = storage.NewUserRepository(store)
	var google *auth.GoogleProvider
	if cfg.GoogleEnabled() {
		google = auth.NewGoogleProvider(auth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
	}
	app.Session = auth.NewSession(app.Users, google, logger)
	if _, err := app.Session.Load(ctx); err != nil {
		app.Close()
		return nil, err
	}

	logger.LogOp(ctx, applog.OpStartup, nil, "backend", cfg.DataBackend, "amqp", app.AMQP != nil)
	return app, nil
}

func openStore(cfg *config.Config, logger *applog.Logger) (storage.Store, error) {
	switch cfg.DataBackend {
	case "sqlite":
		s, err := storage.NewSQLiteStore(cfg.SQLiteDBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	default:
		if cfg.MemorySeedFile == "" {
			return memory.New(), nil
		}
		s, err := memory.NewFromFile(cfg.MemorySeedFile)
		if err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		return s, nil
	}
}

// Close stops cache cleanup and releases storage and broker connections.
func (a *App) Close() {
	if a.Caches != nil {
		a.Caches.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.Logger.Error("Close failed", applog.FieldError, err)
		}
	}
	a.closers = nil
}

// ResolveUser returns id, or the signed-in user's id when id is empty.
func (a *App) ResolveUser(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	u, err := a.Session.Current()
	if err != nil {
		return "", fmt.Errorf("no --user given and %w", err)
	}
	return u.ID, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// ParseMonth reads a YYYY-MM flag value as mid-month noon in loc. An empty
// value means the current month.
func ParseMonth(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if s == "" {
		now = now.In(loc)
		return time.Date(now.Year(), now.Month(), 15, 12, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation("2006-01", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return time.Date(t.Year(), t.Month(), 15, 12, 0, 0, 0, loc), nil
}
