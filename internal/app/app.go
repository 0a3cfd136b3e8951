// Package app wires the configured store, sender and side channels into a
// dispatcher. Both the HTTP service and the CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studiofisyo/ledger/internal/config"
	"github.com/studiofisyo/ledger/internal/push"
	"github.com/studiofisyo/ledger/internal/registrar"
	"github.com/studiofisyo/ledger/internal/reminder"
	"github.com/studiofisyo/ledger/internal/store"
	"github.com/studiofisyo/ledger/pkg/database"
	"github.com/studiofisyo/ledger/pkg/messaging"
	"github.com/studiofisyo/ledger/pkg/observability"
)

// LockTTL outlives any sane run; a crashed holder frees the lock after it.
const LockTTL = 2 * time.Minute

// Store is what the service needs from persistence.
type Store interface {
	reminder.Store
	registrar.Store
}

type App struct {
	Config     *config.Config
	Store      Store
	Dispatcher *reminder.Dispatcher
	Logger     *observability.Logger

	closers []func() error
}

// Option overrides a wired component, mostly for tests.
type Option func(*App, *deps)

type deps struct {
	store  Store
	sender push.Sender
}

func WithStore(s Store) Option {
	return func(_ *App, d *deps) {
		d.store = s
	}
}

func WithSender(s push.Sender) Option {
	return func(_ *App, d *deps) {
		d.sender = s
	}
}

// New connects every configured backend. Redis and messaging failures only
// degrade the run; a store failure is fatal.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger, opts ...Option) (*App, error) {
	a := &App{Config: cfg, Logger: logger}
	var d deps
	for _, opt := range opts {
		opt(a, &d)
	}

	if d.store == nil {
		s, err := a.openStore(ctx)
		if err != nil {
			return nil, err
		}
		d.store = s
	}
	a.Store = d.store

	if d.sender == nil {
		d.sender = push.NewWebPushSender(cfg.VAPID.VAPID, push.WithTTL(cfg.Dispatch.PushTTL))
	}

	dopts := []reminder.Option{
		reminder.WithLogger(logger),
		reminder.WithConcurrency(cfg.Dispatch.Concurrency),
		reminder.WithMessage(reminder.MessageConfig{Title: cfg.App.Title, BaseURL: cfg.App.BaseURL}),
	}
	if locker := a.openLocker(ctx); locker != nil {
		dopts = append(dopts, reminder.WithLocker(locker))
	}
	if pub := a.openPublisher(); pub != nil {
		dopts = append(dopts, reminder.WithEvents(pub))
	}

	a.Dispatcher = reminder.NewDispatcher(d.store, d.sender, dopts...)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (Store, error) {
	switch a.Config.Store.Driver {
	case config.StoreMemory:
		a.Logger.Warn("Using in-memory store, data is lost on exit")
		return store.NewMemory(), nil
	case config.StorePostgres:
		db, err := database.Connect(ctx, a.Config.Database.DSN, database.Options{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.Logger.Info("Database connection established")
		return store.NewPostgres(db), nil
	default:
		return nil, fmt.Errorf("%w: unknown store.driver %q", config.ErrInvalid, a.Config.Store.Driver)
	}
}

func (a *App) openLocker(ctx context.Context) reminder.Locker {
	if a.Config.Redis.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: a.Config.Redis.Addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		a.Logger.Warn("Redis connection failed, runs rely on appointment claims only", "error", err)
	}
	a.closers = append(a.closers, rdb.Close)
	return reminder.NewRedisLocker(rdb, reminder.DefaultLockKey, LockTTL)
}

func (a *App) openPublisher() reminder.EventPublisher {
	var (
		pub messaging.Publisher
		err error
	)
	switch a.Config.Messaging.Driver {
	case config.MessagingKafka:
		pub = messaging.NewKafkaProducer(a.Config.Kafka.Brokers, a.Config.Kafka.Topic)
	case config.MessagingRabbitMQ:
		pub, err = messaging.NewRabbitPublisher(a.Config.RabbitMQ.URL, a.Config.RabbitMQ.Queue)
		if err != nil {
			a.Logger.Warn("RabbitMQ unavailable, dispatch events disabled", "error", err)
			return nil
		}
	default:
		return nil
	}
	a.closers = append(a.closers, pub.Close)
	a.Logger.Info("Publishing dispatch events", "driver", a.Config.Messaging.Driver)
	return pub
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
