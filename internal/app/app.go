// Package app собирает компоненты Concord из конфигурации.
//
// Выбор хранилища и мьютекса:
//
//	database.driver=postgres, lock.backend=advisory — несколько процессов
//	database.driver=postgres, lock.backend=memory   — один процесс
//	database.driver=sqlite,   lock.backend=memory   — один процесс, без сервера БД
//
// Row-блокировки работ берутся через pg_advisory_xact_lock (postgres) или
// внутрипроцессный мьютекс хранилища (sqlite).
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/Concord/internal/api"
	"github.com/shaiso/Concord/internal/config"
	"github.com/shaiso/Concord/internal/lock"
	"github.com/shaiso/Concord/internal/mq"
	"github.com/shaiso/Concord/internal/participants"
	"github.com/shaiso/Concord/internal/registry"
	"github.com/shaiso/Concord/internal/repo"
	"github.com/shaiso/Concord/internal/repo/sqlite"
	"github.com/shaiso/Concord/internal/runner"
	"github.com/shaiso/Concord/internal/telemetry"
	"github.com/shaiso/Concord/internal/validation"
	"github.com/shaiso/Concord/internal/webhook"
	"github.com/shaiso/Concord/internal/workflows"
)

// Store — операции хранилища, нужные сервисам. Реализуется repo.Store
// и sqlite.Store.
type Store interface {
	api.WorkItemStore
	api.WorkflowReader
	api.TargetStore
	api.ResultReader
	runner.WorkSource
	runner.FailureRecorder
	runner.WorkflowStore
	lock.Transactor
	validation.ResultStore
}

// App — собранные компоненты одного процесса.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Store    Store
	Rows     lock.RowLocker
	Locker   lock.Locker
	Catalog  *registry.Catalog
	Deciders *workflows.Set

	Workflows *runner.WorkflowRunner
	Batch     *runner.BatchRunner

	// MQ и Publisher — nil, если RabbitMQ выключен.
	MQ        *mq.Connection
	Publisher *mq.Publisher

	Tracing *telemetry.TracerProvider

	closers []func() error
}

// New собирает App. service — имя процесса для трассировки
// (api, runner, ...). При ошибке уже открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, service string) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	if cfg.RabbitMQ.Enabled {
		if err := a.openMQ(ctx); err != nil {
			logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		}
	}

	if err := a.buildCatalog(); err != nil {
		return nil, err
	}

	a.Tracing, err = telemetry.NewTracerProvider(ctx, cfg.TracingSettings(service))
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	a.closers = append(a.closers, func() error { return a.Tracing.Shutdown(context.Background()) })

	a.Deciders = workflows.Default(a.Catalog)

	a.Workflows = runner.NewWorkflowRunner(runner.WorkflowConfig{
		Locker:    a.Locker,
		Tx:        a.Store,
		Workflows: a.Store,
		Events:    a.Catalog.Events,
		Tracer:    a.Tracing.Tracer(),
		Logger:    logger,
	})

	works := runner.NewWorkSet(validation.New(validation.Config{
		Rules:   a.Catalog.Rules,
		Results: a.Store,
		Logger:  logger,
	}))
	for _, wc := range cfg.Webhooks {
		w, err := webhook.New(wc, nil, logger)
		if err != nil {
			return nil, err
		}
		works.Register(w)
	}
	logger.Info("work kinds registered", "kinds", works.Kinds())

	a.Batch = runner.NewBatchRunner(runner.BatchConfig{
		Source:     a.Store,
		Failures:   a.Store,
		Targets:    a.Store,
		Rows:       a.Rows,
		Works:      works,
		Events:     a.Catalog.Events,
		BatchSize:  cfg.Runner.BatchSize,
		AlertAfter: cfg.Runner.AlertAfter,
		Tracer:     a.Tracing.Tracer(),
		Logger:     logger,
	})

	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config

	switch cfg.Database.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, store.Close)

		if len(cfg.Targets) > 0 {
			a.Logger.Warn("target tables are ignored by the sqlite store", "count", len(cfg.Targets))
		}

		a.Locker = lock.NewMemory(lock.MemoryConfig{WaitTimeout: cfg.Lock.WaitTimeout})
		a.Store = store.WithLocker(a.Locker)
		a.Rows = store
		a.Logger.Info("opened sqlite store", "path", cfg.Database.Path)
		return nil

	case config.DriverPostgres:
		pool, err := repo.NewPool(ctx, repo.PoolConfig{DSN: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })

		if err := repo.EnsureSchema(ctx, pool); err != nil {
			return err
		}

		store, err := repo.NewStore(pool, cfg.TargetTables())
		if err != nil {
			return err
		}
		a.Store = store
		a.Rows = repo.NewRowLocks(pool, cfg.Lock.WaitTimeout)

		if cfg.Lock.Backend == config.LockAdvisory {
			a.Locker = lock.NewAdvisory(lock.AdvisoryConfig{
				Pool:        pool,
				WaitTimeout: cfg.Lock.WaitTimeout,
				Logger:      a.Logger,
			})
		} else {
			a.Locker = lock.NewMemory(lock.MemoryConfig{WaitTimeout: cfg.Lock.WaitTimeout})
		}
		a.Logger.Info("connected to database", "lock_backend", cfg.Lock.Backend)
		return nil

	default:
		return fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Database.Driver)
	}
}

func (a *App) openMQ(ctx context.Context) error {
	conn, err := mq.NewConnection(a.Config.RabbitMQ.URL, a.Logger)
	if err != nil {
		return fmt.Errorf("rabbitmq: %w", err)
	}
	if err := mq.SetupTopology(ctx, conn); err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq topology: %w", err)
	}
	a.closers = append(a.closers, conn.Close)

	a.MQ = conn
	a.Publisher = mq.NewPublisher(conn, a.Logger)
	a.Logger.Info("connected to rabbitmq")
	return nil
}

func (a *App) buildCatalog() error {
	specs := a.Config.Participants
	if len(specs) == 0 {
		specs = participants.Defaults()
	}

	opts := participants.Options{Logger: a.Logger}
	if a.Publisher != nil {
		opts.AMQP = mq.NewEventSink(a.Publisher)
	}

	catalog, err := participants.Build(specs, opts)
	if err != nil {
		return fmt.Errorf("participants: %w", err)
	}
	a.Catalog = catalog

	for _, s := range catalog.Summaries() {
		a.Logger.Debug("registry populated", "registry", s.Name, "participants", s.Participants)
	}
	return nil
}

// APIHandler собирает HTTP-обработчик над компонентами App.
func (a *App) APIHandler() *api.Handler {
	cfg := api.Config{
		WorkItems: a.Store,
		Workflows: a.Store,
		Targets:   a.Store,
		Results:   a.Store,
		Batch:     a.Batch,
		Updater:   a.Workflows,
		Deciders:  a.Deciders,
		Catalog:   a.Catalog,
		Logger:    a.Logger,
	}
	if a.Publisher != nil {
		cfg.Nudger = a.Publisher
	}
	return api.NewHandler(cfg)
}

// Close освобождает ресурсы в обратном порядке открытия.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
