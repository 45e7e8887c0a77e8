package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Concord/internal/runner"
)

// ErrBusy — предыдущий проход ещё выполняется.
var ErrBusy = errors.New("batch pass already running")

// BatchRunner — то, что запускает планировщик.
type BatchRunner interface {
	RunDueWork(ctx context.Context, now time.Time) (runner.Summary, error)
}

// Scheduler запускает проходы исполнителя по расписанию и по запросу.
type Scheduler struct {
	runner BatchRunner
	spec   string
	logger *slog.Logger
	now    func() time.Time

	running sync.Mutex
	nudges  chan struct{}
}

// Config — конфигурация Scheduler.
type Config struct {
	Runner BatchRunner

	// Spec — расписание (cron или @every). По умолчанию: @every 1m.
	Spec string

	Logger *slog.Logger

	// Now — источник времени (для тестов).
	Now func() time.Time
}

// New создаёт Scheduler. Некорректное расписание — ошибка конфигурации.
func New(cfg Config) (*Scheduler, error) {
	spec := cfg.Spec
	if spec == "" {
		spec = "@every 1m"
	}
	if err := ValidateSpec(spec); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		runner: cfg.Runner,
		spec:   spec,
		logger: logger.With("component", "scheduler"),
		now:    now,
		nudges: make(chan struct{}, 1),
	}, nil
}

// Tick выполняет один проход. Если проход уже идёт, возвращает ErrBusy.
func (s *Scheduler) Tick(ctx context.Context) (runner.Summary, error) {
	if !s.running.TryLock() {
		return runner.Summary{}, ErrBusy
	}
	defer s.running.Unlock()

	return s.runner.RunDueWork(ctx, s.now())
}

// Nudge запрашивает внеочередной проход. Не блокирует; запросы,
// пришедшие до начала прохода, схлопываются в один.
func (s *Scheduler) Nudge() {
	select {
	case s.nudges <- struct{}{}:
	default:
	}
}

// Run выполняет проходы по расписанию и по Nudge до отмены ctx.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{logger: s.logger}

	c := cron.New(
		cron.WithParser(specParser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(s.spec, func() { s.pass(ctx, "schedule") }); err != nil {
		return err
	}

	s.logger.Info("scheduler started", "spec", s.spec)
	c.Start()

	for {
		select {
		case <-ctx.Done():
			<-c.Stop().Done()
			s.logger.Info("scheduler stopped")
			return nil
		case <-s.nudges:
			s.pass(ctx, "nudge")
		}
	}
}

// pass выполняет проход и логирует результат; ошибки не прерывают Run.
func (s *Scheduler) pass(ctx context.Context, trigger string) {
	summary, err := s.Tick(ctx)
	switch {
	case errors.Is(err, ErrBusy):
		s.logger.Debug("pass skipped, previous still running", "trigger", trigger)
	case err != nil && ctx.Err() == nil:
		s.logger.Error("pass failed", "trigger", trigger, "error", err)
	case err == nil && summary.Due > 0:
		s.logger.Debug("pass completed", "trigger", trigger, "due", summary.Due)
	}
}
