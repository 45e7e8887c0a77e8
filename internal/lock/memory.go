package lock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Concord/internal/retry"
)

// Record — запись аудита для блокировок в режиме Persistent.
type Record struct {
	Key            string    `json:"key"`
	Acquisitions   int       `json:"acquisitions"`
	LastAcquiredAt time.Time `json:"last_acquired_at"`
	LastReleasedAt time.Time `json:"last_released_at"`
}

// MemoryConfig — конфигурация Memory.
type MemoryConfig struct {
	// WaitTimeout — максимальное время ожидания (0 — ждать, пока жив ctx).
	WaitTimeout time.Duration

	Logger *slog.Logger
}

// Memory — ключевой мьютекс внутри процесса.
//
// Каждому ключу соответствует канал ёмкости 1 и счётчик ссылок:
// запись удаляется, когда её больше никто не держит и не ждёт.
type Memory struct {
	waitTimeout time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	entries map[string]*memEntry
	records map[string]Record
}

type memEntry struct {
	sem  chan struct{}
	refs int
}

// NewMemory создаёт Memory.
func NewMemory(cfg MemoryConfig) *Memory {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Memory{
		waitTimeout: cfg.WaitTimeout,
		logger:      logger,
		entries:     make(map[string]*memEntry),
		records:     make(map[string]Record),
	}
}

// WithLock реализует Locker.
func (m *Memory) WithLock(ctx context.Context, key string, mode Mode, fn func(ctx context.Context) error) error {
	if key == "" {
		return ErrEmptyKey
	}

	e := m.ref(key)
	defer m.unref(key, e)

	start := time.Now()
	if err := m.acquire(ctx, key, e); err != nil {
		return err
	}
	lockWaitSeconds.WithLabelValues("memory").Observe(time.Since(start).Seconds())

	defer func() {
		if mode == Persistent {
			m.touch(key, func(r *Record) { r.LastReleasedAt = time.Now().UTC() })
		}
		<-e.sem
	}()

	if mode == Persistent {
		m.touch(key, func(r *Record) {
			r.Acquisitions++
			r.LastAcquiredAt = time.Now().UTC()
		})
	}

	return fn(ctx)
}

// acquire ждёт освобождения ключа. ctx управляет только ожиданием.
func (m *Memory) acquire(ctx context.Context, key string, e *memEntry) error {
	waitCtx := ctx
	if m.waitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, m.waitTimeout)
		defer cancel()
	}

	select {
	case e.sem <- struct{}{}:
		return nil
	case <-waitCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		lockContentionTotal.WithLabelValues("memory").Inc()
		m.logger.Debug("lock wait timeout", "key", key, "timeout", m.waitTimeout)
		return &retry.ContentionError{Key: key, Waited: m.waitTimeout}
	}
}

func (m *Memory) ref(key string) *memEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &memEntry{sem: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	return e
}

func (m *Memory) unref(key string, e *memEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}

func (m *Memory) touch(key string, update func(r *Record)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.records[key]
	r.Key = key
	update(&r)
	m.records[key] = r
}

// Records возвращает копию записей аудита Persistent-блокировок.
func (m *Memory) Records() map[string]Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Record, len(m.records))
	for k, v := range m.records {
		out[k] = v
	}
	return out
}

// Held возвращает количество ключей, которые сейчас удерживаются или ожидаются.
func (m *Memory) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
