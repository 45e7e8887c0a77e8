package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Concord/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second

	// maxErrorBody — сколько байт тела ответа попадает в ошибку.
	maxErrorBody = 512
)

// Config — конфигурация одного webhook.
type Config struct {
	// Kind — вид работ, который обслуживает webhook.
	Kind string `mapstructure:"kind"`

	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`

	// Timeout — таймаут запроса. По умолчанию: 30s.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Validate проверяет конфигурацию.
func (c Config) Validate() error {
	if c.Kind == "" {
		return fmt.Errorf("%w: kind is required", ErrInvalidConfig)
	}
	if c.Kind == domain.WorkKindValidation {
		return fmt.Errorf("%w: kind %q is reserved", ErrInvalidConfig, c.Kind)
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s: url must be absolute http(s)", ErrInvalidConfig, c.Kind)
	}
	return nil
}

// Payload — тело запроса.
type Payload struct {
	WorkItemID uuid.UUID        `json:"work_item_id"`
	Kind       string           `json:"kind"`
	Target     domain.TargetRef `json:"target"`
	RunDate    time.Time        `json:"run_date"`
	Attempt    int              `json:"attempt"`
}

// Work — runner.Work, отправляющий webhook.
type Work struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New создаёт Work. client может быть nil — тогда создаётся клиент
// с таймаутом из конфигурации.
func New(cfg Config, client *http.Client, logger *slog.Logger) (*Work, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Work{cfg: cfg, client: client, logger: logger}, nil
}

// Kind реализует runner.Work.
func (w *Work) Kind() string {
	return w.cfg.Kind
}

// Run отправляет webhook для item.
func (w *Work) Run(ctx context.Context, item *domain.ScheduledWorkItem) error {
	body, err := json.Marshal(Payload{
		WorkItemID: item.ID,
		Kind:       item.Kind,
		Target:     item.Target,
		RunDate:    item.RunDate,
		Attempt:    item.Attempts + 1,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for key, value := range w.cfg.Headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", item.ID.String())

	start := time.Now()
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	// Дочитываем тело, чтобы соединение вернулось в пул
	_, _ = io.Copy(io.Discard, resp.Body)

	w.logger.Debug("webhook delivered",
		"kind", w.cfg.Kind,
		"target", item.Target.String(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return nil
}
