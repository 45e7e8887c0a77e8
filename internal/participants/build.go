package participants

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shaiso/Concord/internal/registry"
)

// Spec — описание участника в конфигурации.
type Spec struct {
	Kind    string   `mapstructure:"kind" yaml:"kind"`
	Name    string   `mapstructure:"name" yaml:"name"`
	Role    string   `mapstructure:"role" yaml:"role"`
	Min     int      `mapstructure:"min" yaml:"min"`
	Types   []string `mapstructure:"types" yaml:"types"`
	Pattern string   `mapstructure:"pattern" yaml:"pattern"`
}

// Options — зависимости, которые нельзя описать в конфигурации.
type Options struct {
	Logger *slog.Logger

	// AMQP — получатель для вида "amqp"; nil, если RabbitMQ выключен.
	AMQP registry.EventPublisher
}

// Build создаёт каталог и регистрирует в нём участников по порядку specs.
// Ошибка любого участника прерывает сборку: реестры проверяются на старте.
func Build(specs []Spec, opts Options) (*registry.Catalog, error) {
	c := registry.NewCatalog()
	if err := Populate(c, specs, opts); err != nil {
		return nil, err
	}
	return c, nil
}

// Populate регистрирует участников в существующем каталоге.
func Populate(c *registry.Catalog, specs []Spec, opts Options) error {
	for i, s := range specs {
		if err := register(c, s, opts); err != nil {
			return fmt.Errorf("participant #%d (%s): %w", i, s.Kind, err)
		}
	}
	return nil
}

func register(c *registry.Catalog, s Spec, opts Options) error {
	switch strings.ToLower(s.Kind) {
	case "role":
		if s.Role == "" {
			return fmt.Errorf("%w: role is required", ErrInvalidSpec)
		}
		g := NewRoleGate(s.Name, s.Role)
		if err := c.Acceptance.Register(g); err != nil {
			return err
		}
		return c.Booking.Register(g)

	case "role_reviser":
		if s.Role == "" {
			return fmt.Errorf("%w: role is required", ErrInvalidSpec)
		}
		return c.Booking.Register(NewRoleReviser(s.Name, s.Role))

	case "min_length":
		if s.Min <= 0 {
			return fmt.Errorf("%w: min must be positive", ErrInvalidSpec)
		}
		return c.Passwords.Register(NewMinLength(s.Min))

	case "not_username":
		return c.Passwords.Register(NotUsername{})

	case "char_classes":
		if s.Min <= 0 || s.Min > 4 {
			return fmt.Errorf("%w: min must be between 1 and 4", ErrInvalidSpec)
		}
		return c.Passwords.Register(NewCharClasses(s.Min))

	case "log":
		return c.Events.Register(NewLogPublisher(opts.Logger))

	case "amqp":
		if opts.AMQP == nil {
			return ErrAMQPUnavailable
		}
		return c.Events.Register(opts.AMQP)

	case "target_type":
		if len(s.Types) == 0 {
			return fmt.Errorf("%w: types are required", ErrInvalidSpec)
		}
		return c.Rules.Register(NewTargetTypeRule(s.Name, s.Types))

	case "id_pattern":
		rule, err := NewIDPatternRule(s.Name, s.Pattern)
		if err != nil {
			return err
		}
		return c.Rules.Register(rule)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
}

// Defaults — участники для запуска без конфигурации.
func Defaults() []Spec {
	return []Spec{
		{Kind: "min_length", Min: 8},
		{Kind: "not_username"},
		{Kind: "log"},
	}
}
