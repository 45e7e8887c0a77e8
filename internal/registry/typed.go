package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/Concord/internal/domain"
)

// Имена реестров.
const (
	NameAcceptance = "acceptance"
	NameBooking    = "booking"
	NamePasswords  = "passwords"
	NameEvents     = "events"
	NameRules      = "rules"
)

// --- Acceptance ---

// AcceptanceRegistry — участники, решающие о принятии объекта.
type AcceptanceRegistry struct {
	*Registry[Acceptor]
}

// NewAcceptanceRegistry создаёт пустой реестр.
func NewAcceptanceRegistry() *AcceptanceRegistry {
	return &AcceptanceRegistry{New[Acceptor](NameAcceptance, Named[Acceptor])}
}

// CanAccept опрашивает всех участников. Любой участник может наложить вето;
// пустой реестр принимает всё. Возвращает причины всех отказов.
func (r *AcceptanceRegistry) CanAccept(ctx context.Context, target domain.TargetRef, user domain.User) (bool, []string) {
	var reasons []string
	for _, a := range r.Registered() {
		if ok, reason := a.CanAccept(ctx, target, user); !ok {
			if reason == "" {
				reason = a.Name() + " refused"
			}
			reasons = append(reasons, reason)
		}
	}
	return len(reasons) == 0, reasons
}

// --- Booking ---

// BookingRegistry — участники бронирования. Участник может дополнительно
// реализовывать Reviser; отфильтрованные представления вычисляются при запросе.
type BookingRegistry struct {
	*Registry[Booker]
}

// NewBookingRegistry создаёт пустой реестр.
func NewBookingRegistry() *BookingRegistry {
	return &BookingRegistry{New[Booker](NameBooking, Named[Booker])}
}

// Bookers возвращает всех участников, поддерживающих бронирование.
func (r *BookingRegistry) Bookers() []Booker {
	return r.Registered()
}

// Revisers возвращает участников, поддерживающих пересмотр.
func (r *BookingRegistry) Revisers() []Reviser {
	var out []Reviser
	for _, b := range r.Registered() {
		if rv, ok := b.(Reviser); ok {
			out = append(out, rv)
		}
	}
	return out
}

// CanBook — бронирование разрешено, если есть хотя бы один участник
// и ни один не отказал.
func (r *BookingRegistry) CanBook(ctx context.Context, target domain.TargetRef, user domain.User) bool {
	bookers := r.Bookers()
	if len(bookers) == 0 {
		return false
	}
	for _, b := range bookers {
		if !b.CanBook(ctx, target, user) {
			return false
		}
	}
	return true
}

// CanRevise — пересмотр разрешён, если есть хотя бы один Reviser
// и ни один не отказал.
func (r *BookingRegistry) CanRevise(ctx context.Context, target domain.TargetRef, user domain.User) bool {
	revisers := r.Revisers()
	if len(revisers) == 0 {
		return false
	}
	for _, rv := range revisers {
		if !rv.CanRevise(ctx, target, user) {
			return false
		}
	}
	return true
}

// PostRevise вызывает хуки всех Reviser'ов и объединяет ошибки.
func (r *BookingRegistry) PostRevise(ctx context.Context, inst *domain.WorkflowInstance, user domain.User) error {
	var errs []error
	for _, rv := range r.Revisers() {
		if err := rv.PostRevise(ctx, inst, user); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rv.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// --- Passwords ---

// PasswordRegistry — политики паролей.
type PasswordRegistry struct {
	*Registry[PasswordValidator]
}

// NewPasswordRegistry создаёт пустой реестр.
func NewPasswordRegistry() *PasswordRegistry {
	return &PasswordRegistry{New[PasswordValidator](NamePasswords, Named[PasswordValidator])}
}

// Validate применяет все политики и возвращает объединённые нарушения.
func (r *PasswordRegistry) Validate(user domain.User, password string) error {
	var errs []error
	for _, v := range r.Registered() {
		if err := v.ValidatePassword(user, password); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// --- Events ---

// EventRegistry — получатели событий ядра.
type EventRegistry struct {
	*Registry[EventPublisher]
}

// NewEventRegistry создаёт пустой реестр.
func NewEventRegistry() *EventRegistry {
	return &EventRegistry{New[EventPublisher](NameEvents, Named[EventPublisher])}
}

// Publish рассылает событие всем участникам. Ошибка одного получателя
// не мешает доставке остальным.
func (r *EventRegistry) Publish(ctx context.Context, ev domain.Event) error {
	var errs []error
	for _, p := range r.Registered() {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("publish to %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// --- Rules ---

// RuleResult — результат правила вместе с его именем.
type RuleResult struct {
	Rule string
	RuleOutcome
}

// RuleRegistry — бизнес-правила для работы validation.
type RuleRegistry struct {
	*Registry[Rule]
}

// NewRuleRegistry создаёт пустой реестр.
func NewRuleRegistry() *RuleRegistry {
	return &RuleRegistry{New[Rule](NameRules, Named[Rule])}
}

// EvaluateAll применяет все правила по порядку регистрации.
// Ошибка правила прерывает прогон: результат был бы неполным.
func (r *RuleRegistry) EvaluateAll(ctx context.Context, target domain.TargetRef) ([]RuleResult, error) {
	rules := r.Registered()
	results := make([]RuleResult, 0, len(rules))
	for _, rule := range rules {
		outcome, err := rule.Evaluate(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		results = append(results, RuleResult{Rule: rule.Name(), RuleOutcome: outcome})
	}
	return results, nil
}
