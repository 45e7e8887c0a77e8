package registry

import (
	"context"

	"github.com/shaiso/Concord/internal/domain"
)

// Participant — общий контракт всех участников: имя для логов и API.
type Participant interface {
	Name() string
}

// Acceptor решает, может ли объект быть принят.
type Acceptor interface {
	Participant

	// CanAccept возвращает false и причину, если участник отказывает.
	CanAccept(ctx context.Context, target domain.TargetRef, user domain.User) (bool, string)
}

// Booker — участник, поддерживающий бронирование.
type Booker interface {
	Participant

	CanBook(ctx context.Context, target domain.TargetRef, user domain.User) bool
}

// Reviser — участник, поддерживающий бронирование и его пересмотр.
type Reviser interface {
	Booker

	CanRevise(ctx context.Context, target domain.TargetRef, user domain.User) bool

	// PostRevise вызывается после применения пересмотра внутри критической секции.
	PostRevise(ctx context.Context, inst *domain.WorkflowInstance, user domain.User) error
}

// BaseReviser — реализация хуков пересмотра по умолчанию (ничего не делают).
// Встраивается в Booker, которому нужна только часть хуков.
type BaseReviser struct{}

// CanRevise по умолчанию запрещает пересмотр.
func (BaseReviser) CanRevise(context.Context, domain.TargetRef, domain.User) bool { return false }

// PostRevise по умолчанию ничего не делает.
func (BaseReviser) PostRevise(context.Context, *domain.WorkflowInstance, domain.User) error {
	return nil
}

// PasswordValidator проверяет пароль пользователя.
type PasswordValidator interface {
	Participant

	ValidatePassword(user domain.User, password string) error
}

// EventPublisher получает события ядра.
type EventPublisher interface {
	Participant

	Publish(ctx context.Context, ev domain.Event) error
}

// RuleOutcome — результат применения правила.
type RuleOutcome struct {
	Passed  bool
	Message string
}

// Rule — бизнес-правило, применяемое к объекту работой validation.
type Rule interface {
	Participant

	Evaluate(ctx context.Context, target domain.TargetRef) (RuleOutcome, error)
}

// Named — предикат по умолчанию: участник обязан иметь непустое имя.
func Named[T Participant](p T) error {
	if p.Name() == "" {
		return ErrUnnamedParticipant
	}
	return nil
}
