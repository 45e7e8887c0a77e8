package domain

import (
	"fmt"
	"strings"
)

// TargetRef — ссылка на бизнес-объект, над которым выполняется работа.
//
// Строковая форма: "Type#ID", например "Order#42".
// Используется как ключ мьютекса и как субъект для бизнес-логики.
type TargetRef struct {
	// Type — тип объекта (Order, Shipment, Entry...).
	Type string `json:"type"`

	// ID — идентификатор объекта внутри типа.
	ID string `json:"id"`
}

// NewTargetRef создаёт TargetRef.
func NewTargetRef(targetType, id string) TargetRef {
	return TargetRef{Type: targetType, ID: id}
}

// String возвращает каноническую форму "Type#ID".
func (t TargetRef) String() string {
	return t.Type + "#" + t.ID
}

// IsZero возвращает true, если ссылка не заполнена.
func (t TargetRef) IsZero() bool {
	return t.Type == "" && t.ID == ""
}

// Validate проверяет, что ссылка пригодна для использования в ключах.
func (t TargetRef) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("%w: empty type", ErrInvalidTarget)
	}
	if t.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTarget)
	}
	if strings.Contains(t.Type, "#") {
		return fmt.Errorf("%w: type %q contains '#'", ErrInvalidTarget, t.Type)
	}
	return nil
}

// ParseTargetRef разбирает строку вида "Type#ID".
// ID может содержать '#', тип — нет.
func ParseTargetRef(s string) (TargetRef, error) {
	typ, id, ok := strings.Cut(s, "#")
	if !ok {
		return TargetRef{}, fmt.Errorf("%w: %q is not in Type#ID form", ErrInvalidTarget, s)
	}
	t := TargetRef{Type: typ, ID: id}
	if err := t.Validate(); err != nil {
		return TargetRef{}, err
	}
	return t, nil
}
