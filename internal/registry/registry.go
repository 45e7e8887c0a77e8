package registry

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Predicate — проверка участника при регистрации.
// nil-ошибка означает, что участник удовлетворяет контракту реестра.
type Predicate[T any] func(T) error

// Registry — именованное множество участников с проверкой при регистрации.
//
// Итерация сохраняет порядок регистрации. Дубликатов нет: повторная
// регистрация того же значения ничего не меняет. Потокобезопасен.
type Registry[T comparable] struct {
	name  string
	valid Predicate[T]

	mu      sync.RWMutex
	entries []T
	index   map[T]struct{}
}

// New создаёт пустой реестр. valid может быть nil — тогда принимается
// любой не-nil участник.
func New[T comparable](name string, valid Predicate[T]) *Registry[T] {
	return &Registry[T]{
		name:  name,
		valid: valid,
		index: make(map[T]struct{}),
	}
}

// Name возвращает имя реестра.
func (r *Registry[T]) Name() string {
	return r.name
}

// Register проверяет участника предикатом и добавляет его в реестр.
//
// Возвращает *ValidationError, если участник nil, несравним, отклонён
// предикатом или предикат запаниковал. В этом случае реестр не меняется.
func (r *Registry[T]) Register(p T) error {
	if isNil(p) {
		return r.reject(p, ErrNilParticipant)
	}
	if err := r.check(p); err != nil {
		return r.reject(p, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	exists, err := lookup(r.index, p)
	if err != nil {
		return r.reject(p, err)
	}
	if exists {
		return nil
	}

	r.index[p] = struct{}{}
	r.entries = append(r.entries, p)
	return nil
}

// MustRegister регистрирует участников и возвращает реестр для цепочки вызовов.
// Паникует на первом отклонённом участнике: используется только при сборке
// статической конфигурации.
func (r *Registry[T]) MustRegister(ps ...T) *Registry[T] {
	for _, p := range ps {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

// Remove удаляет участника. Отсутствующий участник игнорируется.
func (r *Registry[T]) Remove(p T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exists, err := lookup(r.index, p)
	if err != nil || !exists {
		return
	}

	delete(r.index, p)
	if i := slices.Index(r.entries, p); i >= 0 {
		r.entries = slices.Delete(r.entries, i, i+1)
	}
}

// Clear удаляет всех участников.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.index = make(map[T]struct{})
}

// Registered возвращает копию списка участников в порядке регистрации.
// Изменение копии не влияет на реестр.
func (r *Registry[T]) Registered() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, len(r.entries))
	copy(out, r.entries)
	return out
}

// Contains проверяет, зарегистрирован ли участник.
func (r *Registry[T]) Contains(p T) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exists, err := lookup(r.index, p)
	return err == nil && exists
}

// Len возвращает количество участников.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// check вызывает предикат, превращая панику в ошибку.
func (r *Registry[T]) check(p T) (err error) {
	if r.valid == nil {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrPredicatePanicked, rec)
		}
	}()

	return r.valid(p)
}

func (r *Registry[T]) reject(p T, err error) *ValidationError {
	return &ValidationError{Registry: r.name, Participant: p, Err: err}
}

// lookup ищет участника в индексе. Интерфейсный ключ с несравнимым
// динамическим типом паникует при хешировании — возвращаем ErrNotComparable.
func lookup[T comparable](index map[T]struct{}, p T) (exists bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrNotComparable, rec)
		}
	}()

	_, exists = index[p]
	return exists, nil
}

// isNil проверяет как nil-интерфейс, так и типизированный nil внутри интерфейса.
func isNil(p any) bool {
	if p == nil {
		return true
	}

	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
