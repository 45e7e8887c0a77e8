// Package lock описывает распределённый мьютекс и его реализации.
//
// Контракт: WithLock блокируется, пока ключ не захвачен эксклюзивно
// (в пределах всех процессов для распределённых реализаций), выполняет fn
// и освобождает блокировку на любом пути выхода, включая панику в fn.
//
// Реализации:
//   - Memory   — ключевой мьютекс внутри процесса (один процесс, тесты)
//   - Advisory — сессионные advisory-блокировки PostgreSQL
//
// Row-блокировки (RowLocker) сужают эксклюзивность до одной транзакции над
// записью; реализации живут в пакетах хранилищ (repo.RowLocks) и в Keyed.
package lock

import (
	"context"
	"fmt"

	"github.com/shaiso/Concord/internal/domain"
)

// Mode — режим блокировки.
type Mode int

const (
	// Temporary — запись о блокировке удаляется после освобождения.
	Temporary Mode = iota

	// Persistent — после освобождения остаётся запись аудита.
	Persistent
)

// String возвращает имя режима.
func (m Mode) String() string {
	switch m {
	case Temporary:
		return "temporary"
	case Persistent:
		return "persistent"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Locker — именованная блокирующая взаимоисключающая блокировка.
type Locker interface {
	// WithLock выполняет fn, удерживая блокировку key.
	// Возвращает ошибку fn, ошибку захвата или *retry.ContentionError,
	// если ожидание превысило лимит.
	WithLock(ctx context.Context, key string, mode Mode, fn func(ctx context.Context) error) error
}

// RowLocker — эксклюзивность в пределах одной транзакции над объектом.
// fn выполняется внутри транзакции: успех фиксирует её, ошибка откатывает.
type RowLocker interface {
	WithRowLock(ctx context.Context, target domain.TargetRef, fn func(ctx context.Context) error) error
}

// Transactor выполняет fn в транзакции, переданной через контекст.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Do — форма WithLock, возвращающая результат fn.
func Do[R any](ctx context.Context, l Locker, key string, mode Mode, fn func(ctx context.Context) (R, error)) (R, error) {
	var result R
	err := l.WithLock(ctx, key, mode, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return result, nil
}

// RowKey возвращает ключ row-блокировки объекта.
func RowKey(target domain.TargetRef) string {
	return "row:" + target.String()
}

// Keyed — RowLocker поверх произвольного Locker и Transactor:
// сначала ключ объекта, затем транзакция.
type Keyed struct {
	Locker Locker
	Tx     Transactor
}

// WithRowLock реализует RowLocker.
func (k Keyed) WithRowLock(ctx context.Context, target domain.TargetRef, fn func(ctx context.Context) error) error {
	return k.Locker.WithLock(ctx, RowKey(target), Temporary, func(ctx context.Context) error {
		return k.Tx.WithinTx(ctx, fn)
	})
}
