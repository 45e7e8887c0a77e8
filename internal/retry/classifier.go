// Package retry классифицирует ошибки для решения о повторе.
//
// Повтор имеет смысл только для временной конкуренции за блокировки:
// дедлоков, таймаутов ожидания, занятой SQLite-базы. Всё остальное
// считается детерминированным отказом.
package retry

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// contentionSignatures — подстроки сообщений драйверов (MySQL, PostgreSQL, SQLite),
// означающие конкуренцию за блокировки. Сравнение регистронезависимое.
var contentionSignatures = []string{
	"deadlock found",
	"lock wait timeout exceeded",
	"deadlock detected",
	"database is locked",
	"database table is locked",
}

// SQLSTATE коды PostgreSQL.
const (
	pgDeadlockDetected = "40P01"
	pgLockNotAvailable = "55P03"
)

// Class — класс ошибки для логов и меток метрик.
type Class string

const (
	// ClassNone — ошибки нет.
	ClassNone Class = "none"

	// ClassContention — временная конкуренция, повтор допустим.
	ClassContention Class = "contention"

	// ClassFailure — детерминированный отказ.
	ClassFailure Class = "failure"
)

// IsRetryableContention возвращает true, если ошибка — временная
// конкуренция за блокировку. Чистая функция.
func IsRetryableContention(err error) bool {
	if err == nil {
		return false
	}

	var ce *ContentionError
	if errors.As(err, &ce) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range contentionSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Classify возвращает класс ошибки.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassNone
	case IsRetryableContention(err):
		return ClassContention
	default:
		return ClassFailure
	}
}
