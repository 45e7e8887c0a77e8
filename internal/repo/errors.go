package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — запись уже существует (конфликт уникальности).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnknownTargetType — для типа объекта не настроено хранилище.
	ErrUnknownTargetType = errors.New("unknown target type")

	// ErrInvalidTable — имя таблицы объектов некорректно.
	ErrInvalidTable = errors.New("invalid target table name")
)
