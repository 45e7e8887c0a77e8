// Package registry реализует реестры возможностей (capability registries).
//
// Реестр — именованное множество участников. Каждый участник проверяется
// предикатом при регистрации; непрошедший участник отклоняется синхронно
// с *ValidationError, и реестр остаётся неизменным.
//
// Структура:
//   - registry.go     — обобщённый Registry[T] (Register, Remove, Clear, Registered)
//   - participants.go — интерфейсы участников (Acceptor, Booker, Reviser, ...)
//   - typed.go        — конкретные реестры с операциями над участниками
//   - catalog.go      — Catalog, набор всех реестров процесса
//
// Реестры не хранятся в БД: они собираются из статической конфигурации при
// старте процесса и явно передаются в компоненты (глобальных реестров нет).
//
// Использование:
//
//	catalog := registry.NewCatalog()
//	if err := catalog.Acceptance.Register(participants.NewRoleAcceptor("officer", "compliance")); err != nil {
//	    return err // *registry.ValidationError
//	}
//	ok, reasons := catalog.Acceptance.CanAccept(ctx, target, user)
package registry
