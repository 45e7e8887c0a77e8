// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (хранилища, исполнители, каталог реестров)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery, metrics)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - user.go             — пользователь из заголовков X-User-ID / X-User-Roles
//   - work_handler.go     — обработчики для /work-items и /work/run
//   - workflow_handler.go — обработчики для /workflows
//   - registry_handler.go — обработчики для /registries и /password-checks
//   - target_handler.go   — обработчики для /targets
//
// Обновление workflow выполняется синхронно в запросе: ответ содержит
// сохранённый экземпляр или ошибку. Конкуренция за мьютекс объекта
// возвращается как 409 с кодом LOCK_CONTENTION.
package api
