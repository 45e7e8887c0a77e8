// Package cli реализует инструмент командной строки Concord.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Concord API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для планирования работ, запуска проходов,
// обновления workflow и просмотра реестров.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Concord API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse),
// передачу пользователя в заголовках X-User-ID / X-User-Roles
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080", cli.User{ID: "u1", Roles: []string{"broker"}})
//	items, err := client.ListWorkItems(cli.ListWorkItemsOpts{Kind: "validation"})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: concord work list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - work: list, add, run
//   - workflow: show, update
//   - target: add, remove, results
//   - registry: list
//   - password: check
//
// Каждая группа создаётся через фабричную функцию (NewWorkCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
