// Package webhook — вид работ, уведомляющий внешний сервис об объекте.
//
// Work отправляет POST с описанием work item на настроенный URL.
// Заголовок Idempotency-Key равен ID work item: получатель может
// отбросить повтор, если элемент был доставлен, но не удалён из очереди
// (например, commit транзакции не прошёл после ответа 2xx).
//
// Ответ не 2xx — ошибка; элемент остаётся в очереди и будет
// повторён следующим проходом исполнителя.
//
// Конфигурация (concord.yaml):
//
//	webhooks:
//	  - kind: notify_erp
//	    url: https://erp.example.com/hooks/concord
//	    headers:
//	      Authorization: Bearer xxx
//	    timeout: 10s
package webhook
