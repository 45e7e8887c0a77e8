// Package workflows содержит decider'ы бизнес-процессов.
//
// Decider вызывается runner.WorkflowRunner под мьютексом объекта внутри
// транзакции и только изменяет переданный экземпляр; версию и автора
// решения фиксирует исполнитель.
//
//   - AcceptanceWorkflow ("acceptance") — принятие объекта по вето
//     участников AcceptanceRegistry;
//   - BookingWorkflow ("booking") — бронирование и его пересмотр через
//     участников BookingRegistry.
package workflows
