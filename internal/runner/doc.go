// Package runner реализует идемпотентный исполнитель работ.
//
// Две формы:
//   - WorkflowRunner.UpdateWorkflow — синхронное обновление бизнес-процесса
//     объекта под мьютексом "Workflow-{decider}-{target.ID}";
//   - BatchRunner.RunDueWork — пакетная обработка запланированных работ,
//     каждая под row-блокировкой своего объекта.
//
// Безопасность обеспечивает только распределённый мьютекс: для одного объекта
// выполнение полностью упорядочено, между разными объектами порядка нет.
// Завершённая работа удаляется из источника; удаление — единственная
// отметка о выполнении, поэтому повторный запуск пакета идемпотентен.
package runner
