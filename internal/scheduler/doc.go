// Package scheduler запускает BatchRunner.RunDueWork по расписанию.
//
// Структура:
//   - scheduler.go — Scheduler (Tick, Nudge, Run)
//   - cron.go      — разбор расписаний и адаптер логгера cron к slog
//
// Проходы никогда не перекрываются внутри процесса: тик, пришедший во
// время прохода, пропускается. Между процессами безопасность обеспечивают
// row-блокировки исполнителя, поэтому leader election не нужен.
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Runner: batch,
//	    Spec:   "@every 1m",
//	    Logger: logger,
//	})
//	go sched.Run(ctx)
//
//	// внеочередной проход (например, по сообщению work.nudge)
//	sched.Nudge()
package scheduler
