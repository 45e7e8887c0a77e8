package domain

// WorkflowState — состояние экземпляра workflow.
//
// Переходы:
//
//	new → accepted | rejected           (acceptance)
//	new → booked → revised → revised... (booking)
type WorkflowState string

const (
	// WorkflowStateNew — экземпляр создан, решений ещё не было.
	WorkflowStateNew WorkflowState = "new"

	// WorkflowStateAccepted — объект принят.
	WorkflowStateAccepted WorkflowState = "accepted"

	// WorkflowStateRejected — хотя бы один участник отказал.
	WorkflowStateRejected WorkflowState = "rejected"

	// WorkflowStateBooked — объект забронирован.
	WorkflowStateBooked WorkflowState = "booked"

	// WorkflowStateRevised — бронирование пересмотрено.
	WorkflowStateRevised WorkflowState = "revised"
)

// IsBooked возвращает true для состояний, в которых бронь уже существует.
func (s WorkflowState) IsBooked() bool {
	return s == WorkflowStateBooked || s == WorkflowStateRevised
}

// IsValid проверяет, что состояние известно.
func (s WorkflowState) IsValid() bool {
	switch s {
	case WorkflowStateNew, WorkflowStateAccepted, WorkflowStateRejected,
		WorkflowStateBooked, WorkflowStateRevised:
		return true
	default:
		return false
	}
}
