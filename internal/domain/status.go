package domain

// JobStatus — статус выполнения job.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED (хотя бы один item не выполнен или job прерван)
type JobStatus string

const (
	// JobStatusPending — job создан, ждёт воркера.
	JobStatusPending JobStatus = "PENDING"

	// JobStatusRunning — job выполняется.
	JobStatusRunning JobStatus = "RUNNING"

	// JobStatusSucceeded — все items выполнены успешно.
	JobStatusSucceeded JobStatus = "SUCCEEDED"

	// JobStatusFailed — хотя бы один item завершился ошибкой.
	JobStatusFailed JobStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный (job завершён).
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed:
		return true
	default:
		return false
	}
}

// AttemptStatus — исход одной попытки.
//
// Жизненный цикл:
//
//	PENDING → SUCCEEDED
//	        ↘ FAILED
type AttemptStatus string

const (
	// AttemptStatusPending — попытка выполняется.
	AttemptStatusPending AttemptStatus = "PENDING"

	// AttemptStatusSucceeded — шаги пройдены, export проверен.
	AttemptStatusSucceeded AttemptStatus = "SUCCEEDED"

	// AttemptStatusFailed — шаг упал, истёк таймаут или export пустой.
	AttemptStatusFailed AttemptStatus = "FAILED"
)

// IsTerminal возвращает true, если попытка завершена.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptStatusSucceeded || s == AttemptStatusFailed
}

// ItemStatus — финальный статус item.
type ItemStatus string

const (
	ItemStatusSucceeded ItemStatus = "SUCCEEDED"
	ItemStatusFailed    ItemStatus = "FAILED"
)

// ParseJobStatus парсит строку в JobStatus.
// Неизвестные значения трактуются как PENDING.
func ParseJobStatus(s string) JobStatus {
	switch s {
	case "RUNNING":
		return JobStatusRunning
	case "SUCCEEDED":
		return JobStatusSucceeded
	case "FAILED":
		return JobStatusFailed
	default:
		return JobStatusPending
	}
}
