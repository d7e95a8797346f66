package engine

// State — состояние попытки.
type State string

const (
	StateStart           State = "start"
	StateNavigating      State = "navigating"
	StateInputEntered    State = "input_entered"
	StateSearchTriggered State = "search_triggered"
	StateResultsReady    State = "results_ready"
	StateExportTriggered State = "export_triggered"
	StateFormatSelected  State = "format_selected"
	StateDownloading     State = "downloading"
	StateVerified        State = "verified"
	StateAttemptFailed   State = "attempt_failed"
)

// sequence — порядок состояний успешной попытки.
var sequence = []State{
	StateStart,
	StateNavigating,
	StateInputEntered,
	StateSearchTriggered,
	StateResultsReady,
	StateExportTriggered,
	StateFormatSelected,
	StateDownloading,
	StateVerified,
}

// IsTerminal возвращает true для финальных состояний попытки.
func (s State) IsTerminal() bool {
	return s == StateVerified || s == StateAttemptFailed
}

// Next возвращает состояние после успешного шага из s.
// Финальные состояния не меняются; неизвестное состояние ведёт в AttemptFailed.
func Next(s State) State {
	if s.IsTerminal() {
		return s
	}
	for i, st := range sequence[:len(sequence)-1] {
		if st == s {
			return sequence[i+1]
		}
	}
	return StateAttemptFailed
}

// Advance применяет результат шага: nil — Next(s), ошибка — AttemptFailed.
func Advance(s State, stepErr error) State {
	if stepErr != nil {
		return StateAttemptFailed
	}
	return Next(s)
}
