package domain

import "fmt"

// ItemResult — финальная запись по одному item.
//
// Для каждого item в job существует ровно один ItemResult:
//   - SUCCEEDED — ArtifactPath указывает на проверенный export-файл
//   - FAILED — Error содержит последнюю причину, Attempts — все попытки
//
// Items, которые не запускались (провал аутентификации, фатальная ошибка
// сессии), имеют FAILED без попыток.
type ItemResult struct {
	Item         string     `json:"item"`
	Status       ItemStatus `json:"status"`
	ArtifactPath string     `json:"artifact_path,omitempty"`
	Attempts     []Attempt  `json:"attempts,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Succeeded создаёт успешный результат.
func Succeeded(item, artifactPath string, attempts []Attempt) ItemResult {
	return ItemResult{
		Item:         item,
		Status:       ItemStatusSucceeded,
		ArtifactPath: artifactPath,
		Attempts:     attempts,
	}
}

// Failed создаёт результат с ошибкой.
// Если попытки были, в причину добавляется количество попыток.
func Failed(item string, attempts []Attempt, lastError string) ItemResult {
	reason := lastError
	if len(attempts) > 0 {
		reason = fmt.Sprintf("failed after %d attempt(s): %s", len(attempts), lastError)
	}
	return ItemResult{
		Item:     item,
		Status:   ItemStatusFailed,
		Attempts: attempts,
		Error:    reason,
	}
}

// IsSucceeded возвращает true для успешного результата.
func (r ItemResult) IsSucceeded() bool {
	return r.Status == ItemStatusSucceeded
}

// AttemptCount возвращает количество выполненных попыток.
func (r ItemResult) AttemptCount() int {
	return len(r.Attempts)
}
