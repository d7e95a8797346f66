package orchestrator

import (
	"fmt"
	"strings"
)

// NormalizeItems обрезает пробелы и отклоняет пустые и повторяющиеся
// идентификаторы: каждый входной item попадает в отчёт ровно один раз.
func NormalizeItems(items []string) ([]string, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for i, raw := range items {
		item := strings.TrimSpace(raw)
		if item == "" {
			return nil, fmt.Errorf("%w: item %d is empty", ErrInvalidItem, i)
		}
		if seen[item] {
			return nil, fmt.Errorf("%w: item %d duplicates %q", ErrInvalidItem, i, item)
		}
		seen[item] = true
		result = append(result, item)
	}
	return result, nil
}
