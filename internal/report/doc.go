// Package report собирает терминальные результаты items в JobReport.
//
// Aggregator — чистый учёт без I/O: Record принимает ровно один
// результат на item, Finalize вызывается ровно один раз. Нарушение
// этих правил — ошибка программы (ErrInvariantViolation), а не бизнес-ошибка.
package report
