// Package filter хранит список отрицательных ключевых слов.
//
// Список компилируется в неизменяемый Snapshot (регулярное выражение
// с границами слов, без учёта регистра). Filter подменяет Snapshot
// атомарно, поэтому читатель всегда видит целиком либо старый, либо
// новый список: обработка, начатая со снимком, дорабатывает с ним.
package filter
