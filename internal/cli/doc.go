// Package cli реализует инструмент командной строки Harvest.
//
// Утилита ходит в Harvest API по HTTP и не импортирует внутренние
// пакеты сервиса: все типы ответов объявлены здесь же.
//
// # Client
//
// Обёртка над net/http для эндпоинтов /api/v1. Ошибки API возвращаются
// как *APIError с кодом из конверта {"error": ...}. Для 401 и 502 сервер
// дополнительно присылает отчёт job, он лежит в APIError.Report.
//
//	client := cli.NewClient("http://localhost:8080")
//	job, err := client.RunJob([]string{"B0TEST"})
//
// # Output
//
// Данные печатаются в stdout таблицей (text/tabwriter) или, с флагом
// --json, через json.Encoder с отступами. Сообщения Success/Error идут
// в stderr, поэтому вывод можно передавать дальше:
//
//	harvest job list --json | jq .
//
// # Команды
//
//   - job: run, enqueue, list, show
//   - artifacts: download
//   - keywords: get, set
//
// Группы собираются фабриками (NewJobCmd, NewArtifactCmd, NewKeywordCmd).
// Фабрики получают clientFn и outputFn: Client и Output создаются лениво,
// уже после разбора PersistentFlags.
package cli
