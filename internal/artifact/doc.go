// Package artifact хранит файлы, которые порождают попытки: диагностические
// снимки и выгруженные export-файлы.
//
// Раскладка на диске:
//
//	<root>/<kind>/<item>/attempt-<n>/<seq>-<label><ext>
//
// seq — первый свободный номер в каталоге попытки. Имя занимается жёсткой
// ссылкой на готовый временный файл: os.Link не перезаписывает существующий
// путь, поэтому два пути не совпадают даже у разных процессов на общем root
// (API и воркер) и после перезапуска. Пространство имён только растёт:
// файлы не перезаписываются и не удаляются.
//
// Читатель никогда не видит недописанный файл: содержимое появляется под
// финальным именем целиком. Если задан Mirror, каждый export дополнительно
// копируется в объектное хранилище (MinIO/S3).
package artifact
