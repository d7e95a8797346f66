// Package config загружает конфигурацию Harvest.
//
// Порядок применения:
//  1. значения по умолчанию (Default)
//  2. YAML файл (путь из аргумента или HARVEST_CONFIG)
//  3. переменные окружения
//
// Cookies сессии никогда не хранятся в коде: они приходят JSON-массивом
// из HARVEST_COOKIES или из файла cookies_file.
package config
