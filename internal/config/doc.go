// Package config — настройки процесса и резолвер настроек запуска.
//
// Load читает переменные окружения через viper (с дефолтами для всех ключей).
// Resolver поверх key/value хранилища settings вычисляет RunConfig
// один раз на запуск пайплайна: сначала override из БД, затем дефолт процесса.
package config
