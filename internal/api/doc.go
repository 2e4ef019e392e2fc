// Package api реализует HTTP API управления workflows, runs
// и schedules.
//
// Структура:
//   - handler.go           — Handler с зависимостями
//   - routes.go            — регистрация маршрутов
//   - middleware.go        — Recovery, Logging
//   - response.go          — хелперы ответов и ошибок
//   - dto.go               — request/response структуры
//   - workflow_handler.go  — CRUD workflows + валидация
//   - run_handler.go       — создание и чтение runs
//   - schedule_handler.go  — CRUD schedules
package api
