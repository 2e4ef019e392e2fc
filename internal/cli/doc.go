// Package cli реализует команды консольного клиента leadflow.
//
// Каждая группа команд (workflow, run, schedule) получает фабрики
// clientFn/outputFn: клиент и формат вывода создаются лениво, после
// разбора глобальных флагов --api-url и --json.
//
// CLI не импортирует internal/api: response-структуры продублированы
// в client.go, связь с сервером — только через HTTP.
package cli
