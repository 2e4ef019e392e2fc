// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - run.requested — запрос на выполнение run (потребитель: runner)
//   - run.finished  — run завершился (потребители: интеграции)
//
// Exchanges:
//   - leadflow.runs — события runs
//   - leadflow.dlq  — dead letter queue
package mq
