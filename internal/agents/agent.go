package agents

import (
	"context"
	"errors"
	"fmt"
)

// ErrAgentNotFound — имя агента не зарегистрировано в реестре.
var ErrAgentNotFound = errors.New("agent not found")

// Agent — исполнитель одного шага workflow.
//
// Run принимает уже разрешённые входы (без шаблонных выражений
// и без маркеров Unresolved) и возвращает output шага.
//
// Контракт на ошибки: отсутствие бизнес-входов — не ошибка; агент
// логирует предупреждение и возвращает пустой output. Ошибка
// возвращается только при исключительном сбое (отказ внешнего
// сервиса, отмена контекста).
type Agent interface {
	// ID возвращает идентификатор шага, для которого создан агент.
	ID() string

	// Run выполняет шаг.
	Run(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

// Config — статическая конфигурация агента из спецификации шага.
type Config struct {
	// Instructions — текстовые инструкции для агента.
	Instructions string

	// Tools — имена инструментов, доступных агенту.
	Tools []string

	// OutputSchema — ожидаемая схема результата.
	OutputSchema map[string]any
}

// Factory — конструктор агента для конкретного шага.
type Factory func(agentID string, cfg Config) (Agent, error)

// Хелперы извлечения типизированных значений из разрешённых входов.
// JSON-числа приходят как float64; целочисленные хелперы приводят их.

// inputString возвращает строковый вход или def.
func inputString(inputs map[string]any, key, def string) string {
	if v, ok := inputs[key].(string); ok {
		return v
	}
	return def
}

// inputInt возвращает целочисленный вход или def.
func inputInt(inputs map[string]any, key string, def int) int {
	switch v := inputs[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

// inputFloat возвращает числовой вход или def.
func inputFloat(inputs map[string]any, key string, def float64) float64 {
	switch v := inputs[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// inputList возвращает списковый вход или nil.
func inputList(inputs map[string]any, key string) []any {
	if v, ok := inputs[key].([]any); ok {
		return v
	}
	return nil
}

// inputMap возвращает map-вход или nil.
func inputMap(inputs map[string]any, key string) map[string]any {
	if v, ok := inputs[key].(map[string]any); ok {
		return v
	}
	return nil
}

// itemString достаёт строковое поле из элемента списка.
func itemString(item map[string]any, key string) string {
	if v, ok := item[key].(string); ok {
		return v
	}
	return ""
}

// itemFloat достаёт числовое поле из элемента списка.
func itemFloat(item map[string]any, key string) float64 {
	switch v := item[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// asItem приводит элемент списка к map, либо возвращает ошибку.
func asItem(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("list item is %T, want object", v)
	}
	return m, nil
}
