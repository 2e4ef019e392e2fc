package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Маркеры плейсхолдеров.
const (
	openMarker  = "{{"
	closeMarker = "}}"
)

// Expr — типизированное шаблонное выражение: ссылка на поле
// результата предыдущего шага.
//
// Грамматика тела плейсхолдера:
//
//	<step_id>.output.<field>[.<field>...]
//
// Числовой сегмент пути индексирует элемент последовательности.
type Expr struct {
	// StepID — идентификатор шага, на результат которого ссылаемся.
	StepID string

	// Path — путь внутри записи состояния, начиная с "output".
	Path []string

	raw string
}

// String возвращает исходный текст выражения.
func (e *Expr) String() string {
	return e.raw
}

// parseExpr парсит тело плейсхолдера в типизированное выражение.
func parseExpr(body string) (*Expr, error) {
	trimmed := strings.TrimSpace(body)

	parts := strings.Split(trimmed, ".")
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: %q: want step_id.output.field", ErrBadExpression, trimmed)
	}
	if parts[1] != "output" {
		return nil, fmt.Errorf("%w: %q: second segment must be %q", ErrBadExpression, trimmed, "output")
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q: empty path segment", ErrBadExpression, trimmed)
		}
		if strings.ContainsAny(p, " \t") {
			return nil, fmt.Errorf("%w: %q: segment %q contains whitespace", ErrBadExpression, trimmed, p)
		}
	}

	return &Expr{
		StepID: parts[0],
		Path:   parts[1:],
		raw:    trimmed,
	}, nil
}

// segment — один сегмент шаблона: литерал либо выражение.
type segment struct {
	literal string
	expr    *Expr
}

// Template — распарсенный шаблон: последовательность литералов
// и выражений.
type Template struct {
	raw      string
	segments []segment
}

// ParseTemplate парсит строку в шаблон.
//
// Ошибки синтаксиса (непарные маркеры, невалидное тело плейсхолдера) —
// ошибки конфигурации: валидация workflow вызывает ParseTemplate для
// каждого строкового входа до начала выполнения.
func ParseTemplate(s string) (*Template, error) {
	t := &Template{raw: s}

	rest := s
	for {
		open := strings.Index(rest, openMarker)
		if open < 0 {
			// Закрывающий маркер без открывающего — тоже непарный.
			if strings.Contains(rest, closeMarker) {
				return nil, fmt.Errorf("%w: %q", ErrUnbalancedMarkers, s)
			}
			if rest != "" {
				t.segments = append(t.segments, segment{literal: rest})
			}
			return t, nil
		}

		head := rest[:open]
		if strings.Contains(head, closeMarker) {
			return nil, fmt.Errorf("%w: %q", ErrUnbalancedMarkers, s)
		}
		if head != "" {
			t.segments = append(t.segments, segment{literal: head})
		}

		rest = rest[open+len(openMarker):]
		end := strings.Index(rest, closeMarker)
		if end < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnbalancedMarkers, s)
		}

		body := rest[:end]
		if strings.Contains(body, openMarker) {
			return nil, fmt.Errorf("%w: %q", ErrUnbalancedMarkers, s)
		}

		expr, err := parseExpr(body)
		if err != nil {
			return nil, err
		}
		t.segments = append(t.segments, segment{expr: expr})

		rest = rest[end+len(closeMarker):]
	}
}

// HasPlaceholders возвращает true, если шаблон содержит хотя бы
// одно выражение.
func (t *Template) HasPlaceholders() bool {
	for i := range t.segments {
		if t.segments[i].expr != nil {
			return true
		}
	}
	return false
}

// Exprs возвращает все выражения шаблона.
func (t *Template) Exprs() []*Expr {
	var exprs []*Expr
	for i := range t.segments {
		if t.segments[i].expr != nil {
			exprs = append(exprs, t.segments[i].expr)
		}
	}
	return exprs
}

// Unresolved — маркер неразрешённой ссылки.
//
// Возвращается вместо значения, когда выражение ссылается на шаг или
// поле, которого нет в состоянии (upstream-шаг упал или был пропущен).
// Это не ошибка: решение о фатальности принимает исполнитель шага.
type Unresolved struct {
	// Expr — текст выражения, которое не разрешилось.
	Expr string
}

// String реализует fmt.Stringer.
func (u Unresolved) String() string {
	return "<unresolved: " + u.Expr + ">"
}

// IsUnresolved проверяет, является ли значение маркером
// неразрешённой ссылки.
func IsUnresolved(v any) bool {
	_, ok := v.(Unresolved)
	return ok
}

// Resolve вычисляет шаблон по состоянию.
//
//   - Без плейсхолдеров — исходная строка (pass-through литерал).
//   - Единственный плейсхолдер во всю строку — нативное значение
//     с сохранением типа (список, map, скаляр).
//   - Плейсхолдер внутри текста — строка с подстановкой строкового
//     представления значения.
//   - Неразрешённая ссылка (в любой позиции) — маркер Unresolved
//     для всего значения.
func (t *Template) Resolve(state *State) any {
	if !t.HasPlaceholders() {
		return t.raw
	}

	// Плейсхолдер во всю строку: возвращаем нативное значение.
	if len(t.segments) == 1 && t.segments[0].expr != nil {
		expr := t.segments[0].expr
		v, ok := lookup(state, expr)
		if !ok {
			return Unresolved{Expr: expr.raw}
		}
		return v
	}

	var b strings.Builder
	for i := range t.segments {
		seg := &t.segments[i]
		if seg.expr == nil {
			b.WriteString(seg.literal)
			continue
		}
		v, ok := lookup(state, seg.expr)
		if !ok {
			return Unresolved{Expr: seg.expr.raw}
		}
		b.WriteString(stringify(v))
	}
	return b.String()
}

// lookup навигирует состояние по пути выражения.
func lookup(state *State, expr *Expr) (any, bool) {
	entry, ok := state.entry(expr.StepID)
	if !ok {
		return nil, false
	}

	var cur any = entry
	for _, part := range expr.Path {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[part]
			if !ok {
				return nil, false
			}
			cur = v

		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, false
			}
			cur = c[idx]

		default:
			return nil, false
		}
	}
	return cur, true
}

// stringify приводит значение к строковому представлению для
// подстановки внутрь текста.
func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case map[string]any, []any:
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprintf("%v", s)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ResolveValue рекурсивно разрешает шаблоны в произвольном значении.
// Map и slice обрабатываются поэлементно, строки — через Resolve,
// остальные типы возвращаются как есть.
func ResolveValue(value any, state *State) (any, error) {
	switch v := value.(type) {
	case string:
		t, err := ParseTemplate(v)
		if err != nil {
			return nil, err
		}
		return t.Resolve(state), nil

	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			resolved, err := ResolveValue(val, state)
			if err != nil {
				return nil, err
			}
			result[key] = resolved
		}
		return result, nil

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			resolved, err := ResolveValue(val, state)
			if err != nil {
				return nil, err
			}
			result[i] = resolved
		}
		return result, nil

	default:
		// Скаляры (int, float, bool, nil) возвращаем как есть.
		return value, nil
	}
}

// CollectUnresolved обходит разрешённое значение и возвращает
// выражения всех маркеров Unresolved.
func CollectUnresolved(value any) []string {
	var refs []string
	collectUnresolved(value, &refs)
	return refs
}

func collectUnresolved(value any, refs *[]string) {
	switch v := value.(type) {
	case Unresolved:
		*refs = append(*refs, v.Expr)
	case map[string]any:
		for _, val := range v {
			collectUnresolved(val, refs)
		}
	case []any:
		for _, val := range v {
			collectUnresolved(val, refs)
		}
	}
}
