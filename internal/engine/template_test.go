package engine

import (
	"errors"
	"testing"
	"time"
)

func testState(t *testing.T) *State {
	t.Helper()
	state := NewState()
	state.SetMeta("lead_generation_pipeline", time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC))
	if err := state.AddOutput("find_prospects", map[string]any{
		"leads": []any{
			map[string]any{"company_name": "CloudSync Technologies", "employee_count": float64(250)},
			map[string]any{"company_name": "DataFlow Systems", "employee_count": float64(420)},
		},
		"total_found": float64(2),
	}); err != nil {
		t.Fatalf("AddOutput: %v", err)
	}
	return state
}

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		exprs   int
	}{
		{name: "литерал без плейсхолдеров", input: "hello world", exprs: 0},
		{name: "пустая строка", input: "", exprs: 0},
		{name: "плейсхолдер во всю строку", input: "{{ find_prospects.output.leads }}", exprs: 1},
		{name: "плейсхолдер внутри текста", input: "found {{ find_prospects.output.total_found }} leads", exprs: 1},
		{name: "два плейсхолдера", input: "{{ a.output.x }} and {{ b.output.y }}", exprs: 2},
		{name: "открывающий без закрывающего", input: "{{ find_prospects.output.leads", wantErr: ErrUnbalancedMarkers},
		{name: "закрывающий без открывающего", input: "find_prospects.output.leads }}", wantErr: ErrUnbalancedMarkers},
		{name: "вложенный открывающий маркер", input: "{{ a.output.{{ b }}", wantErr: ErrUnbalancedMarkers},
		{name: "слишком короткий путь", input: "{{ find_prospects.leads }}", wantErr: ErrBadExpression},
		{name: "второй сегмент не output", input: "{{ find_prospects.input.leads }}", wantErr: ErrBadExpression},
		{name: "пустой сегмент пути", input: "{{ a.output..x }}", wantErr: ErrBadExpression},
		{name: "пробел внутри сегмента", input: "{{ a.output.two words }}", wantErr: ErrBadExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseTemplate(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseTemplate(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTemplate(%q) unexpected error: %v", tt.input, err)
			}
			if got := len(tmpl.Exprs()); got != tt.exprs {
				t.Errorf("Exprs() = %d, want %d", got, tt.exprs)
			}
		})
	}
}

func TestTemplateResolveNative(t *testing.T) {
	state := testState(t)

	tmpl, err := ParseTemplate("{{ find_prospects.output.leads }}")
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}

	got := tmpl.Resolve(state)
	leads, ok := got.([]any)
	if !ok {
		t.Fatalf("Resolve() = %T, want []any", got)
	}
	if len(leads) != 2 {
		t.Errorf("len(leads) = %d, want 2", len(leads))
	}
}

func TestTemplateResolveEmbedded(t *testing.T) {
	state := testState(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "скаляр внутри текста",
			input: "found {{ find_prospects.output.total_found }} leads",
			want:  "found 2 leads",
		},
		{
			name:  "индекс списка и вложенное поле",
			input: "top: {{ find_prospects.output.leads.0.company_name }}",
			want:  "top: CloudSync Technologies",
		},
		{
			name:  "метаданные run",
			input: "run of {{ workflow.output.name }}",
			want:  "run of lead_generation_pipeline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseTemplate(tt.input)
			if err != nil {
				t.Fatalf("ParseTemplate: %v", err)
			}
			got := tmpl.Resolve(state)
			if got != tt.want {
				t.Errorf("Resolve() = %v, want %q", got, tt.want)
			}
		})
	}
}

func TestTemplateResolveUnresolved(t *testing.T) {
	state := testState(t)

	tests := []struct {
		name  string
		input string
	}{
		{name: "неизвестный шаг", input: "{{ missing_step.output.leads }}"},
		{name: "неизвестное поле", input: "{{ find_prospects.output.nope }}"},
		{name: "индекс вне диапазона", input: "{{ find_prospects.output.leads.9 }}"},
		{name: "нечисловой индекс списка", input: "{{ find_prospects.output.leads.first }}"},
		{name: "внутри текста", input: "got {{ missing_step.output.leads }} items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseTemplate(tt.input)
			if err != nil {
				t.Fatalf("ParseTemplate: %v", err)
			}
			got := tmpl.Resolve(state)
			if !IsUnresolved(got) {
				t.Errorf("Resolve() = %v, want Unresolved marker", got)
			}
		})
	}
}

func TestResolveValueRecursive(t *testing.T) {
	state := testState(t)

	inputs := map[string]any{
		"leads":  "{{ find_prospects.output.leads }}",
		"top_n":  float64(10),
		"labels": []any{"static", "{{ find_prospects.output.total_found }} found"},
		"nested": map[string]any{
			"first": "{{ find_prospects.output.leads.0.company_name }}",
		},
	}

	resolved, err := ResolveValue(inputs, state)
	if err != nil {
		t.Fatalf("ResolveValue: %v", err)
	}
	m, ok := resolved.(map[string]any)
	if !ok {
		t.Fatalf("ResolveValue() = %T, want map[string]any", resolved)
	}

	if _, ok := m["leads"].([]any); !ok {
		t.Errorf("leads = %T, want []any", m["leads"])
	}
	if m["top_n"] != float64(10) {
		t.Errorf("top_n = %v, want 10", m["top_n"])
	}
	labels, _ := m["labels"].([]any)
	if len(labels) != 2 || labels[1] != "2 found" {
		t.Errorf("labels = %v, want [static, 2 found]", labels)
	}
	nested, _ := m["nested"].(map[string]any)
	if nested["first"] != "CloudSync Technologies" {
		t.Errorf("nested.first = %v", nested["first"])
	}
}

func TestCollectUnresolved(t *testing.T) {
	state := testState(t)

	inputs := map[string]any{
		"good": "{{ find_prospects.output.leads }}",
		"bad":  "{{ missing_step.output.leads }}",
		"deep": []any{"{{ other.output.x }}"},
	}

	resolved, err := ResolveValue(inputs, state)
	if err != nil {
		t.Fatalf("ResolveValue: %v", err)
	}

	refs := CollectUnresolved(resolved)
	if len(refs) != 2 {
		t.Fatalf("CollectUnresolved() = %v, want 2 refs", refs)
	}
}

func TestStateAddOutputOverwrite(t *testing.T) {
	state := NewState()
	if err := state.AddOutput("step_a", map[string]any{"x": 1}); err != nil {
		t.Fatalf("first AddOutput: %v", err)
	}
	err := state.AddOutput("step_a", map[string]any{"x": 2})
	if !errors.Is(err, ErrStateOverwrite) {
		t.Fatalf("second AddOutput error = %v, want ErrStateOverwrite", err)
	}

	out, ok := state.Output("step_a")
	if !ok || out["x"] != 1 {
		t.Errorf("Output(step_a) = %v, want original value preserved", out)
	}
}

func TestStateNilOutput(t *testing.T) {
	state := NewState()
	if err := state.AddOutput("step_a", nil); err != nil {
		t.Fatalf("AddOutput(nil): %v", err)
	}
	out, ok := state.Output("step_a")
	if !ok {
		t.Fatal("Output(step_a) not found")
	}
	if out == nil {
		t.Error("Output(step_a) = nil, want empty map")
	}
}
