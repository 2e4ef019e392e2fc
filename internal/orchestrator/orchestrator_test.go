package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shaiso/leadflow/internal/agents"
	"github.com/shaiso/leadflow/internal/domain"
)

// stubAgent — агент с подставной функцией для тестов оркестратора.
type stubAgent struct {
	id string
	fn func(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

func (s *stubAgent) ID() string { return s.id }

func (s *stubAgent) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return s.fn(ctx, inputs)
}

// stubRegistry регистрирует набор имя → функция.
func stubRegistry(impls map[string]func(ctx context.Context, inputs map[string]any) (map[string]any, error)) *agents.Registry {
	r := agents.NewRegistry()
	for name, fn := range impls {
		fn := fn
		r.Register(name, func(agentID string, cfg agents.Config) (agents.Agent, error) {
			return &stubAgent{id: agentID, fn: fn}, nil
		})
	}
	return r
}

func echoAgent(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	out := map[string]any{"ok": true}
	for k, v := range inputs {
		out[k] = v
	}
	return out, nil
}

func listAgent(key string, n int) func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		items := make([]any, n)
		for i := range items {
			items[i] = map[string]any{"n": float64(i)}
		}
		return map[string]any{key: items}, nil
	}
}

func TestRunAllStepsSucceed(t *testing.T) {
	registry := stubRegistry(map[string]func(ctx context.Context, inputs map[string]any) (map[string]any, error){
		"Echo": echoAgent,
	})
	runner := NewRunner(registry)

	spec := &domain.WorkflowSpec{
		Name: "all_green",
		Steps: []domain.StepSpec{
			{ID: "a", Agent: "Echo", Inputs: map[string]any{"x": float64(1)}},
			{ID: "b", Agent: "Echo", Inputs: map[string]any{"from_a": "{{ a.output.x }}"}},
			{ID: "c", Agent: "Echo", Inputs: map[string]any{"from_b": "{{ b.output.from_a }}"}},
		},
	}

	result := runner.Run(context.Background(), spec)

	if result.Status != domain.RunStatusCompleted {
		t.Fatalf("status = %s, want completed (error: %s)", result.Status, result.Error)
	}
	if len(result.Steps) != 3 {
		t.Fatalf("len(Steps) = %d, want 3", len(result.Steps))
	}
	for i := range result.Steps {
		if result.Steps[i].Status != domain.StepStatusCompleted {
			t.Errorf("step %s status = %s, want completed", result.Steps[i].StepID, result.Steps[i].Status)
		}
	}

	// Нативное значение протащено через два шага без строкификации.
	if result.Steps[2].Output["from_b"] != float64(1) {
		t.Errorf("chained value = %v (%T), want 1 (float64)",
			result.Steps[2].Output["from_b"], result.Steps[2].Output["from_b"])
	}
}

func TestRunUnknownAgentFailsWithZeroSteps(t *testing.T) {
	registry := stubRegistry(map[string]func(ctx context.Context, inputs map[string]any) (map[string]any, error){
		"Echo": echoAgent,
	})
	runner := NewRunner(registry)

	spec := &domain.WorkflowSpec{
		Name: "bad_agent",
		Steps: []domain.StepSpec{
			{ID: "a", Agent: "Nonexistent", Inputs: map[string]any{}},
		},
	}

	result := runner.Run(context.Background(), spec)

	if result.Status != domain.RunStatusFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if len(result.Steps) != 0 {
		t.Errorf("len(Steps) = %d, want 0 (no attempts)", len(result.Steps))
	}
	if !strings.Contains(result.Error, "Nonexistent") {
		t.Errorf("Error = %q, want mention of unknown agent", result.Error)
	}
}

func TestRunFailedStepDoesNotStopIndependentSteps(t *testing.T) {
	registry := stubRegistry(map[string]func(ctx context.Context, inputs map[string]any) (map[string]any, error){
		"Echo": echoAgent,
		"Boom": func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
			return nil, errors.New("upstream API is down")
		},
	})
	runner := NewRunner(registry)

	spec := &domain.WorkflowSpec{
		Name: "partial",
		Steps: []domain.StepSpec{
			{ID: "broken", Agent: "Boom", Inputs: map[string]any{}},
			{ID: "dependent", Agent: "Echo", Inputs: map[string]any{
				"x": "{{ broken.output.data }}",
			}},
			{ID: "independent", Agent: "Echo", Inputs: map[string]any{"y": "literal"}},
		},
	}

	result := runner.Run(context.Background(), spec)

	// best_effort: run дошёл до конца — completed.
	if result.Status != domain.RunStatusCompleted {
		t.Fatalf("status = %s, want completed", result.Status)
	}
	if len(result.Steps) != 3 {
		t.Fatalf("len(Steps) = %d, want 3", len(result.Steps))
	}

	broken := result.Steps[0]
	if broken.Status != domain.StepStatusFailed {
		t.Errorf("broken status = %s, want failed", broken.Status)
	}
	if broken.ErrorKind != domain.ErrorKindExecution {
		t.Errorf("broken error kind = %s, want execution", broken.ErrorKind)
	}
	if !strings.Contains(broken.Error, "upstream API is down") {
		t.Errorf("broken error = %q", broken.Error)
	}

	dependent := result.Steps[1]
	if dependent.Status != domain.StepStatusSkipped {
		t.Errorf("dependent status = %s, want skipped", dependent.Status)
	}
	if !strings.Contains(dependent.Reason, "broken.output.data") {
		t.Errorf("dependent reason = %q", dependent.Reason)
	}

	independent := result.Steps[2]
	if independent.Status != domain.StepStatusCompleted {
		t.Errorf("independent status = %s, want completed", independent.Status)
	}
}

func TestRunPanickingAgent(t *testing.T) {
	registry := stubRegistry(map[string]func(ctx context.Context, inputs map[string]any) (map[string]any, error){
		"Panic": func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
			panic("nil dereference in agent")
		},
	})
	runner := NewRunner(registry)

	spec := &domain.WorkflowSpec{
		Name: "panicky",
		Steps: []domain.StepSpec{
			{ID: "a", Agent: "Panic", Inputs: map[string]any{}},
		},
	}

	result := runner.Run(context.Background(), spec)

	if len(result.Steps) != 1 {
		t.Fatalf("len(Steps) = %d, want 1", len(result.Steps))
	}
	step := result.Steps[0]
	if step.Status != domain.StepStatusFailed {
		t.Fatalf("status = %s, want failed", step.Status)
	}
	if !strings.Contains(step.Error, "panicked") {
		t.Errorf("error = %q, want panic message", step.Error)
	}
}

func TestRunPolicy(t *testing.T) {
	impls := map[string]func(ctx context.Context, inputs map[string]any) (map[string]any, error){
		"Echo": echoAgent,
		"Boom": func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
			return nil, errors.New("boom")
		},
	}

	tests := []struct {
		name       string
		policy     Policy
		withFailed bool
		want       domain.RunStatus
	}{
		{name: "best_effort при сбое", policy: PolicyBestEffort, withFailed: true, want: domain.RunStatusCompleted},
		{name: "best_effort без сбоев", policy: PolicyBestEffort, withFailed: false, want: domain.RunStatusCompleted},
		{name: "strict при сбое", policy: PolicyStrict, withFailed: true, want: domain.RunStatusFailed},
		{name: "strict без сбоев", policy: PolicyStrict, withFailed: false, want: domain.RunStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agentName := "Echo"
			if tt.withFailed {
				agentName = "Boom"
			}
			spec := &domain.WorkflowSpec{
				Name: "policy_check",
				Steps: []domain.StepSpec{
					{ID: "a", Agent: agentName, Inputs: map[string]any{}},
					{ID: "b", Agent: "Echo", Inputs: map[string]any{}},
				},
			}

			runner := NewRunner(stubRegistry(impls), WithPolicy(tt.policy))
			result := runner.Run(context.Background(), spec)
			if result.Status != tt.want {
				t.Errorf("status = %s, want %s", result.Status, tt.want)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); err != nil || p != PolicyBestEffort {
		t.Errorf("ParsePolicy(\"\") = %v, %v", p, err)
	}
	if p, err := ParsePolicy("strict"); err != nil || p != PolicyStrict {
		t.Errorf("ParsePolicy(strict) = %v, %v", p, err)
	}
	if _, err := ParsePolicy("yolo"); err == nil {
		t.Error("ParsePolicy(yolo) expected error")
	}
}

func TestRunEndToEndSummary(t *testing.T) {
	registry := stubRegistry(map[string]func(ctx context.Context, inputs map[string]any) (map[string]any, error){
		"ProspectSearchAgent":  listAgent("leads", 8),
		"ScoringAgent":         listAgent("ranked_leads", 8),
		"OutreachContentAgent": listAgent("messages", 8),
		"FeedbackTrainerAgent": listAgent("recommendations", 16),
	})
	runner := NewRunner(registry)

	spec := &domain.WorkflowSpec{
		Name: "lead_generation_pipeline",
		Steps: []domain.StepSpec{
			{ID: "prospect_search", Agent: "ProspectSearchAgent", Inputs: map[string]any{
				"industry": "B2B SaaS",
			}},
			{ID: "scoring", Agent: "ScoringAgent", Inputs: map[string]any{
				"leads": "{{ prospect_search.output.leads }}",
			}},
			{ID: "outreach_content", Agent: "OutreachContentAgent", Inputs: map[string]any{
				"leads": "{{ scoring.output.ranked_leads }}",
			}},
			{ID: "feedback_trainer", Agent: "FeedbackTrainerAgent", Inputs: map[string]any{
				"messages": "{{ outreach_content.output.messages }}",
			}},
		},
	}

	result := runner.Run(context.Background(), spec)

	if result.Status != domain.RunStatusCompleted {
		t.Fatalf("status = %s, want completed (error: %s)", result.Status, result.Error)
	}

	want := map[string]int{
		"leads_count":           8,
		"ranked_leads_count":    8,
		"messages_count":        8,
		"recommendations_count": 16,
	}
	for key, n := range want {
		if result.FinalState[key] != n {
			t.Errorf("final_state[%s] = %v, want %d", key, result.FinalState[key], n)
		}
	}
}

func TestRunIdempotentSummary(t *testing.T) {
	registry := stubRegistry(map[string]func(ctx context.Context, inputs map[string]any) (map[string]any, error){
		"List": listAgent("items", 5),
	})
	runner := NewRunner(registry)

	spec := &domain.WorkflowSpec{
		Name: "repeatable",
		Steps: []domain.StepSpec{
			{ID: "a", Agent: "List", Inputs: map[string]any{}},
			{ID: "b", Agent: "List", Inputs: map[string]any{
				"prev": "{{ a.output.items }}",
			}},
		},
	}

	first := runner.Run(context.Background(), spec)
	second := runner.Run(context.Background(), spec)

	if first.Status != second.Status {
		t.Errorf("statuses differ: %s vs %s", first.Status, second.Status)
	}
	if fmt.Sprint(first.FinalState) != fmt.Sprint(second.FinalState) {
		t.Errorf("final states differ: %v vs %v", first.FinalState, second.FinalState)
	}
}

func TestRunCancelledContext(t *testing.T) {
	registry := stubRegistry(map[string]func(ctx context.Context, inputs map[string]any) (map[string]any, error){
		"Echo": echoAgent,
	})
	runner := NewRunner(registry)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	spec := &domain.WorkflowSpec{
		Name: "cancelled",
		Steps: []domain.StepSpec{
			{ID: "a", Agent: "Echo", Inputs: map[string]any{}},
		},
	}

	result := runner.Run(ctx, spec)
	if result.Status != domain.RunStatusFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if len(result.Steps) != 0 {
		t.Errorf("len(Steps) = %d, want 0", len(result.Steps))
	}
}

func TestRunRealAgentsPipeline(t *testing.T) {
	runner := NewRunner(agents.DefaultRegistry(agents.Deps{}))

	spec := &domain.WorkflowSpec{
		Name: "lead_generation_pipeline",
		Steps: []domain.StepSpec{
			{ID: "find_prospects", Agent: "ProspectSearchAgent", Inputs: map[string]any{
				"industry": "B2B SaaS",
			}},
			{ID: "score_leads", Agent: "ScoringAgent", Inputs: map[string]any{
				"leads": "{{ find_prospects.output.leads }}",
			}},
			{ID: "generate_outreach", Agent: "OutreachContentAgent", Inputs: map[string]any{
				"leads": "{{ score_leads.output.ranked_leads }}",
				"top_n": float64(10),
			}},
			{ID: "analyze_feedback", Agent: "FeedbackTrainerAgent", Inputs: map[string]any{
				"messages": "{{ generate_outreach.output.messages }}",
			}},
		},
	}

	result := runner.Run(context.Background(), spec)

	if result.Status != domain.RunStatusCompleted {
		t.Fatalf("status = %s, want completed (error: %s)", result.Status, result.Error)
	}
	if !result.AllStepsCompleted() {
		t.Fatalf("not all steps completed: %+v", result.Steps)
	}
	if result.FinalState["leads_count"] != 8 {
		t.Errorf("leads_count = %v, want 8", result.FinalState["leads_count"])
	}
	if result.FinalState["ranked_leads_count"] != 8 {
		t.Errorf("ranked_leads_count = %v, want 8", result.FinalState["ranked_leads_count"])
	}
	if result.FinalState["messages_count"] != 8 {
		t.Errorf("messages_count = %v, want 8", result.FinalState["messages_count"])
	}
	if recs := result.FinalState["recommendations_count"]; recs != 5 {
		t.Errorf("recommendations_count = %v, want 5", recs)
	}
}
