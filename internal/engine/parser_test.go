package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/leadflow/internal/domain"
)

func validSpec() *domain.WorkflowSpec {
	return &domain.WorkflowSpec{
		Name: "lead_generation_pipeline",
		Steps: []domain.StepSpec{
			{ID: "find_prospects", Agent: "ProspectSearchAgent", Inputs: map[string]any{
				"industry": "B2B SaaS",
			}},
			{ID: "score_leads", Agent: "ScoringAgent", Inputs: map[string]any{
				"leads": "{{ find_prospects.output.leads }}",
			}},
		},
	}
}

func TestParseWorkflow(t *testing.T) {
	data := []byte(`{
		"workflow_name": "lead_generation_pipeline",
		"description": "Find, score and contact prospects",
		"unknown_future_field": true,
		"steps": [
			{"id": "find_prospects", "agent": "ProspectSearchAgent", "inputs": {"industry": "B2B SaaS"}}
		]
	}`)

	spec, err := ParseWorkflow(data)
	if err != nil {
		t.Fatalf("ParseWorkflow: %v", err)
	}
	if spec.Name != "lead_generation_pipeline" {
		t.Errorf("Name = %q", spec.Name)
	}
	if len(spec.Steps) != 1 || spec.Steps[0].Agent != "ProspectSearchAgent" {
		t.Errorf("Steps = %+v", spec.Steps)
	}
}

func TestParseWorkflowInvalidJSON(t *testing.T) {
	_, err := ParseWorkflow([]byte(`{not json`))
	if !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("error = %v, want ErrInvalidSpec", err)
	}
}

func TestValidate(t *testing.T) {
	known := func(name string) bool {
		return name == "ProspectSearchAgent" || name == "ScoringAgent"
	}

	tests := []struct {
		name    string
		mutate  func(*domain.WorkflowSpec)
		wantErr error
	}{
		{
			name:   "валидный workflow",
			mutate: func(s *domain.WorkflowSpec) {},
		},
		{
			name:    "нет шагов",
			mutate:  func(s *domain.WorkflowSpec) { s.Steps = nil },
			wantErr: ErrNoSteps,
		},
		{
			name:    "пустой ID шага",
			mutate:  func(s *domain.WorkflowSpec) { s.Steps[0].ID = "" },
			wantErr: ErrEmptyStepID,
		},
		{
			name:    "дубликат ID",
			mutate:  func(s *domain.WorkflowSpec) { s.Steps[1].ID = "find_prospects" },
			wantErr: ErrDuplicateStepID,
		},
		{
			name:    "зарезервированный ID",
			mutate:  func(s *domain.WorkflowSpec) { s.Steps[0].ID = MetaEntryID },
			wantErr: ErrReservedStepID,
		},
		{
			name:    "пустой агент",
			mutate:  func(s *domain.WorkflowSpec) { s.Steps[0].Agent = "" },
			wantErr: ErrEmptyAgentName,
		},
		{
			name:    "неизвестный агент",
			mutate:  func(s *domain.WorkflowSpec) { s.Steps[0].Agent = "TelepathyAgent" },
			wantErr: ErrUnknownAgent,
		},
		{
			name: "непарные маркеры в inputs",
			mutate: func(s *domain.WorkflowSpec) {
				s.Steps[1].Inputs["leads"] = "{{ find_prospects.output.leads"
			},
			wantErr: ErrUnbalancedMarkers,
		},
		{
			name: "сломанная грамматика во вложенном input",
			mutate: func(s *domain.WorkflowSpec) {
				s.Steps[1].Inputs["extra"] = map[string]any{
					"ref": "{{ find_prospects.leads }}",
				}
			},
			wantErr: ErrBadExpression,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(spec)

			err := Validate(spec, known)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate error = %v, want %v", err, tt.wantErr)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %v is not *ValidationError", err)
			}
		})
	}
}

func TestValidateNilRegistryCheck(t *testing.T) {
	spec := validSpec()
	spec.Steps[0].Agent = "TotallyUnknownAgent"

	// Без knownAgent проверка реестра пропускается (валидация в CLI
	// без подключения к runner'у).
	if err := Validate(spec, nil); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
