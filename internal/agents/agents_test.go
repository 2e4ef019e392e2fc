package agents

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shaiso/leadflow/internal/salesapi"
)

func testDeps() Deps {
	logger := slog.Default()
	return Deps{
		Sales:  salesapi.NewClient(salesapi.Config{}, logger),
		Logger: logger,
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry(testDeps())

	want := []string{
		"FeedbackTrainerAgent",
		"OutreachContentAgent",
		"ProspectSearchAgent",
		"ScoringAgent",
	}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	agent, err := r.New("ScoringAgent", "score_leads", Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if agent.ID() != "score_leads" {
		t.Errorf("ID() = %q, want score_leads", agent.ID())
	}

	_, err = r.New("TelepathyAgent", "x", Config{})
	if !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("New(unknown) error = %v, want ErrAgentNotFound", err)
	}
}

func TestProspectSearchAgent(t *testing.T) {
	deps := testDeps()
	agent := NewProspectSearchAgent("find_prospects", Config{}, deps.Sales, deps.Logger)

	out, err := agent.Run(context.Background(), map[string]any{
		"industry":      "B2B SaaS",
		"min_employees": float64(100),
		"max_employees": float64(500),
		"signals":       []any{"recent_funding", "hiring_for_sales"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	leads, ok := out["leads"].([]any)
	if !ok {
		t.Fatalf("leads = %T, want []any", out["leads"])
	}
	// Каталог содержит одну компанию крупнее 500 человек.
	if len(leads) != 7 {
		t.Errorf("len(leads) = %d, want 7", len(leads))
	}
	if out["total_found"] != float64(len(leads)) {
		t.Errorf("total_found = %v", out["total_found"])
	}

	first, _ := leads[0].(map[string]any)
	for _, field := range []string{"company_name", "contact_email", "signal", "employee_count", "revenue_usd"} {
		if _, ok := first[field]; !ok {
			t.Errorf("lead missing field %q", field)
		}
	}
}

func TestScoringAgent(t *testing.T) {
	deps := testDeps()
	agent := NewScoringAgent("score_leads", Config{}, deps.Logger)

	leads := []any{
		map[string]any{"company_name": "Small", "revenue_usd": float64(20_000_000), "employee_count": float64(50), "signal": ""},
		map[string]any{"company_name": "Big", "revenue_usd": float64(200_000_000), "employee_count": float64(500), "signal": "recent_funding"},
		map[string]any{"company_name": "Mid", "revenue_usd": float64(110_000_000), "employee_count": float64(300), "signal": "hiring_for_sales"},
	}

	out, err := agent.Run(context.Background(), map[string]any{"leads": leads})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	ranked, ok := out["ranked_leads"].([]any)
	if !ok || len(ranked) != 3 {
		t.Fatalf("ranked_leads = %v", out["ranked_leads"])
	}

	wantOrder := []string{"Big", "Mid", "Small"}
	for i, item := range ranked {
		lead := item.(map[string]any)
		if lead["company_name"] != wantOrder[i] {
			t.Errorf("rank %d: %v, want %s", i+1, lead["company_name"], wantOrder[i])
		}
		if lead["rank"] != float64(i+1) {
			t.Errorf("rank field = %v, want %d", lead["rank"], i+1)
		}
	}

	// Big: выручка 100, численность 100, сигнал 100 → ровно 100.
	top := ranked[0].(map[string]any)
	if top["score"] != float64(100) {
		t.Errorf("top score = %v, want 100", top["score"])
	}
	// Small: выручка 0, численность 40, сигнал 50 → 0.2*40 + 0.5*50 = 33.
	bottom := ranked[2].(map[string]any)
	if bottom["score"] != float64(33) {
		t.Errorf("bottom score = %v, want 33", bottom["score"])
	}

	// Вход не мутируется.
	original := leads[0].(map[string]any)
	if _, ok := original["score"]; ok {
		t.Error("input lead was mutated with score field")
	}
}

func TestScoringAgentNoInput(t *testing.T) {
	deps := testDeps()
	agent := NewScoringAgent("score_leads", Config{}, deps.Logger)

	out, err := agent.Run(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out["scored_count"] != float64(0) {
		t.Errorf("scored_count = %v, want 0", out["scored_count"])
	}
	if ranked, ok := out["ranked_leads"].([]any); !ok || len(ranked) != 0 {
		t.Errorf("ranked_leads = %v, want empty list", out["ranked_leads"])
	}
}

func TestOutreachContentAgent(t *testing.T) {
	deps := testDeps()
	agent := NewOutreachContentAgent("generate_outreach", Config{}, deps.Sales, deps.Logger)

	leads := []any{
		map[string]any{
			"company_name": "CloudSync Technologies", "industry": "B2B SaaS",
			"employee_count": float64(250), "signal": "recent_funding",
			"contact_name": "Sarah Mitchell", "contact_email": "sarah.mitchell@cloudsync.io",
		},
		map[string]any{
			"company_name": "DataFlow Systems", "industry": "B2B SaaS",
			"employee_count": float64(420), "signal": "hiring_for_sales",
			"contact_name": "Michael Chen", "contact_email": "michael.chen@dataflow.com",
		},
		map[string]any{
			"company_name": "AutoScale Inc", "industry": "B2B SaaS",
			"employee_count": float64(180), "signal": "recent_funding",
			"contact_name": "Jennifer Rodriguez", "contact_email": "jennifer.rodriguez@autoscale.dev",
		},
	}

	out, err := agent.Run(context.Background(), map[string]any{
		"leads": leads,
		"top_n": float64(2),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	messages, ok := out["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("messages = %v, want 2 entries", out["messages"])
	}
	if out["generated_count"] != float64(2) {
		t.Errorf("generated_count = %v", out["generated_count"])
	}

	msg := messages[0].(map[string]any)
	if msg["lead"] != "CloudSync Technologies" {
		t.Errorf("lead = %v", msg["lead"])
	}
	if msg["subject"] != "Congrats on CloudSync Technologies's recent funding!" {
		t.Errorf("subject = %v", msg["subject"])
	}
	if msg["email"] != "sarah.mitchell@cloudsync.io" {
		t.Errorf("email = %v", msg["email"])
	}
	if msg["generated_by"] != "OutreachContentAgent" {
		t.Errorf("generated_by = %v", msg["generated_by"])
	}
}

func TestOutreachContentAgentTopNBounds(t *testing.T) {
	deps := testDeps()
	agent := NewOutreachContentAgent("generate_outreach", Config{}, deps.Sales, deps.Logger)

	leads := []any{
		map[string]any{"company_name": "A", "contact_name": "a"},
		map[string]any{"company_name": "B", "contact_name": "b"},
	}

	tests := []struct {
		name  string
		topN  float64
		count int
	}{
		{"отрицательный top_n — пустой результат", -1, 0},
		{"нулевой top_n — пустой результат", 0, 0},
		{"top_n больше списка — весь список", 100, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := agent.Run(context.Background(), map[string]any{
				"leads": leads,
				"top_n": tt.topN,
			})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			messages, ok := out["messages"].([]any)
			if !ok || len(messages) != tt.count {
				t.Errorf("messages = %v, want %d entries", out["messages"], tt.count)
			}
			if out["generated_count"] != float64(tt.count) {
				t.Errorf("generated_count = %v, want %d", out["generated_count"], tt.count)
			}
		})
	}
}

func TestFeedbackTrainerAgent(t *testing.T) {
	deps := testDeps()
	agent := NewFeedbackTrainerAgent("analyze_feedback", Config{}, deps.Logger)

	messages := make([]any, 8)
	for i := range messages {
		messages[i] = map[string]any{"lead": "x", "subject": "y"}
	}

	out, err := agent.Run(context.Background(), map[string]any{"messages": messages})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	metrics, ok := out["metrics"].(map[string]any)
	if !ok {
		t.Fatalf("metrics = %T", out["metrics"])
	}
	if metrics["emails_sent"] != float64(8) {
		t.Errorf("emails_sent = %v, want 8", metrics["emails_sent"])
	}
	// 8 писем при конверсии 35% — три открытия.
	if metrics["opens"] != float64(3) {
		t.Errorf("opens = %v, want 3", metrics["opens"])
	}

	recs, ok := out["recommendations"].([]any)
	if !ok {
		t.Fatalf("recommendations = %T", out["recommendations"])
	}
	if len(recs) == 0 || len(recs) > 5 {
		t.Fatalf("len(recommendations) = %d, want 1..5", len(recs))
	}

	// Высокоприоритетные рекомендации идут первыми.
	first := recs[0].(map[string]any)
	if first["priority"] != "high" {
		t.Errorf("first priority = %v, want high", first["priority"])
	}

	if out["status"] != "pending_approval" {
		t.Errorf("status = %v, want pending_approval", out["status"])
	}
}

func TestFeedbackTrainerAgentDeterministic(t *testing.T) {
	deps := testDeps()
	agent := NewFeedbackTrainerAgent("analyze_feedback", Config{}, deps.Logger)

	inputs := map[string]any{"messages": []any{
		map[string]any{"lead": "a"},
		map[string]any{"lead": "b"},
	}}

	a, err := agent.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := agent.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	am := a["metrics"].(map[string]any)
	bm := b["metrics"].(map[string]any)
	for k := range am {
		if am[k] != bm[k] {
			t.Errorf("metric %q differs between runs: %v vs %v", k, am[k], bm[k])
		}
	}
	if len(a["recommendations"].([]any)) != len(b["recommendations"].([]any)) {
		t.Error("recommendation counts differ between runs")
	}
}
