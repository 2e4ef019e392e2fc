package salesapi

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSearchCompanies(t *testing.T) {
	client := NewClient(Config{}, slog.Default())
	ctx := context.Background()

	tests := []struct {
		name  string
		query SearchQuery
		want  int
	}{
		{name: "весь каталог", query: SearchQuery{}, want: 8},
		{name: "фильтр по отрасли", query: SearchQuery{Industry: "B2B SaaS"}, want: 8},
		{name: "чужая отрасль", query: SearchQuery{Industry: "FinTech"}, want: 0},
		{name: "диапазон численности", query: SearchQuery{MinEmployees: 100, MaxEmployees: 300}, want: 4},
		{name: "только funding", query: SearchQuery{Signals: []string{"recent_funding"}}, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.SearchCompanies(ctx, tt.query)
			if err != nil {
				t.Fatalf("SearchCompanies: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSearchCompaniesDeterministic(t *testing.T) {
	client := NewClient(Config{}, slog.Default())
	ctx := context.Background()

	a, err := client.SearchCompanies(ctx, SearchQuery{Industry: "B2B SaaS"})
	if err != nil {
		t.Fatalf("SearchCompanies: %v", err)
	}
	b, err := client.SearchCompanies(ctx, SearchQuery{Industry: "B2B SaaS"})
	if err != nil {
		t.Fatalf("SearchCompanies: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			t.Errorf("order differs at %d: %q vs %q", i, a[i].Name, b[i].Name)
		}
	}
}

func TestGenerateEmail(t *testing.T) {
	client := NewClient(Config{}, slog.Default())
	ctx := context.Background()

	tests := []struct {
		name        string
		company     Company
		wantSubject string
	}{
		{
			name:        "сигнал funding",
			company:     Company{Name: "CloudSync Technologies", Signal: "recent_funding", ContactName: "Sarah Mitchell"},
			wantSubject: "Congrats on CloudSync Technologies's recent funding!",
		},
		{
			name:        "сигнал hiring",
			company:     Company{Name: "DataFlow Systems", Signal: "hiring_for_sales", ContactName: "Michael Chen"},
			wantSubject: "Scaling DataFlow Systems's sales team?",
		},
		{
			name:        "без сигнала",
			company:     Company{Name: "Acme", ContactName: "Jane Doe"},
			wantSubject: "Quick idea for Acme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := client.GenerateEmail(ctx, tt.company)
			if err != nil {
				t.Fatalf("GenerateEmail: %v", err)
			}
			if email.Subject != tt.wantSubject {
				t.Errorf("Subject = %q, want %q", email.Subject, tt.wantSubject)
			}
			firstName := strings.Split(tt.company.ContactName, " ")[0]
			if !strings.HasPrefix(email.Body, "Hi "+firstName+",") {
				t.Errorf("Body greeting = %q", email.Body[:min(40, len(email.Body))])
			}
		})
	}
}
