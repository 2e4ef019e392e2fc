package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/leadflow/internal/salesapi"
)

// defaultTopN — сколько лидов получают письмо, если top_n не задан.
const defaultTopN = 10

// OutreachContentAgent генерирует персонализированные outreach-письма
// для верхних лидов ранжированного списка.
type OutreachContentAgent struct {
	agentID string
	cfg     Config
	sales   *salesapi.Client
	logger  *slog.Logger
}

// NewOutreachContentAgent создаёт агента генерации писем для шага agentID.
func NewOutreachContentAgent(agentID string, cfg Config, sales *salesapi.Client, logger *slog.Logger) *OutreachContentAgent {
	return &OutreachContentAgent{agentID: agentID, cfg: cfg, sales: sales, logger: logger}
}

// ID возвращает идентификатор шага.
func (a *OutreachContentAgent) ID() string { return a.agentID }

// Run генерирует письма.
//
// Входы:
//
//	leads  список — ранжированные лиды
//	top_n  число  — сколько верхних лидов обработать (по умолчанию 10)
//
// Output: messages, generated_count. Пустой вход — пустой результат.
func (a *OutreachContentAgent) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	leads := inputList(inputs, "leads")
	if leads == nil {
		a.logger.Warn("outreach got no leads input", slog.String("step_id", a.agentID))
		return map[string]any{
			"messages":        []any{},
			"generated_count": float64(0),
		}, nil
	}

	// top_n приходит из workflow JSON и может быть любым числом:
	// отрицательное значение означает "никому".
	topN := inputInt(inputs, "top_n", defaultTopN)
	if topN < 0 {
		topN = 0
	}
	if topN > len(leads) {
		topN = len(leads)
	}

	messages := make([]any, 0, topN)
	for _, item := range leads[:topN] {
		lead, err := asItem(item)
		if err != nil {
			a.logger.Warn("skipping malformed lead", slog.String("step_id", a.agentID), slog.Any("error", err))
			continue
		}

		company := salesapi.Company{
			Name:          itemString(lead, "company_name"),
			Industry:      itemString(lead, "industry"),
			EmployeeCount: int(itemFloat(lead, "employee_count")),
			Signal:        itemString(lead, "signal"),
			ContactName:   itemString(lead, "contact_name"),
		}
		email, err := a.sales.GenerateEmail(ctx, company)
		if err != nil {
			return nil, fmt.Errorf("generate email for %s: %w", company.Name, err)
		}

		messages = append(messages, map[string]any{
			"lead":         company.Name,
			"email":        itemString(lead, "contact_email"),
			"contact_name": company.ContactName,
			"subject":      email.Subject,
			"email_body":   email.Body,
			"generated_by": "OutreachContentAgent",
		})
	}

	a.logger.Info("outreach content done",
		slog.String("step_id", a.agentID),
		slog.Int("generated_count", len(messages)),
	)

	return map[string]any{
		"messages":        messages,
		"generated_count": float64(len(messages)),
	}, nil
}
