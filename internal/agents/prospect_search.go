package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/leadflow/internal/salesapi"
)

// ProspectSearchAgent ищет компании, подходящие под ICP
// (ideal customer profile): отрасль, диапазон численности,
// сигналы роста.
type ProspectSearchAgent struct {
	agentID string
	cfg     Config
	sales   *salesapi.Client
	logger  *slog.Logger
}

// NewProspectSearchAgent создаёт агента поиска для шага agentID.
func NewProspectSearchAgent(agentID string, cfg Config, sales *salesapi.Client, logger *slog.Logger) *ProspectSearchAgent {
	return &ProspectSearchAgent{agentID: agentID, cfg: cfg, sales: sales, logger: logger}
}

// ID возвращает идентификатор шага.
func (a *ProspectSearchAgent) ID() string { return a.agentID }

// Run выполняет поиск.
//
// Входы:
//
//	industry       string — отрасль (опционально)
//	min_employees  число  — нижняя граница численности
//	max_employees  число  — верхняя граница численности
//	signals        список — интересующие сигналы роста
//
// Output: leads (список карточек), total_found, search_criteria.
func (a *ProspectSearchAgent) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	query := salesapi.SearchQuery{
		Industry:     inputString(inputs, "industry", ""),
		MinEmployees: inputInt(inputs, "min_employees", 0),
		MaxEmployees: inputInt(inputs, "max_employees", 0),
	}
	for _, s := range inputList(inputs, "signals") {
		if str, ok := s.(string); ok {
			query.Signals = append(query.Signals, str)
		}
	}

	companies, err := a.sales.SearchCompanies(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search companies: %w", err)
	}

	leads := make([]any, 0, len(companies))
	for _, c := range companies {
		leads = append(leads, leadFromCompany(c))
	}

	a.logger.Info("prospect search done",
		slog.String("step_id", a.agentID),
		slog.Int("total_found", len(leads)),
	)

	return map[string]any{
		"leads":       leads,
		"total_found": float64(len(leads)),
		"search_criteria": map[string]any{
			"industry":      query.Industry,
			"min_employees": float64(query.MinEmployees),
			"max_employees": float64(query.MaxEmployees),
			"signals":       inputs["signals"],
		},
	}, nil
}

// leadFromCompany переводит карточку компании в JSON-совместимую
// форму состояния (map и float64, как после json.Unmarshal).
func leadFromCompany(c salesapi.Company) map[string]any {
	return map[string]any{
		"company_name":   c.Name,
		"domain":         c.Domain,
		"industry":       c.Industry,
		"employee_count": float64(c.EmployeeCount),
		"revenue_usd":    c.RevenueUSD,
		"signal":         c.Signal,
		"contact_name":   c.ContactName,
		"contact_title":  c.ContactTitle,
		"contact_email":  c.ContactEmail,
	}
}
