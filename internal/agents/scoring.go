package agents

import (
	"context"
	"log/slog"
	"math"
	"sort"
)

// Веса компонентов итогового score.
const (
	weightRevenue   = 0.3
	weightEmployees = 0.2
	weightSignal    = 0.5
)

// ScoringAgent ранжирует лиды по взвешенному score: выручка,
// численность, сигнал роста.
type ScoringAgent struct {
	agentID string
	cfg     Config
	logger  *slog.Logger
}

// NewScoringAgent создаёт агента скоринга для шага agentID.
func NewScoringAgent(agentID string, cfg Config, logger *slog.Logger) *ScoringAgent {
	return &ScoringAgent{agentID: agentID, cfg: cfg, logger: logger}
}

// ID возвращает идентификатор шага.
func (a *ScoringAgent) ID() string { return a.agentID }

// Run считает score каждого лида и сортирует по убыванию.
//
// Входы:
//
//	leads  список — лиды из шага поиска
//
// Output: ranked_leads (с полями score и rank), scored_count.
// Без входа leads возвращает пустой результат — это не ошибка.
func (a *ScoringAgent) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	leads := inputList(inputs, "leads")
	if leads == nil {
		a.logger.Warn("scoring got no leads input", slog.String("step_id", a.agentID))
		return map[string]any{
			"ranked_leads": []any{},
			"scored_count": float64(0),
		}, nil
	}

	scored := make([]map[string]any, 0, len(leads))
	for _, item := range leads {
		lead, err := asItem(item)
		if err != nil {
			a.logger.Warn("skipping malformed lead", slog.String("step_id", a.agentID), slog.Any("error", err))
			continue
		}
		entry := make(map[string]any, len(lead)+2)
		for k, v := range lead {
			entry[k] = v
		}
		entry["score"] = scoreLead(lead)
		scored = append(scored, entry)
	}

	// Стабильная сортировка: при равных score сохраняется порядок
	// поисковой выдачи, ранжирование детерминировано.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i]["score"].(float64) > scored[j]["score"].(float64)
	})

	ranked := make([]any, 0, len(scored))
	for i, lead := range scored {
		lead["rank"] = float64(i + 1)
		ranked = append(ranked, lead)
	}

	a.logger.Info("scoring done",
		slog.String("step_id", a.agentID),
		slog.Int("scored_count", len(ranked)),
	)

	return map[string]any{
		"ranked_leads": ranked,
		"scored_count": float64(len(ranked)),
	}, nil
}

// scoreLead — взвешенный score лида, 0..100.
func scoreLead(lead map[string]any) float64 {
	revenue := itemFloat(lead, "revenue_usd")
	employees := itemFloat(lead, "employee_count")
	signal := itemString(lead, "signal")

	score := weightRevenue*revenueScore(revenue) +
		weightEmployees*employeeScore(employees) +
		weightSignal*signalScore(signal)

	score = math.Min(score, 100)
	return math.Round(score*100) / 100
}

// revenueScore — линейная шкала на диапазоне $20M..$200M.
func revenueScore(revenue float64) float64 {
	const lo, hi = 20_000_000, 200_000_000
	if revenue <= lo {
		return 0
	}
	if revenue >= hi {
		return 100
	}
	return (revenue - lo) / (hi - lo) * 100
}

// employeeScore — sweet spot 100..1000 сотрудников.
func employeeScore(employees float64) float64 {
	switch {
	case employees >= 100 && employees <= 1000:
		return 100
	case employees > 1000:
		return 80
	default:
		return employees / 100 * 80
	}
}

// signalScore — наличие сигнала роста.
func signalScore(signal string) float64 {
	if signal != "" {
		return 100
	}
	return 50
}
