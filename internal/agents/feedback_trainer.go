package agents

import (
	"context"
	"log/slog"
	"math"
	"sort"
)

// Фиксированные конверсии кампании для детерминированной аналитики.
// Реальная интеграция с почтовым провайдером заменит их фактическими
// событиями доставки.
const (
	assumedOpenRate  = 0.35
	assumedReplyRate = 0.12
	assumedClickRate = 0.18
)

// maxRecommendations — предел выдачи рекомендаций за один прогон.
const maxRecommendations = 5

// FeedbackTrainerAgent анализирует результаты outreach-кампании
// и формирует рекомендации по улучшению пайплайна. Рекомендации
// не применяются автоматически: статус pending_approval, решение
// за человеком.
type FeedbackTrainerAgent struct {
	agentID string
	cfg     Config
	logger  *slog.Logger
}

// NewFeedbackTrainerAgent создаёт агента аналитики для шага agentID.
func NewFeedbackTrainerAgent(agentID string, cfg Config, logger *slog.Logger) *FeedbackTrainerAgent {
	return &FeedbackTrainerAgent{agentID: agentID, cfg: cfg, logger: logger}
}

// ID возвращает идентификатор шага.
func (a *FeedbackTrainerAgent) ID() string { return a.agentID }

// Run считает метрики кампании и формирует рекомендации.
//
// Входы:
//
//	messages  список — отправленные письма
//
// Output: metrics, recommendations (не более пяти, по убыванию
// приоритета и уверенности), status "pending_approval".
func (a *FeedbackTrainerAgent) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messages := inputList(inputs, "messages")
	if messages == nil {
		a.logger.Warn("feedback trainer got no messages input", slog.String("step_id", a.agentID))
	}

	sent := len(messages)
	opens := int(math.Round(float64(sent) * assumedOpenRate))
	replies := int(math.Round(float64(sent) * assumedReplyRate))
	clicks := int(math.Round(float64(sent) * assumedClickRate))

	metrics := map[string]any{
		"emails_sent": float64(sent),
		"opens":       float64(opens),
		"replies":     float64(replies),
		"clicks":      float64(clicks),
		"open_rate":   rate(opens, sent),
		"reply_rate":  rate(replies, sent),
		"click_rate":  rate(clicks, sent),
	}

	recs := buildRecommendations(rate(opens, sent), rate(replies, sent), rate(clicks, sent))

	a.logger.Info("feedback analysis done",
		slog.String("step_id", a.agentID),
		slog.Int("emails_sent", sent),
		slog.Int("recommendations", len(recs)),
	)

	return map[string]any{
		"metrics":         metrics,
		"recommendations": recs,
		"status":          "pending_approval",
	}, nil
}

// rate — доля с округлением до четырёх знаков.
func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 10000
}

// recommendation — внутреннее представление одной рекомендации.
type recommendation struct {
	category   string
	priority   string
	confidence float64
	suggestion string
}

// priorityWeight задаёт порядок сортировки приоритетов.
var priorityWeight = map[string]int{"high": 3, "medium": 2, "low": 1}

// buildRecommendations применяет правила к метрикам кампании.
func buildRecommendations(openRate, replyRate, clickRate float64) []any {
	var recs []recommendation

	if openRate < 0.40 {
		recs = append(recs, recommendation{
			category:   "subject_line",
			priority:   "high",
			confidence: 0.85,
			suggestion: "Open rate is below 40%. Test shorter subject lines that lead with the prospect's company name.",
		})
	}
	if replyRate < 0.15 {
		recs = append(recs, recommendation{
			category:   "email_content",
			priority:   "high",
			confidence: 0.80,
			suggestion: "Reply rate is below 15%. Shorten the body to three sentences and end with a single yes/no question.",
		})
	}
	if clickRate < 0.20 {
		recs = append(recs, recommendation{
			category:   "icp_targeting",
			priority:   "medium",
			confidence: 0.70,
			suggestion: "Click rate is below 20%. Narrow the employee range to companies actively hiring for sales roles.",
		})
	}
	recs = append(recs,
		recommendation{
			category:   "send_timing",
			priority:   "medium",
			confidence: 0.65,
			suggestion: "Schedule sends for Tuesday-Thursday mornings in the prospect's timezone.",
		},
		recommendation{
			category:   "follow_up",
			priority:   "low",
			confidence: 0.60,
			suggestion: "Add a two-touch follow-up sequence at +3 and +7 days for non-responders.",
		},
	)

	sort.SliceStable(recs, func(i, j int) bool {
		if priorityWeight[recs[i].priority] != priorityWeight[recs[j].priority] {
			return priorityWeight[recs[i].priority] > priorityWeight[recs[j].priority]
		}
		return recs[i].confidence > recs[j].confidence
	})
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}

	out := make([]any, 0, len(recs))
	for _, r := range recs {
		out = append(out, map[string]any{
			"category":   r.category,
			"priority":   r.priority,
			"confidence": r.confidence,
			"suggestion": r.suggestion,
		})
	}
	return out
}
