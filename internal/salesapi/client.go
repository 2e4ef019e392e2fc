package salesapi

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Config — ключи внешних sales-сервисов.
//
// Клиент работает в mock-режиме, когда ключи пустые: возвращает
// детерминированный каталог компаний. Это штатный режим для
// разработки и тестов.
type Config struct {
	// ClayAPIKey — ключ Clay (обогащение данных о компаниях).
	ClayAPIKey string

	// ApolloAPIKey — ключ Apollo (поиск контактов).
	ApolloAPIKey string

	// OpenAIAPIKey — ключ LLM-провайдера для генерации писем.
	OpenAIAPIKey string
}

// Company — карточка компании из поисковой выдачи.
type Company struct {
	// Name — название компании.
	Name string `json:"company_name"`

	// Domain — домен сайта.
	Domain string `json:"domain"`

	// Industry — отрасль.
	Industry string `json:"industry"`

	// EmployeeCount — численность сотрудников.
	EmployeeCount int `json:"employee_count"`

	// RevenueUSD — годовая выручка в долларах.
	RevenueUSD float64 `json:"revenue_usd"`

	// Signal — ключевой сигнал роста: recent_funding,
	// hiring_for_sales или пусто.
	Signal string `json:"signal,omitempty"`

	// ContactName — имя контактного лица.
	ContactName string `json:"contact_name"`

	// ContactTitle — должность контактного лица.
	ContactTitle string `json:"contact_title"`

	// ContactEmail — email контактного лица.
	ContactEmail string `json:"contact_email"`
}

// SearchQuery — параметры поиска компаний.
type SearchQuery struct {
	// Industry — отрасль для поиска.
	Industry string

	// MinEmployees — нижняя граница численности. 0 — без ограничения.
	MinEmployees int

	// MaxEmployees — верхняя граница численности. 0 — без ограничения.
	MaxEmployees int

	// Signals — интересующие сигналы роста. Пустой список — любые.
	Signals []string
}

// Email — сгенерированное outreach-письмо.
type Email struct {
	// Subject — тема письма.
	Subject string `json:"subject"`

	// Body — текст письма.
	Body string `json:"body"`
}

// Client — клиент внешних sales-сервисов (Clay, Apollo, LLM).
type Client struct {
	cfg    Config
	logger *slog.Logger
}

// NewClient создаёт клиент.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger}
}

// catalog — детерминированная выдача mock-режима. Порядок фиксирован:
// один и тот же запрос всегда даёт один и тот же результат.
var catalog = []Company{
	{
		Name: "CloudSync Technologies", Domain: "cloudsync.io",
		Industry: "B2B SaaS", EmployeeCount: 250, RevenueUSD: 45_000_000,
		Signal:      "recent_funding",
		ContactName: "Sarah Mitchell", ContactTitle: "VP of Sales",
		ContactEmail: "sarah.mitchell@cloudsync.io",
	},
	{
		Name: "DataFlow Systems", Domain: "dataflow.com",
		Industry: "B2B SaaS", EmployeeCount: 420, RevenueUSD: 78_000_000,
		Signal:      "hiring_for_sales",
		ContactName: "Michael Chen", ContactTitle: "Chief Revenue Officer",
		ContactEmail: "michael.chen@dataflow.com",
	},
	{
		Name: "AutoScale Inc", Domain: "autoscale.dev",
		Industry: "B2B SaaS", EmployeeCount: 180, RevenueUSD: 32_000_000,
		Signal:      "recent_funding",
		ContactName: "Jennifer Rodriguez", ContactTitle: "Head of Growth",
		ContactEmail: "jennifer.rodriguez@autoscale.dev",
	},
	{
		Name: "SecureAPI Solutions", Domain: "secureapi.net",
		Industry: "B2B SaaS", EmployeeCount: 310, RevenueUSD: 56_000_000,
		Signal:      "hiring_for_sales",
		ContactName: "David Park", ContactTitle: "VP of Business Development",
		ContactEmail: "david.park@secureapi.net",
	},
	{
		Name: "MetricsPro Analytics", Domain: "metricspro.io",
		Industry: "B2B SaaS", EmployeeCount: 150, RevenueUSD: 28_000_000,
		Signal:      "recent_funding",
		ContactName: "Amanda Johnson", ContactTitle: "Director of Sales",
		ContactEmail: "amanda.johnson@metricspro.io",
	},
	{
		Name: "PipelineHub", Domain: "pipelinehub.com",
		Industry: "B2B SaaS", EmployeeCount: 520, RevenueUSD: 95_000_000,
		Signal:      "hiring_for_sales",
		ContactName: "Robert Kim", ContactTitle: "SVP of Sales",
		ContactEmail: "robert.kim@pipelinehub.com",
	},
	{
		Name: "RevOps Platform", Domain: "revops.ai",
		Industry: "B2B SaaS", EmployeeCount: 290, RevenueUSD: 51_000_000,
		Signal:      "recent_funding",
		ContactName: "Lisa Thompson", ContactTitle: "VP of Revenue Operations",
		ContactEmail: "lisa.thompson@revops.ai",
	},
	{
		Name: "GrowthEngine AI", Domain: "growthengine.ai",
		Industry: "B2B SaaS", EmployeeCount: 380, RevenueUSD: 67_000_000,
		Signal:      "hiring_for_sales",
		ContactName: "James Wilson", ContactTitle: "Chief Sales Officer",
		ContactEmail: "james.wilson@growthengine.ai",
	},
}

// SearchCompanies ищет компании по критериям ICP.
//
// В mock-режиме фильтрует фиксированный каталог. Результат
// детерминирован: порядок совпадает с порядком каталога.
func (c *Client) SearchCompanies(ctx context.Context, q SearchQuery) ([]Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Company
	for _, company := range catalog {
		if q.Industry != "" && !strings.EqualFold(company.Industry, q.Industry) {
			continue
		}
		if q.MinEmployees > 0 && company.EmployeeCount < q.MinEmployees {
			continue
		}
		if q.MaxEmployees > 0 && company.EmployeeCount > q.MaxEmployees {
			continue
		}
		if len(q.Signals) > 0 && !containsFold(q.Signals, company.Signal) {
			continue
		}
		out = append(out, company)
	}

	c.logger.Debug("companies search",
		slog.String("industry", q.Industry),
		slog.Int("found", len(out)),
	)
	return out, nil
}

// GenerateEmail генерирует outreach-письмо для компании.
//
// Тема выбирается по сигналу роста, тело — по шаблону. Вызов
// детерминирован: одна компания — одно и то же письмо.
func (c *Client) GenerateEmail(ctx context.Context, company Company) (Email, error) {
	if err := ctx.Err(); err != nil {
		return Email{}, err
	}

	var subject string
	switch company.Signal {
	case "recent_funding":
		subject = fmt.Sprintf("Congrats on %s's recent funding!", company.Name)
	case "hiring_for_sales":
		subject = fmt.Sprintf("Scaling %s's sales team?", company.Name)
	default:
		subject = fmt.Sprintf("Quick idea for %s", company.Name)
	}

	firstName := company.ContactName
	if i := strings.IndexByte(firstName, ' '); i > 0 {
		firstName = firstName[:i]
	}

	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"I noticed %s has been growing quickly in the %s space. "+
			"Teams at your stage usually hit a wall with manual prospecting "+
			"right around the %d-person mark.\n\n"+
			"We help sales teams automate lead research and outreach so reps "+
			"spend their time on conversations, not spreadsheets.\n\n"+
			"Would you be open to a quick 15-minute call this week?\n\n"+
			"Best,\nAlex",
		firstName, company.Name, company.Industry, company.EmployeeCount,
	)

	return Email{Subject: subject, Body: body}, nil
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
