package agents

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/shaiso/leadflow/internal/salesapi"
)

// Registry — реестр фабрик агентов.
//
// Имя агента из спецификации шага разрешается в фабрику; фабрика
// создаёт экземпляр агента, привязанный к шагу. Реестр заполняется
// при старте процесса и далее только читается.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register регистрирует фабрику под именем агента.
// Повторная регистрация перезаписывает предыдущую фабрику.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// New создаёт экземпляр агента name для шага agentID.
func (r *Registry) New(name, agentID string, cfg Config) (Agent, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAgentNotFound, name)
	}
	return factory(agentID, cfg)
}

// Has проверяет, зарегистрировано ли имя агента.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Names возвращает отсортированный список зарегистрированных имён.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count возвращает количество зарегистрированных агентов.
func (r *Registry) Count() int {
	return len(r.factories)
}

// Deps — зависимости стандартного набора агентов.
type Deps struct {
	// Sales — клиент внешних sales-сервисов.
	Sales *salesapi.Client

	// Logger — логгер агентов.
	Logger *slog.Logger
}

// DefaultRegistry создаёт реестр со стандартным набором агентов
// lead-generation пайплайна.
func DefaultRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Sales == nil {
		deps.Sales = salesapi.NewClient(salesapi.Config{}, deps.Logger)
	}

	r := NewRegistry()
	r.Register("ProspectSearchAgent", func(agentID string, cfg Config) (Agent, error) {
		return NewProspectSearchAgent(agentID, cfg, deps.Sales, deps.Logger), nil
	})
	r.Register("ScoringAgent", func(agentID string, cfg Config) (Agent, error) {
		return NewScoringAgent(agentID, cfg, deps.Logger), nil
	})
	r.Register("OutreachContentAgent", func(agentID string, cfg Config) (Agent, error) {
		return NewOutreachContentAgent(agentID, cfg, deps.Sales, deps.Logger), nil
	})
	r.Register("FeedbackTrainerAgent", func(agentID string, cfg Config) (Agent, error) {
		return NewFeedbackTrainerAgent(agentID, cfg, deps.Logger), nil
	})
	return r
}
