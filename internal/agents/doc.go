// Package agents — реализации агентов lead-generation пайплайна
// и реестр их фабрик.
//
// Агент — исполнитель одного шага workflow. Имя агента из
// спецификации разрешается через Registry в фабрику; неизвестное
// имя ловится валидацией до начала выполнения.
//
// Стандартный набор:
//
//	ProspectSearchAgent  — поиск компаний под ICP
//	ScoringAgent         — взвешенное ранжирование лидов
//	OutreachContentAgent — генерация персонализированных писем
//	FeedbackTrainerAgent — метрики кампании и рекомендации
package agents
