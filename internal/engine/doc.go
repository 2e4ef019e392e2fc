// Package engine реализует ядро выполнения workflow: парсинг и
// валидацию спецификаций, типизированные шаблонные выражения и
// накопленное состояние run.
//
// Шаблонные выражения связывают шаги между собой:
//
//	{{ find_prospects.output.leads }}
//
// Выражение ссылается на output уже выполненного шага. Плейсхолдер
// во всю строку разрешается в нативное значение (список, map,
// скаляр); плейсхолдер внутри текста — в строковую подстановку.
// Ссылка на отсутствующий шаг или поле даёт маркер Unresolved —
// сигнал оркестратору пропустить зависимый шаг, не прерывая run.
//
// Синтаксические ошибки шаблонов (непарные маркеры, невалидная
// грамматика) — ошибки конфигурации: Validate ловит их до начала
// выполнения.
package engine
