// Package orchestrator — последовательное выполнение workflow.
//
// Runner валидирует спецификацию, выполняет шаги строго по порядку
// и собирает итоговый документ ExecutionResult. Ошибки делятся на
// две категории:
//
//   - configuration — невалидная спецификация или неизвестный агент;
//     фатальны, run завершается failed до выполнения шагов;
//   - execution — сбой агента; не фатален, run продолжает выполнять
//     следующие шаги, а сбой фиксируется в следе выполнения.
//
// Шаг с неразрешёнными ссылками на упавший upstream пропускается
// (skipped), не считаясь ошибкой. Итоговый статус определяет
// Policy: best_effort или strict.
package orchestrator
