package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Output форматирует результаты команд: таблицы для людей, JSON для
// скриптов. Данные пишутся в stdout, статусные сообщения — в stderr,
// чтобы вывод можно было передавать по конвейеру.
type Output struct {
	asJSON bool
	data   io.Writer
	status io.Writer
}

// NewOutput создаёт Output. asJSON переключает табличный вывод на JSON.
func NewOutput(asJSON bool) *Output {
	return &Output{
		asJSON: asJSON,
		data:   os.Stdout,
		status: os.Stderr,
	}
}

// Print выводит список: таблицей либо JSON-представлением jsonData.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.asJSON {
		o.JSON(jsonData)
		return
	}

	if len(rows) == 0 {
		fmt.Fprintln(o.status, "no results")
		return
	}

	tw := tabwriter.NewWriter(o.data, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

// JSON выводит значение в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.data)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success выводит статусное сообщение.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.status, msg)
}

// Error выводит сообщение об ошибке.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.status, "Error: "+msg)
}
