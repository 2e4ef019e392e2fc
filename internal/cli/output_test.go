package cli

import (
	"bytes"
	"strings"
	"testing"
)

func testOutput(asJSON bool) (*Output, *bytes.Buffer, *bytes.Buffer) {
	data := &bytes.Buffer{}
	status := &bytes.Buffer{}
	return &Output{asJSON: asJSON, data: data, status: status}, data, status
}

func TestOutputPrintTable(t *testing.T) {
	out, data, status := testOutput(false)

	out.Print(
		[]string{"NAME", "STATUS"},
		[][]string{
			{"lead_generation_pipeline", "completed"},
			{"weekly_digest", "failed"},
		},
		nil,
	)

	got := data.String()
	if !strings.Contains(got, "NAME") || !strings.Contains(got, "STATUS") {
		t.Errorf("missing headers:\n%s", got)
	}
	if !strings.Contains(got, "lead_generation_pipeline") || !strings.Contains(got, "weekly_digest") {
		t.Errorf("missing rows:\n%s", got)
	}
	if status.Len() != 0 {
		t.Errorf("status output = %q, want empty", status.String())
	}
}

func TestOutputPrintEmpty(t *testing.T) {
	out, data, status := testOutput(false)

	out.Print([]string{"NAME"}, nil, nil)

	if data.Len() != 0 {
		t.Errorf("data output = %q, want empty", data.String())
	}
	if !strings.Contains(status.String(), "no results") {
		t.Errorf("status output = %q, want no-results notice", status.String())
	}
}

func TestOutputPrintJSONMode(t *testing.T) {
	out, data, _ := testOutput(true)

	out.Print(
		[]string{"NAME"},
		[][]string{{"lead_generation_pipeline"}},
		[]map[string]string{{"name": "lead_generation_pipeline"}},
	)

	got := data.String()
	if !strings.Contains(got, `"name": "lead_generation_pipeline"`) {
		t.Errorf("JSON output = %q", got)
	}
	if strings.Contains(got, "NAME") {
		t.Errorf("JSON mode rendered table headers: %q", got)
	}
}

func TestOutputMessagesGoToStatus(t *testing.T) {
	out, data, status := testOutput(false)

	out.Success("Workflow \"x\" created")
	out.Error("boom")

	if data.Len() != 0 {
		t.Errorf("data output = %q, want empty", data.String())
	}
	got := status.String()
	if !strings.Contains(got, "Workflow \"x\" created") {
		t.Errorf("missing success message: %q", got)
	}
	if !strings.Contains(got, "Error: boom") {
		t.Errorf("missing error message: %q", got)
	}
}
