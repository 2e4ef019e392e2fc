package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// WorkflowResponse — workflow из API.
type WorkflowResponse struct {
	Name      string         `json:"name"`
	Spec      map[string]any `json:"spec"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// ValidateResponse — результат валидации спецификации.
type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// RunResponse — run из API.
type RunResponse struct {
	ID           string `json:"id"`
	WorkflowName string `json:"workflow_name"`
	Status       string `json:"status"`
	StartedAt    string `json:"started_at,omitempty"`
	FinishedAt   string `json:"finished_at,omitempty"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// ScheduleResponse — schedule из API.
type ScheduleResponse struct {
	ID           string `json:"id"`
	WorkflowName string `json:"workflow_name"`
	Name         string `json:"name"`
	CronExpr     string `json:"cron_expr,omitempty"`
	IntervalSec  int    `json:"interval_sec,omitempty"`
	Timezone     string `json:"timezone"`
	Enabled      bool   `json:"enabled"`
	NextDueAt    string `json:"next_due_at,omitempty"`
	LastRunAt    string `json:"last_run_at,omitempty"`
	LastRunID    string `json:"last_run_id,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// --- Request types ---

// CreateScheduleRequest — создание schedule.
type CreateScheduleRequest struct {
	Name        string `json:"name"`
	CronExpr    string `json:"cron_expr,omitempty"`
	IntervalSec int    `json:"interval_sec,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// ListRunsOpts — параметры фильтрации runs.
type ListRunsOpts struct {
	Workflow string
	Status   string
	Limit    int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для leadflow API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Workflows ---

// ListWorkflows возвращает все workflows.
func (c *Client) ListWorkflows() ([]WorkflowResponse, error) {
	var workflows []WorkflowResponse
	err := c.list("/api/v1/workflows", nil, &workflows)
	return workflows, err
}

// CreateWorkflow создаёт workflow из сырой спецификации.
func (c *Client) CreateWorkflow(spec json.RawMessage) (*WorkflowResponse, error) {
	body := map[string]json.RawMessage{"spec": spec}
	var wf WorkflowResponse
	err := c.post("/api/v1/workflows", body, &wf)
	return &wf, err
}

// GetWorkflow возвращает workflow по имени.
func (c *Client) GetWorkflow(name string) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.get("/api/v1/workflows/"+name, &wf)
	return &wf, err
}

// UpdateWorkflow обновляет спецификацию workflow.
func (c *Client) UpdateWorkflow(name string, spec json.RawMessage) (*WorkflowResponse, error) {
	body := map[string]json.RawMessage{"spec": spec}
	var wf WorkflowResponse
	err := c.put("/api/v1/workflows/"+name, body, &wf)
	return &wf, err
}

// DeleteWorkflow удаляет workflow.
func (c *Client) DeleteWorkflow(name string) error {
	return c.delete("/api/v1/workflows/" + name)
}

// ValidateWorkflow валидирует спецификацию на сервере.
func (c *Client) ValidateWorkflow(spec json.RawMessage) (*ValidateResponse, error) {
	body := map[string]json.RawMessage{"spec": spec}
	var result ValidateResponse
	err := c.post("/api/v1/workflows/validate", body, &result)
	return &result, err
}

// ListAgents возвращает имена зарегистрированных агентов.
func (c *Client) ListAgents() ([]string, error) {
	var names []string
	err := c.list("/api/v1/agents", nil, &names)
	return names, err
}

// --- Runs ---

// ListRuns возвращает список runs с фильтрацией.
func (c *Client) ListRuns(opts ListRunsOpts) ([]RunResponse, error) {
	params := url.Values{}
	if opts.Workflow != "" {
		params.Set("workflow", opts.Workflow)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var runs []RunResponse
	err := c.list("/api/v1/runs", params, &runs)
	return runs, err
}

// CreateRun создаёт run для workflow.
func (c *Client) CreateRun(workflowName string) (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/workflows/"+workflowName+"/runs", nil, &run)
	return &run, err
}

// GetRun возвращает run по ID.
func (c *Client) GetRun(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.get("/api/v1/runs/"+id, &run)
	return &run, err
}

// GetRunResult возвращает итоговый документ выполнения.
func (c *Client) GetRunResult(id string) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.get("/api/v1/runs/"+id+"/result", &result)
	return result, err
}

// --- Schedules ---

// ListSchedules возвращает schedules. Если workflow не пустой — фильтрует.
func (c *Client) ListSchedules(workflow string) ([]ScheduleResponse, error) {
	params := url.Values{}
	if workflow != "" {
		params.Set("workflow", workflow)
	}

	var schedules []ScheduleResponse
	err := c.list("/api/v1/schedules", params, &schedules)
	return schedules, err
}

// CreateSchedule создаёт schedule для workflow.
func (c *Client) CreateSchedule(workflowName string, req CreateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.post("/api/v1/workflows/"+workflowName+"/schedules", req, &schedule)
	return &schedule, err
}

// GetSchedule возвращает schedule по ID.
func (c *Client) GetSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.get("/api/v1/schedules/"+id, &schedule)
	return &schedule, err
}

// DeleteSchedule удаляет schedule.
func (c *Client) DeleteSchedule(id string) error {
	return c.delete("/api/v1/schedules/" + id)
}

// SetScheduleEnabled включает/выключает schedule.
func (c *Client) SetScheduleEnabled(id string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.putNoResult("/api/v1/schedules/"+id+"/enabled", body)
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) putNoResult(path string, body any) error {
	return c.doData(http.MethodPut, path, body, nil)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
