package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// WorkItemResponse — запланированная работа из API.
type WorkItemResponse struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	RunDate    string `json:"run_date"`
	Attempts   int    `json:"attempts"`
	LastError  string `json:"last_error,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// SummaryResponse — итог прохода по наступившим работам.
type SummaryResponse struct {
	Due       int `json:"due"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Contended int `json:"contended"`
	Skipped   int `json:"skipped"`
}

// WorkflowResponse — экземпляр процесса из API.
type WorkflowResponse struct {
	ID            string         `json:"id"`
	DecidingClass string         `json:"deciding_class"`
	TargetType    string         `json:"target_type"`
	TargetID      string         `json:"target_id"`
	State         string         `json:"state"`
	Data          map[string]any `json:"data,omitempty"`
	Version       int            `json:"version"`
	UpdatedBy     string         `json:"updated_by,omitempty"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

// RegistryResponse — реестр и его участники.
type RegistryResponse struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

// ValidationResultResponse — результат правила.
type ValidationResultResponse struct {
	RuleName  string `json:"rule_name"`
	Passed    bool   `json:"passed"`
	Message   string `json:"message,omitempty"`
	CreatedAt string `json:"created_at"`
}

// PasswordCheckResponse — результат проверки пароля.
type PasswordCheckResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

// --- Request types ---

// CreateWorkItemRequest — планирование работы.
type CreateWorkItemRequest struct {
	Kind       string `json:"kind"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	RunDate    string `json:"run_date,omitempty"`
}

// PasswordCheckRequest — проверка пароля.
type PasswordCheckRequest struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

// ListWorkItemsOpts — параметры фильтрации work items.
type ListWorkItemsOpts struct {
	Kind       string
	TargetType string
	Limit      int
}

// Target — объект в форме "Type#ID".
type Target struct {
	Type string
	ID   string
}

// ParseTarget разбирает "Type#ID". ID может содержать '#'.
func ParseTarget(s string) (Target, error) {
	typ, id, ok := strings.Cut(s, "#")
	if !ok || typ == "" || id == "" {
		return Target{}, fmt.Errorf("invalid target %q: expected Type#ID", s)
	}
	return Target{Type: typ, ID: id}, nil
}

func (t Target) String() string {
	return t.Type + "#" + t.ID
}

func (t Target) path() string {
	return url.PathEscape(t.Type) + "/" + url.PathEscape(t.ID)
}

// User — пользователь, от имени которого выполняются запросы.
type User struct {
	ID    string
	Name  string
	Roles []string
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

// Client — HTTP-клиент для Concord API.
type Client struct {
	baseURL    string
	user       User
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string, user User) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		user:    user,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Work items ---

// ListWorkItems возвращает запланированные работы с фильтрацией.
func (c *Client) ListWorkItems(opts ListWorkItemsOpts) ([]WorkItemResponse, error) {
	params := url.Values{}
	if opts.Kind != "" {
		params.Set("kind", opts.Kind)
	}
	if opts.TargetType != "" {
		params.Set("target_type", opts.TargetType)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var items []WorkItemResponse
	err := c.list("/api/v1/work-items", params, &items)
	return items, err
}

// CreateWorkItem планирует работу.
func (c *Client) CreateWorkItem(req CreateWorkItemRequest) (*WorkItemResponse, error) {
	var item WorkItemResponse
	err := c.post("/api/v1/work-items", req, &item)
	return &item, err
}

// RunWork запускает проход по наступившим работам.
func (c *Client) RunWork() (*SummaryResponse, error) {
	var summary SummaryResponse
	err := c.post("/api/v1/work/run", nil, &summary)
	return &summary, err
}

// --- Workflows ---

// GetWorkflow возвращает экземпляр процесса объекта.
func (c *Client) GetWorkflow(class string, target Target) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.get("/api/v1/workflows/"+url.PathEscape(class)+"/targets/"+target.path(), &wf)
	return &wf, err
}

// UpdateWorkflow применяет decider класса от имени пользователя клиента.
func (c *Client) UpdateWorkflow(class string, target Target) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.put("/api/v1/workflows/"+url.PathEscape(class)+"/targets/"+target.path(), nil, &wf)
	return &wf, err
}

// --- Targets ---

// PutTarget регистрирует объект.
func (c *Client) PutTarget(target Target) error {
	return c.put("/api/v1/targets/"+target.path(), nil, nil)
}

// DeleteTarget удаляет объект.
func (c *Client) DeleteTarget(target Target) error {
	return c.delete("/api/v1/targets/" + target.path())
}

// ListResults возвращает результаты проверки объекта.
func (c *Client) ListResults(target Target) ([]ValidationResultResponse, error) {
	var results []ValidationResultResponse
	err := c.list("/api/v1/targets/"+target.path()+"/results", nil, &results)
	return results, err
}

// --- Registries ---

// ListRegistries возвращает реестры и их участников.
func (c *Client) ListRegistries() ([]RegistryResponse, error) {
	var registries []RegistryResponse
	err := c.list("/api/v1/registries", nil, &registries)
	return registries, err
}

// CheckPassword проверяет пароль политиками сервера.
func (c *Client) CheckPassword(req PasswordCheckRequest) (*PasswordCheckResponse, error) {
	var check PasswordCheckResponse
	err := c.post("/api/v1/password-checks", req, &check)
	return &check, err
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
	if c.user.ID != "" {
		req.Header.Set("X-User-ID", c.user.ID)
	}
	if c.user.Name != "" {
		req.Header.Set("X-User-Name", c.user.Name)
	}
	if len(c.user.Roles) > 0 {
		req.Header.Set("X-User-Roles", strings.Join(c.user.Roles, ","))
	}

	return c.httpClient.Do(req)
}

// APIError — ошибка, возвращённая сервером.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return &APIError{Status: resp.StatusCode}
	}

	return &APIError{Status: resp.StatusCode, Code: er.Error.Code, Message: er.Error.Message}
}
