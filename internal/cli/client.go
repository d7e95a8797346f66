package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// ErrorDetailResponse — причина неудачи item.
type ErrorDetailResponse struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// ReportResponse — отчёт job из API.
type ReportResponse struct {
	JobID           string                `json:"job_id"`
	Success         bool                  `json:"success"`
	Authenticated   bool                  `json:"authenticated"`
	Successful      []string              `json:"successful_items"`
	Failed          []string              `json:"failed_items"`
	ErrorDetails    []ErrorDetailResponse `json:"error_details"`
	TotalSuccessful int                   `json:"total_successful"`
	TotalFailed     int                   `json:"total_failed"`
	StartedAt       string                `json:"started_at"`
	FinishedAt      string                `json:"finished_at"`
}

// JobResponse — job из API.
type JobResponse struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	Items      []string        `json:"items"`
	Source     string          `json:"source,omitempty"`
	Report     *ReportResponse `json:"report,omitempty"`
	Error      string          `json:"error,omitempty"`
	StartedAt  string          `json:"started_at,omitempty"`
	FinishedAt string          `json:"finished_at,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

// EnqueueResponse — ответ на постановку в очередь.
type EnqueueResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// KeywordsResponse — список keywords из API.
type KeywordsResponse struct {
	Keywords  []string `json:"keywords"`
	Version   uint64   `json:"version"`
	UpdatedAt string   `json:"updated_at"`
}

// ListJobsOpts — параметры фильтрации jobs.
type ListJobsOpts struct {
	Status string
	Limit  int
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
	Report *ReportResponse `json:"report,omitempty"`
}

// APIError — ошибка, возвращённая API.
// Report заполнен, если API вернул отчёт вместе с ошибкой (401, 502).
type APIError struct {
	Status  int
	Code    string
	Message string
	Report  *ReportResponse
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для Harvest API.
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

// SetTimeout меняет таймаут запросов. 0 — без таймаута.
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

// --- Jobs ---

// RunJob выполняет job синхронно.
func (c *Client) RunJob(items []string) (*JobResponse, error) {
	var job JobResponse
	err := c.post("/api/v1/jobs", map[string][]string{"items": items}, &job)
	return &job, err
}

// EnqueueJob ставит job в очередь.
func (c *Client) EnqueueJob(items []string) (*EnqueueResponse, error) {
	var resp EnqueueResponse
	err := c.post("/api/v1/jobs/enqueue", map[string][]string{"items": items}, &resp)
	return &resp, err
}

// ListJobs возвращает историю jobs.
func (c *Client) ListJobs(opts ListJobsOpts) ([]JobResponse, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var jobs []JobResponse
	err := c.list("/api/v1/jobs", params, &jobs)
	return jobs, err
}

// GetJob возвращает job по ID.
func (c *Client) GetJob(id string) (*JobResponse, error) {
	var job JobResponse
	err := c.get("/api/v1/jobs/"+id, &job)
	return &job, err
}

// --- Artifacts ---

// DownloadExports пишет zip со всеми exports в w.
func (c *Client) DownloadExports(w io.Writer) (int64, error) {
	resp, err := c.do(http.MethodGet, "/api/v1/artifacts/exports", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return 0, err
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read archive: %w", err)
	}
	return n, nil
}

// --- Keywords ---

// GetKeywords возвращает текущий список keywords.
func (c *Client) GetKeywords() (*KeywordsResponse, error) {
	var kw KeywordsResponse
	err := c.get("/api/v1/keywords", &kw)
	return &kw, err
}

// SetKeywords заменяет список keywords.
func (c *Client) SetKeywords(keywords []string) (*KeywordsResponse, error) {
	if keywords == nil {
		keywords = []string{}
	}
	var kw KeywordsResponse
	err := c.put("/api/v1/keywords", map[string][]string{"keywords": keywords}, &kw)
	return &kw, err
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

	apiErr := &APIError{Status: resp.StatusCode}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
		apiErr.Report = er.Report
	}
	return apiErr
}

// reportFromError достаёт отчёт из ошибки API, если он есть.
func reportFromError(err error) *ReportResponse {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Report
	}
	return nil
}
