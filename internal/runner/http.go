package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

const (
	runPath    = "/run-workflow"
	healthPath = "/health"

	defaultMaxResponseBody = 10 * 1024 * 1024 // 10MB
	defaultRunTimeout      = 5 * time.Minute
	defaultHealthTimeout   = 5 * time.Second
)

// HTTPRunner talks to the backend orchestrator over HTTP.
type HTTPRunner struct {
	baseURL         string
	client          *http.Client
	runTimeout      time.Duration
	maxResponseBody int64
}

// Option configures an HTTPRunner.
type Option func(*HTTPRunner)

// WithRunTimeout overrides the per-run timeout.
func WithRunTimeout(d time.Duration) Option {
	return func(r *HTTPRunner) { r.runTimeout = d }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *HTTPRunner) { r.client = c }
}

// NewHTTPRunner creates a Runner for the backend at baseURL.
func NewHTTPRunner(baseURL string, opts ...Option) *HTTPRunner {
	r := &HTTPRunner{
		baseURL:         strings.TrimRight(baseURL, "/"),
		client:          &http.Client{},
		runTimeout:      defaultRunTimeout,
		maxResponseBody: defaultMaxResponseBody,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run POSTs the plan to /run-workflow and returns the response body
// verbatim. Any transport error or non-2xx status is an execution failure;
// the plan and graph are unaffected so the caller may retry.
func (r *HTTPRunner) Run(ctx context.Context, plan *schema.ExecutionPlan) (json.RawMessage, error) {
	body, err := json.Marshal(plan)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeExecution, "marshal execution plan").WithCause(err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, r.runTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, r.baseURL+runPath, bytes.NewReader(body))
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeExecution, "build run request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeExecution, "workflow submission failed: %v", err).WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, r.maxResponseBody))
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeExecution, "read backend response").WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, schema.NewErrorf(schema.ErrCodeExecution,
			"backend returned %d: %s", resp.StatusCode, summarize(respBody)).
			WithDetails(map[string]any{
				"status_code": resp.StatusCode,
				"body":        string(respBody),
			})
	}

	return asJSON(respBody, resp.Header.Get("Content-Type")), nil
}

// Health GETs /health. A non-2xx status or transport error means the
// backend is unreachable.
func (r *HTTPRunner) Health(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, defaultHealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, r.baseURL+healthPath, nil)
	if err != nil {
		return schema.NewError(schema.ErrCodeExecution, "build health request").WithCause(err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeExecution, "backend unreachable: %v", err).WithCause(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return schema.NewErrorf(schema.ErrCodeExecution, "backend health returned %d", resp.StatusCode)
	}
	return nil
}

// asJSON returns the body as raw JSON. Non-JSON bodies are quoted into a
// JSON string so the result is always valid JSON for history records.
func asJSON(body []byte, contentType string) json.RawMessage {
	if len(body) == 0 {
		return json.RawMessage("null")
	}
	if strings.Contains(contentType, "application/json") && json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return json.RawMessage("null")
	}
	return json.RawMessage(quoted)
}

func summarize(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return fmt.Sprintf("%s… (%d bytes)", s[:max], len(body))
	}
	if s == "" {
		return "(empty body)"
	}
	return s
}
