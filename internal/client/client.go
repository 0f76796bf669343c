// Package client talks to the LearnEasy daemon over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/learneasy/internal/content"
	"github.com/felixgeelhaar/learneasy/internal/domain"
	"github.com/felixgeelhaar/learneasy/internal/session"
)

// DefaultBaseURL is the daemon address used when none is configured
const DefaultBaseURL = "http://127.0.0.1:7480"

// APIError is a non-2xx daemon response
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("status %d: %s: %s", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// IsNotFound returns true if err is a 404 from the daemon
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type response struct {
	status int
	body   []byte
}

// Client is a resilient daemon client. Transient failures (429, 5xx and
// transport errors) are retried with backoff behind a circuit breaker.
// POSTs create sessions or record attempts, so they are retried only on
// 429, which the daemon sends before doing any work.
type Client struct {
	baseURL string
	http    *http.Client
	breaker circuitbreaker.CircuitBreaker[*response]
	retrier retry.Retry[*response]
}

// Options configures a Client
type Options struct {
	Timeout      time.Duration
	MaxAttempts  int
	InitialDelay time.Duration
}

// DefaultOptions returns settings suited to an interactive CLI
func DefaultOptions() Options {
	return Options{
		Timeout:      10 * time.Second,
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
	}
}

// New creates a client for the daemon at baseURL
func New(baseURL string, opts Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: opts.Timeout},
		breaker: circuitbreaker.New[*response](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    10 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				slog.Warn("daemon circuit breaker state change",
					"from", from.String(),
					"to", to.String())
			},
		}),
		retrier: retry.New[*response](retry.Config{
			MaxAttempts:   opts.MaxAttempts,
			InitialDelay:  opts.InitialDelay,
			MaxDelay:      2 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryable,
		}),
	}
}

// BaseURL returns the daemon address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping checks the health endpoint once, without retries
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodGet, "/v1/health", nil)
	if err != nil {
		return err
	}
	if resp.status != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// Status is the daemon status report
type Status struct {
	Status          string        `json:"status"`
	Version         string        `json:"version"`
	UptimeSeconds   int           `json:"uptime_seconds"`
	Content         content.Stats `json:"content"`
	Sessions        int           `json:"sessions"`
	SessionStore    string        `json:"session_store"`
	PassProbability float64       `json:"pass_probability"`
	Languages       []string      `json:"languages"`
}

// Status fetches the daemon status
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.do(ctx, http.MethodGet, "/v1/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LessonList is a filtered catalog page
type LessonList struct {
	Lessons    []domain.LessonSummary `json:"lessons"`
	Categories []string               `json:"categories"`
	Count      int                    `json:"count"`
}

// ListLessons returns catalog entries matching the filter
func (c *Client) ListLessons(ctx context.Context, filter content.Filter) (*LessonList, error) {
	q := url.Values{}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.Search != "" {
		q.Set("q", filter.Search)
	}
	path := "/v1/lessons"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out LessonList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChallengeSummary is a challenges-list entry
type ChallengeSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	TestCases int    `json:"test_cases"`
}

// ListChallenges returns every challenge
func (c *Client) ListChallenges(ctx context.Context) ([]ChallengeSummary, error) {
	var out struct {
		Challenges []ChallengeSummary `json:"challenges"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/challenges", nil, &out); err != nil {
		return nil, err
	}
	return out.Challenges, nil
}

// OpenLesson starts a lesson session
func (c *Client) OpenLesson(ctx context.Context, lessonID string) (*session.View, error) {
	var out session.View
	body := map[string]string{"lesson_id": lessonID}
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QuizResult is the graded answer plus the refreshed session view
type QuizResult struct {
	Result struct {
		Outcome       string `json:"outcome"`
		Correct       bool   `json:"correct"`
		ProgressDelta int    `json:"progress_delta"`
		Message       string `json:"message"`
	} `json:"result"`
	View session.View `json:"view"`
}

// AnswerQuiz selects optionID and grades it
func (c *Client) AnswerQuiz(ctx context.Context, sessionID, optionID string) (*QuizResult, error) {
	var out QuizResult
	body := map[string]string{"option_id": optionID}
	if err := c.do(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(sessionID)+"/quiz", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OpenChallenge starts a challenge session
func (c *Client) OpenChallenge(ctx context.Context, challengeID, language string) (*session.View, error) {
	var out session.View
	body := map[string]string{"challenge_id": challengeID, "language": language}
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Run previews the challenge. A nil code keeps the session's code.
func (c *Client) Run(ctx context.Context, sessionID string, code *string) (*session.View, error) {
	return c.evaluate(ctx, sessionID, "run", code)
}

// Submit grades the challenge. A nil code keeps the session's code.
func (c *Client) Submit(ctx context.Context, sessionID string, code *string) (*session.View, error) {
	return c.evaluate(ctx, sessionID, "submit", code)
}

func (c *Client) evaluate(ctx context.Context, sessionID, action string, code *string) (*session.View, error) {
	var out session.View
	body := map[string]*string{"code": code}
	if err := c.do(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(sessionID)+"/"+action, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CloseSession ends a session
func (c *Client) CloseSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/sessions/"+url.PathEscape(sessionID), nil, nil)
}

// do sends a request through the circuit breaker and retrier and decodes
// a 2xx body into out
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	resp, err := c.breaker.Execute(ctx, func(ctx context.Context) (*response, error) {
		return c.retrier.Do(ctx, func(ctx context.Context) (*response, error) {
			resp, err := c.send(ctx, method, path, payload)
			if err == nil && (resp.status == http.StatusTooManyRequests || resp.status >= 500) {
				err = decodeError(resp)
			}
			if err != nil {
				if !idempotent(method) && !isRateLimited(err) {
					return nil, finalError{err}
				}
				return nil, err
			}
			return resp, nil
		})
	})
	if err != nil {
		return err
	}

	if resp.status < 200 || resp.status >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &response{status: res.StatusCode, body: data}, nil
}

func decodeError(resp *response) error {
	apiErr := &APIError{Status: resp.status}
	if err := json.Unmarshal(resp.body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.status)
	}
	apiErr.Status = resp.status
	return apiErr
}

// finalError stops the retrier without changing what callers see
type finalError struct{ err error }

func (e finalError) Error() string { return e.err.Error() }
func (e finalError) Unwrap() error { return e.err }

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

func isRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests
}

func isRetryable(err error) bool {
	var final finalError
	if err == nil || errors.As(err, &final) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	// transport failure
	return true
}
