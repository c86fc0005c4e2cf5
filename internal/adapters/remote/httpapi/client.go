package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/fasttrack-cli/internal/domain"
	"github.com/bnema/fasttrack-cli/internal/ports"
)

const maxResponseBytes = 1 << 20

const wordpressTimeLayout = "2006-01-02 15:04:05"

var ErrUnauthorized = errors.New("remote rejected credentials")

type StatusError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s: %s", e.Op, e.Status, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
}

// Client talks to the fasting backend's REST API. Token is called for every
// request; an empty token sends no Authorization header.
type Client struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Token          func(ctx context.Context) (string, error)
}

var _ ports.RemoteSessionStore = Client{}

type fastPayload struct {
	ID             flexibleID `json:"id"`
	StartTime      string     `json:"start_time"`
	TargetHours    float64    `json:"target_hours"`
	Protocol       string     `json:"protocol"`
	PausedAt       *string    `json:"paused_at"`
	PausedDuration int64      `json:"paused_duration"`
}

type fastEnvelope struct {
	Fast *fastPayload `json:"fast"`
}

type createRequest struct {
	Protocol        string  `json:"protocol"`
	TargetHours     float64 `json:"target_hours"`
	BackdateMinutes int     `json:"backdate_minutes,omitempty"`
}

type endRequest struct {
	Notes string `json:"notes,omitempty"`
	Mood  string `json:"mood,omitempty"`
}

type endResponse struct {
	FreezeEarned bool `json:"freeze_earned"`
	Streak       int  `json:"streak"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c Client) FetchActiveSession(ctx context.Context) (*domain.RemoteSession, error) {
	var envelope fastEnvelope
	status, err := c.do(ctx, "fetch active fast", http.MethodGet, "fasts/active", nil, nil, &envelope)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if envelope.Fast == nil {
		return nil, nil
	}

	session := envelope.Fast.toRemote()
	return &session, nil
}

func (c Client) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (domain.RemoteSession, error) {
	body := createRequest{
		Protocol:        req.Protocol,
		TargetHours:     req.TargetHours,
		BackdateMinutes: req.BackdateMinutes,
	}
	headers := http.Header{}
	headers.Set("Idempotency-Key", uuid.NewString())

	var envelope fastEnvelope
	if _, err := c.do(ctx, "create fast", http.MethodPost, "fasts", headers, body, &envelope); err != nil {
		return domain.RemoteSession{}, err
	}
	if envelope.Fast == nil {
		return domain.RemoteSession{}, errors.New("create fast: response missing fast")
	}

	return envelope.Fast.toRemote(), nil
}

func (c Client) EndSession(ctx context.Context, id domain.FastID, notes, mood string) (domain.EndSessionResult, error) {
	var payload endResponse
	if _, err := c.do(ctx, "end fast", http.MethodPost, fastPath(id, "end"), nil, endRequest{Notes: notes, Mood: mood}, &payload); err != nil {
		return domain.EndSessionResult{}, err
	}
	return domain.EndSessionResult{FreezeEarned: payload.FreezeEarned, Streak: payload.Streak}, nil
}

func (c Client) PauseSession(ctx context.Context, id domain.FastID) error {
	_, err := c.do(ctx, "pause fast", http.MethodPost, fastPath(id, "pause"), nil, nil, nil)
	return err
}

func (c Client) ResumeSession(ctx context.Context, id domain.FastID) error {
	_, err := c.do(ctx, "resume fast", http.MethodPost, fastPath(id, "resume"), nil, nil, nil)
	return err
}

func fastPath(id domain.FastID, action string) string {
	return "fasts/" + url.PathEscape(string(id)) + "/" + action
}

// do returns the response status even on error so callers can special-case it.
func (c Client) do(ctx context.Context, op, method, path string, headers http.Header, body any, out any) (int, error) {
	endpoint, err := buildAPIURL(c.BaseURL, path)
	if err != nil {
		return 0, err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if err := c.authorize(ctx, req); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	limited := io.LimitReader(resp.Body, maxResponseBytes)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return resp.StatusCode, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, decodeStatusError(op, resp.StatusCode, limited)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, limited)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(limited).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%s: decode response: %w", op, err)
	}

	return resp.StatusCode, nil
}

func (c Client) authorize(ctx context.Context, req *http.Request) error {
	if c.Token == nil {
		return nil
	}

	token, err := c.Token(ctx)
	if err != nil {
		return fmt.Errorf("load api token: %w", err)
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func decodeStatusError(op string, status int, body io.Reader) error {
	statusErr := &StatusError{Op: op, Status: status}

	var payload errorResponse
	if err := json.NewDecoder(body).Decode(&payload); err == nil {
		statusErr.Code = payload.Code
		statusErr.Message = payload.Message
	}
	return statusErr
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	return parsed.JoinPath(path).String(), nil
}

func (p fastPayload) toRemote() domain.RemoteSession {
	session := domain.RemoteSession{
		ID:             domain.FastID(p.ID),
		StartedAt:      parseTimestamp(p.StartTime),
		TargetHours:    p.TargetHours,
		Protocol:       p.Protocol,
		PausedDuration: time.Duration(p.PausedDuration) * time.Millisecond,
	}
	if p.PausedAt != nil {
		if pausedAt := parseTimestamp(*p.PausedAt); !pausedAt.IsZero() {
			session.PausedAt = &pausedAt
		}
	}
	return session
}

// parseTimestamp returns the zero time for values it cannot read. WordPress
// timestamps without a zone are UTC.
func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed
	}
	if parsed, err := time.ParseInLocation(wordpressTimeLayout, value, time.UTC); err == nil {
		return parsed
	}
	return time.Time{}
}

// flexibleID accepts both numeric and string ids.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*f = flexibleID(text)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("fast id: %w", err)
	}
	*f = flexibleID(number.String())
	return nil
}
