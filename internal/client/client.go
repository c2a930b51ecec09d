// Package client implements the store interfaces against the lockin REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/services/oidc"
	"github.com/benvon/lockin/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	apiPrefix      = "/api/v1"
	defaultTimeout = 15 * time.Second
	uploadTimeout  = 2 * time.Minute
)

var (
	_ store.TaskStore    = (*Client)(nil)
	_ store.WorkLogStore = (*Client)(nil)
	_ store.SessionStore = (*Client)(nil)
	_ store.ProfileStore = (*Client)(nil)
	_ store.BlobStore    = (*Client)(nil)
	_ store.Identity     = (*Client)(nil)
	_ store.HypeSource   = (*Client)(nil)
)

// Client talks to one lockin API server.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the base HTTP client. Its transport is wrapped with
// the bearer token.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit paces requests to rps per second. Zero or less disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for baseURL. An empty token sends unauthenticated
// requests, which only the login endpoint accepts.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	WithRateLimit(5)(c)
	for _, opt := range opts {
		opt(c)
	}

	if token != "" {
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		authed := *c.http
		authed.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base,
		}
		c.http = &authed
	}
	return c
}

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("api error %d (%s)", e.StatusCode, e.Type)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// do sends a JSON request and decodes the data field into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api_request_failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		return fmt.Errorf("failed to call %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Type: http.StatusText(resp.StatusCode)}
		if decodeErr == nil {
			if env.Error != "" {
				apiErr.Type = env.Error
			}
			apiErr.Message = env.Message
		}
		c.logger.Debug("api_error_response",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
		)
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// ListTasks implements store.TaskStore.
func (c *Client) ListTasks(ctx context.Context) ([]*models.Task, error) {
	var tasks []*models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask implements store.TaskStore.
func (c *Client) CreateTask(ctx context.Context, title, motivation string) (*models.Task, error) {
	var task models.Task
	body := map[string]string{"title": title, "motivation": motivation}
	if err := c.do(ctx, http.MethodPost, "/tasks", body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SetTaskCompleted implements store.TaskStore.
func (c *Client) SetTaskCompleted(ctx context.Context, id uuid.UUID, completed bool) (*models.Task, error) {
	var task models.Task
	body := map[string]bool{"completed": completed}
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+id.String(), body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask implements store.TaskStore.
func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+id.String(), nil, nil)
}

// ListWorkLogs implements store.WorkLogStore.
func (c *Client) ListWorkLogs(ctx context.Context) ([]*models.WorkLog, error) {
	var logs []*models.WorkLog
	if err := c.do(ctx, http.MethodGet, "/work-logs", nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// UpsertWorkLog implements store.WorkLogStore.
func (c *Client) UpsertWorkLog(ctx context.Context, date string, hours float64) (*models.WorkLog, error) {
	var log models.WorkLog
	body := map[string]float64{"hours": hours}
	if err := c.do(ctx, http.MethodPut, "/work-logs/"+url.PathEscape(date), body, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

// StartSession implements store.SessionStore.
func (c *Client) StartSession(ctx context.Context, startedAt time.Time) (*models.FocusSession, error) {
	var session models.FocusSession
	body := map[string]time.Time{"started_at": startedAt.UTC()}
	if err := c.do(ctx, http.MethodPost, "/sessions", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// FinishSession implements store.SessionStore.
func (c *Client) FinishSession(ctx context.Context, id uuid.UUID, endedAt time.Time, idleSeconds int) (*models.FocusSession, error) {
	var session models.FocusSession
	body := struct {
		EndedAt     time.Time `json:"ended_at"`
		IdleSeconds int       `json:"idle_seconds"`
	}{EndedAt: endedAt.UTC(), IdleSeconds: idleSeconds}
	if err := c.do(ctx, http.MethodPatch, "/sessions/"+id.String(), body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateProfile implements store.ProfileStore.
func (c *Client) UpdateProfile(ctx context.Context, update store.ProfileUpdate) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodPatch, "/profile", update, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Me implements store.Identity. A rejected credential yields (nil, nil).
func (c *Client) Me(ctx context.Context) (*models.Me, error) {
	var me models.Me
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &me)
	if IsUnauthorized(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &me, nil
}

// Hype implements store.HypeSource.
func (c *Client) Hype(ctx context.Context) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	if err := c.do(ctx, http.MethodGet, "/hype", nil, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// LoginConfig fetches the identity provider endpoints. It needs no token.
func (c *Client) LoginConfig(ctx context.Context) (*oidc.LoginConfig, error) {
	var lc oidc.LoginConfig
	if err := c.do(ctx, http.MethodGet, "/auth/oidc/login", nil, &lc); err != nil {
		return nil, err
	}
	return &lc, nil
}

// UploadBeat streams r as a multipart upload and returns the public URL.
func (c *Client) UploadBeat(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+"/beats", pr)
	if err != nil {
		_ = pr.Close()
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		URL string `json:"url"`
	}
	if err := c.send(req, &out); err != nil {
		_ = pr.CloseWithError(err)
		return "", err
	}
	return out.URL, nil
}
