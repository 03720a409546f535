package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avlasov/securevault/internal/common"
	"github.com/avlasov/securevault/internal/logging"
	"github.com/avlasov/securevault/internal/models"
)

// HTTPClient talks JSON over HTTP to the vault API.
//
// The token provider is consulted on every request; when it returns a
// non-empty token the request carries a bearer Authorization header. When the
// server answers 401 the unauthorized hook fires once per response, before
// the error is returned — this is the single place the "session expired"
// policy is enforced for every operation.
type HTTPClient struct {
	baseURL        string
	http           *http.Client
	log            logging.Logger
	tokenFn        func(ctx context.Context) string
	onUnauthorized func(ctx context.Context)
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient substitutes the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) { c.http = h }
}

// WithTokenProvider sets the function supplying the current session token.
func WithTokenProvider(fn func(ctx context.Context) string) Option {
	return func(c *HTTPClient) { c.tokenFn = fn }
}

// WithUnauthorizedHook registers a callback invoked whenever the server
// rejects a request with 401.
func WithUnauthorizedHook(fn func(ctx context.Context)) Option {
	return func(c *HTTPClient) { c.onUnauthorized = fn }
}

// NewHTTPClient builds a client for the API rooted at baseURL
// (e.g. "http://localhost:8080").
func NewHTTPClient(baseURL string, log logging.Logger, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type messageResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

type entryJSON struct {
	ID          int64  `json:"id"`
	ServiceName string `json:"service_name"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Notes       string `json:"notes"`
	CreatedAt   string `json:"created_at"`
}

// createdAtLayouts lists the date formats the backend has been seen emitting.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseCreatedAt(s string) time.Time {
	for _, layout := range createdAtLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func (e entryJSON) toModel() models.VaultEntry {
	return models.VaultEntry{
		ID:          e.ID,
		ServiceName: e.ServiceName,
		Username:    e.Username,
		Password:    e.Password,
		Notes:       e.Notes,
		CreatedAt:   parseCreatedAt(e.CreatedAt),
	}
}

// do performs one JSON round-trip. A non-nil in is marshalled as the request
// body; a non-nil out receives the decoded response body. Server rejections
// come back as *Error, transport failures wrap common.ErrUnavailable.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.tokenFn != nil {
		if token := c.tokenFn(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", common.ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{Status: resp.StatusCode, Message: serverMessage(data)}
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		c.log.Warn(ctx, "api request rejected",
			"method", method, "path", path, "status", resp.StatusCode)
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// serverMessage pulls the human-readable error text out of a rejection body.
// The backend uses {"detail": ...}; {"message": ...} is accepted as well.
func serverMessage(data []byte) string {
	var m messageResponse
	if err := json.Unmarshal(data, &m); err != nil {
		return ""
	}
	if m.Detail != "" {
		return m.Detail
	}
	return m.Message
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/api/register", credentialsRequest{username, password}, nil)
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*models.Session, error) {
	var res loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", credentialsRequest{username, password}, &res); err != nil {
		return nil, err
	}
	return &models.Session{
		User:  models.User{ID: res.User.ID, Username: res.User.Username},
		Token: res.Token,
	}, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

func (c *HTTPClient) CheckUsername(ctx context.Context, username string) (bool, error) {
	var res availabilityResponse
	if err := c.do(ctx, http.MethodGet, "/api/check-username/"+url.PathEscape(username), nil, &res); err != nil {
		return false, err
	}
	return res.Available, nil
}

func (c *HTTPClient) ListEntries(ctx context.Context) ([]models.VaultEntry, error) {
	var rows []entryJSON
	if err := c.do(ctx, http.MethodGet, "/api/vault/entries", nil, &rows); err != nil {
		return nil, err
	}
	entries := make([]models.VaultEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toModel())
	}
	return entries, nil
}

func (c *HTTPClient) CreateEntry(ctx context.Context, draft EntryDraft) error {
	return c.do(ctx, http.MethodPost, "/api/vault/entries", draft, nil)
}

func (c *HTTPClient) UpdateEntry(ctx context.Context, id int64, patch EntryPatch) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/vault/entries/%d", id), patch, nil)
}

func (c *HTTPClient) DeleteEntry(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/vault/entries/%d", id), nil, nil)
}

func (c *HTTPClient) DeleteAccount(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodDelete, "/api/user/delete", credentialsRequest{username, password}, nil)
}
