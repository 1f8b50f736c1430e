package client

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
	"sync"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

const maxResponseBytes = 4 << 20

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
	now         func() time.Time
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns a client for the API rooted at baseURL. Every
// request is bounded by timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", baseURL)
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}, nil
}

type errorBody struct {
	Error string `json:"error"`
}

type idBody struct {
	UserID  string `json:"user_id"`
	TaskID  string `json:"task_id"`
	LabelID string `json:"label_id"`
}

type loginBody struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	UserID      string `json:"user_id"`
}

func (c *HTTPClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *HTTPClient) setToken(token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
	if token == "" {
		c.expiresAt = time.Time{}
		return
	}
	c.expiresAt = c.now().Add(ttl)
}

// LoggedIn reports whether a token is held and has not passed its
// advertised lifetime.
func (c *HTTPClient) LoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken != "" && c.now().Before(c.expiresAt)
}

// do sends one request. in, when non-nil, is encoded as the JSON body and
// out, when non-nil, receives the decoded 2xx response.
func (c *HTTPClient) do(ctx context.Context, method, path string, authed bool, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token := c.token()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

// mapStatus turns an error response into a sentinel carrying the server's
// message.
func mapStatus(code int, data []byte) error {
	var eb errorBody
	_ = json.Unmarshal(data, &eb)
	msg := eb.Error
	if msg == "" {
		msg = http.StatusText(code)
	}

	var sentinel error
	switch {
	case code == http.StatusBadRequest:
		sentinel = common.ErrorInvalidInput
	case code == http.StatusUnauthorized:
		sentinel = common.ErrorUnauthenticated
	case code == http.StatusNotFound:
		sentinel = common.ErrorNotFound
	case code == http.StatusConflict:
		sentinel = common.ErrorAlreadyExists
	case code >= 500:
		sentinel = ErrUnavailable
	default:
		sentinel = ErrBadResponse
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

func (c *HTTPClient) Ping(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/healthz", false, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *HTTPClient) Register(ctx context.Context, username, email, password string) (string, error) {
	req := map[string]string{"username": username, "email": email, "password": password}
	var resp idBody
	if err := c.do(ctx, http.MethodPost, "/signup", false, req, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// Login exchanges credentials for a token and keeps it for later calls.
// A rejected password matches common.ErrorInvalidCredentials.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	req := map[string]string{"email": email, "password": password}
	var resp loginBody
	err := c.do(ctx, http.MethodPost, "/login", false, req, &resp)
	if errors.Is(err, common.ErrorUnauthenticated) {
		return "", fmt.Errorf("%w: %v", common.ErrorInvalidCredentials, err)
	}
	if err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrBadResponse)
	}
	c.setToken(resp.AccessToken, time.Duration(resp.ExpiresIn)*time.Second)
	return resp.UserID, nil
}

// Logout tells the server and drops the local token. The token is dropped
// even when the server cannot be reached.
func (c *HTTPClient) Logout(ctx context.Context) error {
	defer c.setToken("", 0)
	return c.do(ctx, http.MethodPost, "/logout", false, nil, nil)
}

func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/me", true, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) CreateTask(ctx context.Context, t NewTask) (string, error) {
	var resp idBody
	if err := c.do(ctx, http.MethodPost, "/api/tasks", true, t, &resp); err != nil {
		return "", err
	}
	return resp.TaskID, nil
}

func (c *HTTPClient) ListTasks(ctx context.Context) ([]Task, error) {
	var list []Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", true, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) UpdateTask(ctx context.Context, id string, upd TaskUpdate) error {
	return c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), true, upd, nil)
}

func (c *HTTPClient) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), true, nil, nil)
}

func (c *HTTPClient) AssignLabels(ctx context.Context, id string, labels []string) error {
	if labels == nil {
		labels = []string{}
	}
	req := map[string][]string{"labels": labels}
	return c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id)+"/labels", true, req, nil)
}

func (c *HTTPClient) CreateLabel(ctx context.Context, name string) (string, error) {
	var resp idBody
	if err := c.do(ctx, http.MethodPost, "/api/labels", true, map[string]string{"name": name}, &resp); err != nil {
		return "", err
	}
	return resp.LabelID, nil
}

func (c *HTTPClient) ListLabels(ctx context.Context) ([]Label, error) {
	var list []Label
	if err := c.do(ctx, http.MethodGet, "/api/labels", true, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}
