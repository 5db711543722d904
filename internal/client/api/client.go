// Package api is the CLI's HTTP client for the TaskVault server. It keeps
// the token pair, attaches the Bearer header, and transparently refreshes
// the access token once when the server answers 401.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/common"
	"github.com/dmitrijs2005/taskvault/internal/models"
)

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to one TaskVault server on behalf of one signed-in user.
type Client struct {
	base string
	http *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func New(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// IsLoggedIn reports whether the client holds a token pair.
func (c *Client) IsLoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken != ""
}

// Register creates an account. It does not sign in; call Login after.
func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"email": email, "password": password}, nil, false)
}

// Login authenticates and stores the issued token pair.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var pair tokenPair
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": email, "password": password}, &pair, false)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.accessToken, c.refreshToken = pair.AccessToken, pair.RefreshToken
	c.mu.Unlock()
	return nil
}

// Logout revokes the refresh token server-side and drops both tokens.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refreshToken
	c.accessToken, c.refreshToken = "", ""
	c.mu.Unlock()
	if refresh == "" {
		return nil
	}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/auth/logout",
		map[string]string{"refreshToken": refresh}, nil, false)
}

// ListTasks fetches the task view for group and order (both may be empty).
func (c *Client) ListTasks(ctx context.Context, group, order string) ([]models.Task, error) {
	path := "/api/v1/tasks"
	sep := "?"
	if group != "" {
		path += sep + "group=" + group
		sep = "&"
	}
	if order != "" {
		path += sep + "order=" + order
	}
	var tasks []models.Task
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &tasks, true); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task and returns the stored document.
func (c *Client) CreateTask(ctx context.Context, task models.Task) (*models.Task, error) {
	var created models.Task
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/tasks", task, &created, true); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	var updated models.Task
	if err := c.doJSON(ctx, http.MethodPatch, "/api/v1/tasks/"+id, patch, &updated, true); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetStatus marks the task completed or incomplete.
func (c *Client) SetStatus(ctx context.Context, id string, status models.Status) (*models.Task, error) {
	var updated models.Task
	err := c.doJSON(ctx, http.MethodPut, "/api/v1/tasks/"+id+"/status",
		map[string]models.Status{"status": status}, &updated, true)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetStarred stars or unstars the task.
func (c *Client) SetStarred(ctx context.Context, id string, starred bool) (*models.Task, error) {
	var updated models.Task
	err := c.doJSON(ctx, http.MethodPut, "/api/v1/tasks/"+id+"/star",
		map[string]bool{"isStarred": starred}, &updated, true)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTask removes the task and its attachments.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/tasks/"+id, nil, nil, true)
}

// doJSON performs one API call. When authed is set the Bearer header is
// attached; a 401 triggers a single token refresh followed by a retry.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, authed bool) error {
	status, err := c.attempt(ctx, method, path, body, out, authed)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized && authed {
		if err := c.refresh(ctx); err != nil {
			return err
		}
		status, err = c.attempt(ctx, method, path, body, out, authed)
		if err != nil {
			return err
		}
	}
	return statusError(status)
}

func (c *Client) attempt(ctx context.Context, method, path string, body, out any, authed bool) (int, error) {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		c.mu.Lock()
		token := c.accessToken
		c.mu.Unlock()
		if token == "" {
			return 0, common.ErrorUnauthenticated
		}
		req.Header.Set(common.AuthHeaderName, common.AuthHeaderPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrorTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return 0, fmt.Errorf("error decoding response: %w", err)
		}
	}
	if resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest {
		var er errorResponse
		if json.NewDecoder(resp.Body).Decode(&er) == nil && er.Error != "" {
			return resp.StatusCode, fmt.Errorf("request rejected: %s", er.Error)
		}
	}
	return resp.StatusCode, nil
}

// refresh exchanges the stored refresh token for a new pair.
func (c *Client) refresh(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refreshToken
	c.mu.Unlock()
	if refresh == "" {
		return common.ErrorUnauthenticated
	}

	var pair tokenPair
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/refresh",
		map[string]string{"refreshToken": refresh}, &pair, false)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.accessToken, c.refreshToken = pair.AccessToken, pair.RefreshToken
	c.mu.Unlock()
	return nil
}

func statusError(status int) error {
	switch {
	case status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return common.ErrorUnauthenticated
	case status == http.StatusNotFound:
		return common.ErrorNotFound
	case status == http.StatusBadGateway:
		return common.ErrorTransport
	default:
		return fmt.Errorf("server returned status %d", status)
	}
}
