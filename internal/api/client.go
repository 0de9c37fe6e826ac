// Package api implements the typed REST client for the assignment backend.
// Authentication is session-cookie based: the jar captures the cookie on
// login and every later request carries it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"taskline/internal/models"
)

// Error is a failed backend response. Message carries the backend's
// {"error": ...} field when the body was JSON, the plain-text body otherwise.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// Client talks to the assignment backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a backend client. requestsPerSecond bounds outbound traffic;
// zero or negative disables the limiter.
func New(baseURL string, timeout time.Duration, requestsPerSecond float64) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), int(requestsPerSecond*2)+1)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   timeout,
		},
		limiter: limiter,
	}, nil
}

// do performs one JSON request/response exchange. A non-2xx response is
// returned as *Error; out may be nil for operations with no success body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.responseError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) responseError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			apiErr.Message = body.Error
		}
	} else if text := strings.TrimSpace(string(data)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}

type authResponse struct {
	User models.User `json:"user"`
}

// Login authenticates with email and password; the session cookie is kept in
// the client's jar.
func (c *Client) Login(ctx context.Context, email, password string) (models.User, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return models.User{}, err
	}
	return resp.User, nil
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, name, email, password string) (models.User, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", body, &resp); err != nil {
		return models.User{}, err
	}
	return resp.User, nil
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// ListAssignments fetches the active collection.
func (c *Client) ListAssignments(ctx context.Context) ([]models.Assignment, error) {
	var list []models.Assignment
	if err := c.do(ctx, http.MethodGet, "/assignments", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListArchived fetches the archived collection.
func (c *Client) ListArchived(ctx context.Context) ([]models.Assignment, error) {
	var list []models.Assignment
	if err := c.do(ctx, http.MethodGet, "/assignments/archived", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetAssignment fetches a single assignment by id.
func (c *Client) GetAssignment(ctx context.Context, id string) (models.Assignment, error) {
	var a models.Assignment
	if err := c.do(ctx, http.MethodGet, "/assignments/"+url.PathEscape(id), nil, &a); err != nil {
		return models.Assignment{}, err
	}
	return a, nil
}

// CreateAssignment submits a draft. The backend assigns the id and may attach
// generated subtasks derived from the description.
func (c *Client) CreateAssignment(ctx context.Context, draft models.Assignment) (models.Assignment, error) {
	var created models.Assignment
	if err := c.do(ctx, http.MethodPost, "/assignments", draft, &created); err != nil {
		return models.Assignment{}, err
	}
	return created, nil
}

// UpdateAssignment replaces the full assignment by id.
func (c *Client) UpdateAssignment(ctx context.Context, a models.Assignment) (models.Assignment, error) {
	var updated models.Assignment
	if err := c.do(ctx, http.MethodPut, "/assignments/"+url.PathEscape(a.ID), a, &updated); err != nil {
		return models.Assignment{}, err
	}
	return updated, nil
}

// DeleteAssignment removes an assignment permanently.
func (c *Client) DeleteAssignment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/assignments/"+url.PathEscape(id), nil, nil)
}

// SetArchived archives or unarchives an assignment.
func (c *Client) SetArchived(ctx context.Context, id string, archived bool) (models.Assignment, error) {
	body := map[string]bool{"archived": archived}
	var a models.Assignment
	if err := c.do(ctx, http.MethodPatch, "/assignments/"+url.PathEscape(id)+"/archive", body, &a); err != nil {
		return models.Assignment{}, err
	}
	return a, nil
}

// Health pings the backend health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}
