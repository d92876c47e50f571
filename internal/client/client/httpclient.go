package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// HTTPClient implements Client over the JSON API. It is safe for concurrent use.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu          sync.RWMutex
	accessToken string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type credentialsRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Msg    string       `json:"msg"`
	Errors []FieldError `json:"errors"`
}

func (c *HTTPClient) Register(ctx context.Context, name, email, password string) error {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/users", credentialsRequest{Name: name, Email: email, Password: password}, &resp); err != nil {
		return err
	}
	c.SetToken(resp.Token)
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) error {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth", credentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return err
	}
	c.SetToken(resp.Token)
	return nil
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/api/auth", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/ping", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return fmt.Errorf("%w: status %q", ErrUnavailable, resp.Status)
	}
	return nil
}

// Logout forgets the session token. Tokens are stateless, so nothing is sent.
func (c *HTTPClient) Logout() {
	c.SetToken("")
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// SetToken installs a previously issued session token.
func (c *HTTPClient) SetToken(t string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = t
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.Token(); t != "" {
		req.Header.Set(common.AccessTokenHeaderName, t)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	return mapError(resp.StatusCode, data)
}

func mapError(status int, data []byte) error {
	var er errorResponse
	_ = json.Unmarshal(data, &er)

	if status == http.StatusUnauthorized {
		if er.Msg != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, er.Msg)
		}
		return ErrUnauthorized
	}

	apiErr := &APIError{StatusCode: status, Message: er.Msg, Fields: er.Errors}
	if apiErr.Message == "" && len(apiErr.Fields) == 0 {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
