package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// APIError is a non-2xx answer from the auth API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth api: %d %s", e.Status, e.Message)
}

// Client calls the HTTP auth endpoints. Tokens come back as cookies and stay
// in the jar; only the identity and expiry are returned to callers.
type Client struct {
	base string
	http *http.Client
}

// NewClient targets base, e.g. "http://localhost:3000/api". A nil httpClient
// gets a fresh cookie jar.
func NewClient(base string, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		httpClient = &http.Client{Jar: jar, Timeout: 15 * time.Second}
	}
	return &Client{base: strings.TrimRight(base, "/"), http: httpClient}, nil
}

// Jar is shared with the websocket dialer so the handshake carries the
// access cookie.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

func (c *Client) post(ctx context.Context, route string, body any, out any) error {
	if body == nil {
		body = struct{}{}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", route, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+route, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", route, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("POST %s: read body: %w", route, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("POST %s: decode response: %w", route, err)
	}
	return nil
}

func (c *Client) postAuth(ctx context.Context, route string, body any) (Credential, error) {
	var resp Response
	if err := c.post(ctx, route, body, &resp); err != nil {
		return Credential{}, err
	}
	return resp.Credential(), nil
}

func (c *Client) RegisterGuest(ctx context.Context, name string) (Credential, error) {
	return c.postAuth(ctx, "/auth/guest", map[string]string{"name": name})
}

func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/auth/logout", nil, nil)
}

// Refresh implements Refresher.
func (c *Client) Refresh(ctx context.Context) (Credential, error) {
	return c.postAuth(ctx, "/auth/refresh", nil)
}

func (c *Client) SetEmail(ctx context.Context, email string) error {
	return c.post(ctx, "/auth/email/setup", map[string]string{"email": email}, nil)
}

func (c *Client) VerifyEmail(ctx context.Context, code string) (Credential, error) {
	return c.postAuth(ctx, "/auth/email/verify", map[string]string{"code": code})
}

func (c *Client) GetPassCode(ctx context.Context) error {
	return c.post(ctx, "/auth/pass/request", nil, nil)
}

func (c *Client) SetPass(ctx context.Context, password, code string) (Credential, error) {
	return c.postAuth(ctx, "/auth/pass/set", map[string]string{"pass": password, "code": code})
}

func (c *Client) GetLoginCode(ctx context.Context, email string) error {
	return c.post(ctx, "/auth/login/getCode", map[string]string{"email": email}, nil)
}

func (c *Client) LoginWithCode(ctx context.Context, email, code string) (Credential, error) {
	return c.postAuth(ctx, "/auth/login/useCode", map[string]string{"email": email, "code": code})
}

func (c *Client) LoginWithPassword(ctx context.Context, email, password string) (Credential, error) {
	return c.postAuth(ctx, "/auth/login/password", map[string]string{"email": email, "pass": password})
}
