package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"
)

type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type Client struct {
	baseURL string
	http    *http.Client

	mu          sync.RWMutex
	accessToken string
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

// LoggedIn reports whether an access token is held.
func (c *Client) LoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken != ""
}

func (c *Client) setAccessToken(tok string) {
	c.mu.Lock()
	c.accessToken = tok
	c.mu.Unlock()
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (*User, error) {
	var u User
	in := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", in, &u, false); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) VerifyCode(ctx context.Context, email, code string) (string, error) {
	return c.message(ctx, "/auth/verify-code", map[string]string{"email": email, "code": code})
}

func (c *Client) ResendCode(ctx context.Context, email string) (string, error) {
	return c.message(ctx, "/auth/resend-code", map[string]string{"email": email})
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	return c.message(ctx, "/auth/forgot-password", map[string]string{"email": email})
}

func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) (string, error) {
	return c.message(ctx, "/auth/reset-password", map[string]string{
		"email": email, "code": code, "new_password": newPassword,
	})
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	var tr tokenResponse
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &tr, false); err != nil {
		return err
	}
	c.setAccessToken(tr.AccessToken)
	return nil
}

// Refresh exchanges the refresh cookie for a new access token. A rejected
// cookie also drops the held access token.
func (c *Client) Refresh(ctx context.Context) error {
	var tr tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, &tr, false); err != nil {
		if isUnauthorized(err) {
			c.setAccessToken("")
		}
		return err
	}
	c.setAccessToken(tr.AccessToken)
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	defer c.setAccessToken("")
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, false)
}

// Me fetches the current user. An expired access token is refreshed once.
func (c *Client) Me(ctx context.Context) (*User, error) {
	if !c.LoggedIn() {
		return nil, ErrNotLoggedIn
	}

	var u User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u, true)
	if isUnauthorized(err) {
		if rerr := c.Refresh(ctx); rerr != nil {
			return nil, rerr
		}
		err = c.do(ctx, http.MethodGet, "/auth/me", nil, &u, true)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &h, false); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) message(ctx context.Context, path string, in any) (string, error) {
	var m messageResponse
	if err := c.do(ctx, http.MethodPost, path, in, &m, false); err != nil {
		return "", err
	}
	return m.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, withToken bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withToken {
		c.mu.RLock()
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		c.mu.RUnlock()
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{Status: resp.StatusCode, Detail: decodeDetail(raw, resp.Status)}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// decodeDetail reads {"detail": "..."} or the 422 list form
// {"detail": [{"message": "..."}]}.
func decodeDetail(raw []byte, fallback string) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Detail) == 0 {
		return fallback
	}

	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		return s
	}

	var list []struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Detail, &list); err == nil && len(list) > 0 {
		msgs := make([]string, 0, len(list))
		for _, v := range list {
			msgs = append(msgs, v.Message)
		}
		return strings.Join(msgs, "; ")
	}

	return fallback
}

func isUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
