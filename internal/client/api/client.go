// Package api is a thin HTTP client for the portal admin endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrUnauthorized is returned when the server rejects the admin secret.
var ErrUnauthorized = errors.New("admin secret rejected")

// Error is a non-2xx answer from the server.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server: %d %s", e.Status, e.Message)
}

type Stats struct {
	Total          int64 `json:"total"`
	Active         int64 `json:"active"`
	Expired        int64 `json:"expired"`
	Disabled       int64 `json:"disabled"`
	ExpiringSoon   int64 `json:"expiring_soon"`
	Transactions   int64 `json:"transactions"`
	RevenueMinor   int64 `json:"revenue_minor"`
	LoginsLast24h  int64 `json:"logins_last_24h"`
	FailedNotifies int64 `json:"failed_notifications"`
}

type Account struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastPaymentAt time.Time  `json:"lastPaymentAt"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	WarnedAt      *time.Time `json:"warnedAt"`
}

type SweepReport struct {
	Warned       int       `json:"warned"`
	WarnFailures int       `json:"warn_failures"`
	Expired      int64     `json:"expired"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Client calls the admin API with a shared secret.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

func NewClient(baseURL, secret string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Users(ctx context.Context, limit, offset int) ([]Account, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var out struct {
		Users []Account `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/users?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) Disable(ctx context.Context, email string) (*Account, error) {
	return c.setStatus(ctx, email, "disable")
}

func (c *Client) Enable(ctx context.Context, email string) (*Account, error) {
	return c.setStatus(ctx, email, "enable")
}

func (c *Client) setStatus(ctx context.Context, email, action string) (*Account, error) {
	var a Account
	path := "/admin/users/" + url.PathEscape(email) + "/" + action
	if err := c.do(ctx, http.MethodPost, path, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) Sweep(ctx context.Context) (*SweepReport, error) {
	var r SweepReport
	if err := c.do(ctx, http.MethodPost, "/admin/sweep", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Admin-Secret", c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
