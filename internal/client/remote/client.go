// Package remote implements the client side of the Daybook backend API: a
// thin HTTP client plus the RemoteStore adapter the sync layer talks to.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/daybook/internal/api"
	"github.com/dmitrijs2005/daybook/internal/client/auth"
	"github.com/dmitrijs2005/daybook/internal/common"
)

const requestTimeout = 12 * time.Second

// Client talks to the backend over HTTP/JSON. It holds the access token
// obtained from auth calls and attaches it to every request, much like an
// interceptor would.
type Client struct {
	baseURL string
	http    *http.Client

	mu          sync.Mutex
	accessToken string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) setToken(t string) {
	c.mu.Lock()
	c.accessToken = t
	c.mu.Unlock()
}

// do executes one API call. A non-nil out is filled from the response body.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.token(); t != "" {
		req.Header.Set(common.AuthorizationHeader, "Bearer "+t)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapStatus(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// mapStatus converts HTTP failure statuses to the shared sentinel errors so
// callers can use errors.Is instead of inspecting status codes.
func (c *Client) mapStatus(resp *http.Response) error {
	var payload api.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return common.ErrUnauthenticated
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusConflict:
		return common.ErrUsernameTaken
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return common.ErrUnavailable
	default:
		if payload.Error != "" {
			return fmt.Errorf("api error: %s", payload.Error)
		}
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}
}

func (c *Client) credentials(resp *api.TokenResponse) *auth.Credentials {
	c.setToken(resp.AccessToken)

	provider := auth.ProviderPassword
	if resp.Anonymous {
		provider = auth.ProviderAnonymous
	}
	return &auth.Credentials{
		Identity: auth.Identity{
			ID:        resp.IdentityID,
			Provider:  provider,
			Anonymous: resp.Anonymous,
		},
		RefreshToken: resp.RefreshToken,
	}
}

// RegisterAnonymous creates a brand-new anonymous identity.
func (c *Client) RegisterAnonymous(ctx context.Context) (*auth.Credentials, error) {
	var resp api.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/anonymous", nil, &resp); err != nil {
		return nil, err
	}
	return c.credentials(&resp), nil
}

// Refresh re-establishes a session from a refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*auth.Credentials, error) {
	var resp api.TokenResponse
	req := api.RefreshRequest{RefreshToken: refreshToken}
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", req, &resp); err != nil {
		return nil, err
	}
	return c.credentials(&resp), nil
}

// Link attaches a username and password to the current identity.
func (c *Client) Link(ctx context.Context, username, password string) (*auth.Credentials, error) {
	var resp api.TokenResponse
	req := api.LinkRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/link", req, &resp); err != nil {
		return nil, err
	}
	return c.credentials(&resp), nil
}

// Login signs in to an existing linked identity.
func (c *Client) Login(ctx context.Context, username, password string) (*auth.Credentials, error) {
	var resp api.TokenResponse
	req := api.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return c.credentials(&resp), nil
}

// Ping checks server liveness.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) putEntry(ctx context.Context, e *api.Entry) error {
	return c.do(ctx, http.MethodPut, "/api/entries/"+e.Date, e, nil)
}

func (c *Client) deleteEntry(ctx context.Context, date string) error {
	return c.do(ctx, http.MethodDelete, "/api/entries/"+date, nil, nil)
}

func (c *Client) getEntry(ctx context.Context, date string) (*api.Entry, error) {
	var resp api.Entry
	if err := c.do(ctx, http.MethodGet, "/api/entries/"+date, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) listEntries(ctx context.Context) ([]api.Entry, error) {
	var resp []api.Entry
	if err := c.do(ctx, http.MethodGet, "/api/entries", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) deleteOlderThan(ctx context.Context, days int) error {
	return c.do(ctx, http.MethodDelete, "/api/entries?older_than_days="+strconv.Itoa(days), nil, nil)
}

func (c *Client) clearAll(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/entries", nil, nil)
}

var _ auth.Provider = (*Client)(nil)
