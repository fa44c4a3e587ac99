// Package identity talks to the Roblox web APIs: OAuth user info, gamepass
// ownership and group ranks.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/indigoair/indigo/config"
	"github.com/indigoair/indigo/internal/domain"
)

const maxBody = 1 << 20

type UserInfo struct {
	Sub               string `json:"sub"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Nickname          string `json:"nickname"`
}

// DisplayName is the best human name the userinfo response offers.
func (u UserInfo) DisplayName() string {
	for _, n := range []string{u.PreferredUsername, u.Name, u.Nickname} {
		if n != "" {
			return n
		}
	}
	return u.Sub
}

// StatusError is a non-2xx answer from an upstream API.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.URL, e.Code, e.Body)
}

type RobloxClient struct {
	cfg        config.RobloxConfig
	httpClient *http.Client
	retry      RetryPolicy
	logger     *slog.Logger
}

type ClientOption func(*RobloxClient)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(r *RobloxClient) { r.httpClient = c }
}

func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(r *RobloxClient) { r.retry = p }
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(r *RobloxClient) { r.logger = logger }
}

func NewRobloxClient(cfg config.RobloxConfig, opts ...ClientOption) *RobloxClient {
	c := &RobloxClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry:      DefaultRetryPolicy(cfg.Attempts),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserInfo resolves an OAuth access token to the Roblox user behind it.
// A token the provider rejects yields domain.ErrUnauthenticated.
func (c *RobloxClient) UserInfo(ctx context.Context, oauthToken string) (*UserInfo, error) {
	if oauthToken == "" {
		return nil, domain.Validation("roblox oauth token required")
	}

	var info UserInfo
	err := c.getJSON(ctx, c.cfg.OAuthURL, oauthToken, &info)
	var status *StatusError
	if errors.As(err, &status) && (status.Code == http.StatusUnauthorized || status.Code == http.StatusForbidden) {
		return nil, fmt.Errorf("%w: invalid roblox oauth token", domain.ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("roblox userinfo: %w", err)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("%w: userinfo response has no subject", domain.ErrUnauthenticated)
	}
	return &info, nil
}

// OwnsGamepass reports whether the user's inventory holds the configured
// business class gamepass.
func (c *RobloxClient) OwnsGamepass(ctx context.Context, userID string) (bool, error) {
	if c.cfg.GamepassID == "" {
		return false, errors.New("roblox gamepass id is not configured")
	}
	if userID == "" {
		return false, domain.Validation("userId is required")
	}

	endpoint := fmt.Sprintf("%s/v1/users/%s/items/GamePass/%s",
		strings.TrimRight(c.cfg.InventoryURL, "/"), url.PathEscape(userID), url.PathEscape(c.cfg.GamepassID))
	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, "", &resp); err != nil {
		return false, fmt.Errorf("roblox inventory: %w", err)
	}
	return len(resp.Data) > 0, nil
}

// GroupRank returns the user's rank in the configured group, 0 when the
// user is not a member.
func (c *RobloxClient) GroupRank(ctx context.Context, userID string) (int, error) {
	if c.cfg.GroupID == 0 {
		return 0, nil
	}

	endpoint := fmt.Sprintf("%s/v1/users/%s/groups/roles",
		strings.TrimRight(c.cfg.GroupsURL, "/"), url.PathEscape(userID))
	var resp struct {
		Data []struct {
			Group struct {
				ID int64 `json:"id"`
			} `json:"group"`
			Role struct {
				Rank int `json:"rank"`
			} `json:"role"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, "", &resp); err != nil {
		return 0, fmt.Errorf("roblox groups: %w", err)
	}
	for _, m := range resp.Data {
		if m.Group.ID == c.cfg.GroupID {
			return m.Role.Rank, nil
		}
	}
	return 0, nil
}

func (c *RobloxClient) getJSON(ctx context.Context, endpoint, bearer string, out any) error {
	return Retry(ctx, c.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			c.logger.Warn("roblox request failed", "url", endpoint, "error", err)
			return Retryable(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return Retryable(err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			statusErr := &StatusError{URL: endpoint, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				c.logger.Warn("roblox request failed", "url", endpoint, "status", resp.StatusCode)
				return Retryable(statusErr)
			}
			return statusErr
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode %s: %w", endpoint, err)
		}
		return nil
	})
}
