package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrInvalidSession is returned when the identity service rejects a token.
var ErrInvalidSession = eris.New("identity: invalid or expired session")

type User struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	GoogleUser  json.RawMessage `json:"google_user_data,omitempty"`
	LastSignIn  *time.Time      `json:"last_signed_in_at,omitempty"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	DisplayName string          `json:"display_name,omitempty"`
}

// Client talks to the external users service that owns OAuth and sessions.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewClient(apiURL, apiKey string) *Client {
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) RedirectURL(ctx context.Context, provider string) (string, error) {
	var out struct {
		RedirectURL string `json:"redirect_url"`
	}
	path := "/oauth/" + url.PathEscape(provider) + "/redirect_url"
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return "", eris.Wrap(err, "identity: redirect url")
	}
	if out.RedirectURL == "" {
		return "", eris.New("identity: empty redirect url")
	}
	return out.RedirectURL, nil
}

func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	var out struct {
		SessionToken string `json:"session_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/sessions", "", map[string]string{"code": code}, &out); err != nil {
		return "", eris.Wrap(err, "identity: exchange code")
	}
	if out.SessionToken == "" {
		return "", eris.New("identity: empty session token")
	}
	return out.SessionToken, nil
}

func (c *Client) CurrentUser(ctx context.Context, sessionToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/me", sessionToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionToken string) error {
	err := c.do(ctx, http.MethodDelete, "/sessions", sessionToken, nil, nil)
	if eris.Is(err, ErrInvalidSession) {
		return nil
	}
	return eris.Wrap(err, "identity: delete session")
}

func (c *Client) do(ctx context.Context, method, path, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrInvalidSession
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return eris.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	return eris.Wrap(json.Unmarshal(respBody, out), "decode response")
}
