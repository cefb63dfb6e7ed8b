// Package serviceclient is a typed wrapper around the Service's REST
// endpoints: session establishment with two-factor support, file/version
// lifecycle, and avatar CRUD, per spec §4.4 and §6. It is immutable after
// construction and safe to share by reference across a publication's
// concurrent uploads.
package serviceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Kavex/Third3D-uploader/internal/config"
	"github.com/Kavex/Third3D-uploader/internal/errsx"
)

// Client wraps http.Client with the Service's base URL, User-Agent, and
// cookie jar. A Client's Cookies are read by value at construction time;
// to continue a session with new cookies, build a new Client with
// WithCookies rather than mutating one in place.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	cookies    Cookies
}

// New builds a Client from runtime configuration and an optional
// starting cookie pair (zero value for an anonymous client).
func New(cfg *config.Runtime, cookies Cookies) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.ControlPlaneTimeout},
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent(),
		cookies:    cookies,
	}
}

// WithCookies returns a new Client sharing the same transport and
// configuration but carrying a different cookie pair, e.g. after a
// successful login or two-factor verification.
func (c *Client) WithCookies(cookies Cookies) *Client {
	clone := *c
	clone.cookies = cookies
	return &clone
}

// Cookies returns the client's current session cookie pair.
func (c *Client) Cookies() Cookies { return c.cookies }

// response is the envelope every request/do call returns before the
// caller decodes the body into an endpoint-specific type.
type response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (c *Client) do(ctx context.Context, method, path string, body any, basicAuth *basicCreds) (*response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if basicAuth != nil {
		req.SetBasicAuth(url.QueryEscape(basicAuth.username), url.QueryEscape(basicAuth.password))
	} else if cookieHeader := c.cookies.Header(); cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

type basicCreds struct {
	username string
	password string
}

func isSuccess(status int) bool { return status >= 200 && status < 300 }

// asServiceError wraps a non-2xx response into a *errsx.ServiceError,
// unless the caller has already recovered it into a distinguished
// sentinel (AvatarNotFound, BlueprintIdTaken, InvalidCredentials).
func asServiceError(resp *response) error {
	return &errsx.ServiceError{Status: resp.StatusCode, Body: string(resp.Body)}
}
