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
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const refreshPath = "/auth/refresh-token"

// Client issues authenticated JSON requests against the supply REST API.
// A 401 triggers exactly one token refresh and one retry.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	logger  logrus.FieldLogger
}

// NewClient constructs a Client. baseURL is the API root, e.g.
// "http://localhost:8080/api".
func NewClient(baseURL string, timeout time.Duration, session *Session, logger logrus.FieldLogger) *Client {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		session: session,
		logger:  logger.WithField("module", "api"),
	}
}

// Session returns the credential state the client reads from.
func (c *Client) Session() *Session { return c.session }

// Do sends an authenticated request and decodes the JSON response into out
// (which may be nil). body, when non-nil, is JSON-encoded.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	status, data, err := c.send(ctx, method, path, query, body, c.session.Get().AccessToken)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		if err := c.refresh(ctx); err != nil {
			return err
		}
		status, data, err = c.send(ctx, method, path, query, body, c.session.Get().AccessToken)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			c.logger.WithFields(logrus.Fields{"method": method, "path": path}).Warn("still unauthorized after refresh")
			c.forget(ctx)
			return &AuthError{Message: errorMessage(data)}
		}
	}
	return decode(path, status, data, out)
}

// DoAnonymous sends a request without credentials and without refresh handling.
// Used for login and registration.
func (c *Client) DoAnonymous(ctx context.Context, method, path string, body, out any) error {
	status, data, err := c.send(ctx, method, path, nil, body, "")
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		return &AuthError{Message: errorMessage(data)}
	}
	return decode(path, status, data, out)
}

func (c *Client) refresh(ctx context.Context) error {
	rt := c.session.Get().RefreshToken
	if rt == "" {
		c.forget(ctx)
		return &AuthError{Message: "session expired"}
	}
	status, data, err := c.send(ctx, http.MethodPost, refreshPath, nil, nil, rt)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		c.logger.WithField("status", status).Warn("token refresh rejected")
		c.forget(ctx)
		return &AuthError{Message: "token refresh failed"}
	}
	var resp struct {
		AccessToken string `json:"accessToken"`
		TokenType   string `json:"tokenType"`
	}
	if err := json.Unmarshal(data, &resp); err != nil || resp.AccessToken == "" {
		c.forget(ctx)
		return &AuthError{Message: "token refresh returned no access token"}
	}
	if err := c.session.SetAccessToken(ctx, resp.AccessToken, resp.TokenType); err != nil {
		return err
	}
	c.logger.Debug("access token refreshed")
	return nil
}

// forget clears the session after an irrecoverable auth failure.
func (c *Client) forget(ctx context.Context) {
	if err := c.session.Clear(ctx); err != nil {
		c.logger.WithError(err).Error("clear credentials")
	}
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, token string) (int, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, nil, err
		}
		return 0, nil, &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &NetworkError{Op: method + " " + path, Err: err}
	}
	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("api request")
	return resp.StatusCode, data, nil
}

func decode(path string, status int, data []byte, out any) error {
	switch {
	case status == http.StatusNotFound:
		return &NotFoundError{Path: path}
	case status < 200 || status >= 300:
		return &ServerError{Status: status, Message: errorMessage(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// errorMessage extracts a human-readable message from an error body.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
