// API service: the shared request helper every backend call goes through
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ldx/internal/shared"
	"golang.org/x/oauth2"
)

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets callers match API errors against the shared sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case shared.ErrNotFound:
		return e.Status == http.StatusNotFound
	case shared.ErrDuplicate:
		return e.Status == http.StatusConflict
	}
	return false
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// APIService is the LDDB backend client.
//
// Every call attaches the stored bearer token. A 401 clears the token and invokes the
// unauthorized handler; every failure is reported once to the error handler and returned.
type APIService struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenStore
	logger         *log.Logger
	onUnauthorized func()
	onError        func(error)
}

// NewAPIService creates a new API service instance for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client, tokens TokenStore) *APIService {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		tokens:     tokens,
		logger:     log.New(io.Discard),
	}
}

// BaseURL returns the backend root URL.
func (a *APIService) BaseURL() string { return a.baseURL }

// AuthURL returns the backend's browser auth page.
func (a *APIService) AuthURL() string { return a.baseURL + "/auth" }

// SetLogger replaces the logger.
func (a *APIService) SetLogger(l *log.Logger) {
	if l != nil {
		a.logger = shared.WithLogger(l, "component", "api")
	}
}

// OnUnauthorized sets the hook run after a 401 cleared the stored token.
func (a *APIService) OnUnauthorized(fn func()) { a.onUnauthorized = fn }

// OnError sets the hook that surfaces every failed call.
func (a *APIService) OnError(fn func(error)) { a.onError = fn }

// do performs a JSON request and decodes a 2xx body into out when out is non-nil.
func (a *APIService) do(ctx context.Context, method, path string, body, out any) error {
	err := a.request(ctx, method, path, body, out, false)
	if err != nil {
		a.logger.Error("api call failed", "method", method, "path", path, "error", err)
		if a.onError != nil {
			a.onError(err)
		}
	}
	return err
}

// request performs the HTTP exchange. Public requests carry no token and treat 401 as an ordinary error.
func (a *APIService) request(ctx context.Context, method, path string, body, out any, public bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if a.tokens != nil && !public {
		token, err := a.tokens.Token(ctx)
		if err != nil {
			a.logger.Warn("failed to read stored token", "error", err)
		} else if token != "" {
			(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
		}
	}

	a.logger.Debug("api request", "method", method, "path", path)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !public {
		if a.tokens != nil {
			if err := a.tokens.ClearToken(ctx); err != nil {
				a.logger.Warn("failed to clear stored token", "error", err)
			}
		}
		if a.onUnauthorized != nil {
			a.onUnauthorized()
		}
		return &APIError{Status: resp.StatusCode, Message: "Unauthorized"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage prefers the body's error field, then message, then "HTTP <status>".
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}
