// Package httpapi is the client side of the access API
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rotafacil/internal/client/ports"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

const (
	apiPrefix      = "/api/v1"
	maxBodyBytes   = 1 << 20
	defaultTimeout = 15 * time.Second
)

// APIError is a non-success answer from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client implements AccessEvaluatorPort and AuthClientPort over HTTP.
// Access checks go through a circuit breaker so an unreachable server is not
// hammered every tick.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

var (
	_ ports.AccessEvaluatorPort = (*Client)(nil)
	_ ports.AuthClientPort      = (*Client)(nil)
)

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "access-check",
			MaxRequests: 1,
			Timeout:     2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			// a stopped monitor cancelling its check says nothing about the server
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		}),
	}
}

type accessResponse struct {
	Allowed         *bool  `json:"allowed"`
	MinutesUntilEnd *int   `json:"minutesUntilEnd"`
	Message         string `json:"message"`
	Error           string `json:"error"`
}

// CheckAccess calls GET /check-access. 2xx decodes the result; 401 and 403
// are denials; anything else is an error.
func (c *Client) CheckAccess(ctx context.Context, credential string) (ports.AccessResult, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.checkAccess(ctx, credential)
	})
	if err != nil {
		return ports.AccessResult{}, err
	}
	return out.(ports.AccessResult), nil
}

func (c *Client) checkAccess(ctx context.Context, credential string) (ports.AccessResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/check-access"), nil)
	if err != nil {
		return ports.AccessResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ports.AccessResult{}, fmt.Errorf("check access: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return ports.AccessResult{}, fmt.Errorf("reading check access response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var r accessResponse
		if err := json.Unmarshal(body, &r); err != nil {
			return ports.AccessResult{}, fmt.Errorf("decoding check access response: %w", err)
		}
		result := ports.AccessResult{Allowed: true, MinutesUntilEnd: r.MinutesUntilEnd, Message: r.Message}
		if r.Allowed != nil && !*r.Allowed {
			result.Allowed = false
			result.MinutesUntilEnd = nil
		}
		return result, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// the body is informative only; a denial stands even if it is not JSON
		var r accessResponse
		_ = json.Unmarshal(body, &r)
		msg := r.Message
		if msg == "" {
			msg = r.Error
		}
		return ports.AccessResult{Allowed: false, Message: msg}, nil
	default:
		return ports.AccessResult{}, &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	User      struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
}

// Login exchanges credentials for a session
func (c *Client) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	payload, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/auth/login"), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	var r loginResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	if r.Token == "" {
		return nil, errors.New("login response without token")
	}
	return &ports.Session{
		Credential: r.Token,
		UserID:     r.User.ID,
		Email:      r.User.Email,
		Name:       r.User.Name,
		ExpiresAt:  time.Now().Add(time.Duration(r.ExpiresIn) * time.Second),
	}, nil
}

// Logout revokes credential on the server. An already revoked credential is
// not an error.
func (c *Client) Logout(ctx context.Context, credential string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/auth/logout"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode/100 == 2 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	return &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
}

func (c *Client) url(path string) string {
	return c.baseURL + apiPrefix + path
}

func errorMessage(body []byte) string {
	var r accessResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return ""
	}
	if r.Message != "" {
		return r.Message
	}
	return r.Error
}
