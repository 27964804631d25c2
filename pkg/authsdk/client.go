package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client talks to the auth service without credentials.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account and returns a session for it.
func (c *Client) Register(ctx context.Context, in RegisterRequest) (*Session, error) {
	var out AuthResponse
	if err := c.call(ctx, http.MethodPost, "/auth/register", in, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return c.NewSession(out.User, out.AccessToken, out.RefreshToken), nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out AuthResponse
	if err := c.call(ctx, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return c.NewSession(out.User, out.AccessToken, out.RefreshToken), nil
}

// Refresh exchanges refreshToken for a new pair. refreshToken is spent even
// if the response is lost, so callers must keep the returned pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	var out TokenPair
	err := c.call(ctx, http.MethodPost, "/auth/refresh-token", RefreshRequest{RefreshToken: refreshToken}, &out, http.StatusOK)
	return out, err
}

// RequestSignupOTP starts a code-verified signup. The code is delivered out
// of band; the returned time is when it stops being accepted.
func (c *Client) RequestSignupOTP(ctx context.Context, in RegisterRequest) (time.Time, error) {
	var out SignupOTPResponse
	if err := c.call(ctx, http.MethodPost, "/auth/register/otp", in, &out, http.StatusAccepted); err != nil {
		return time.Time{}, err
	}
	return out.ExpiresAt, nil
}

func (c *Client) VerifySignupOTP(ctx context.Context, email, code string) (*Session, error) {
	var out AuthResponse
	if err := c.call(ctx, http.MethodPost, "/auth/register/otp/verify", VerifySignupRequest{Email: email, Code: code}, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return c.NewSession(out.User, out.AccessToken, out.RefreshToken), nil
}

// GetLiveness checks /livez.
func (c *Client) GetLiveness(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.call(ctx, http.MethodGet, "/livez", nil, &out, http.StatusOK)
	return out, err
}

// GetReadiness checks /readyz. A degraded service returns an *APIError with
// status 503.
func (c *Client) GetReadiness(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.call(ctx, http.MethodGet, "/readyz", nil, &out, http.StatusOK)
	return out, err
}

func (c *Client) call(ctx context.Context, method, path string, body, out any, expected int) error {
	resp, err := c.do(ctx, method, path, "", body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, expected)
}
