package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Session holds the token pair of a signed in user. It is safe for
// concurrent use; concurrent 401s trigger a single rotation.
type Session struct {
	client *Client
	user   User

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewSession wraps tokens obtained elsewhere.
func (c *Client) NewSession(user User, accessToken, refreshToken string) *Session {
	return &Session{
		client:       c,
		user:         user,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

// User is the profile returned when the session was created.
func (s *Session) User() User { return s.user }

func (s *Session) Tokens() TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TokenPair{AccessToken: s.accessToken, RefreshToken: s.refreshToken}
}

// Refresh rotates the token pair.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx, s.accessToken)
}

// refreshLocked rotates unless another caller already replaced stale.
func (s *Session) refreshLocked(ctx context.Context, stale string) error {
	if s.accessToken != stale {
		return nil
	}
	if s.refreshToken == "" {
		return ErrNoRefreshToken
	}
	pair, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return err
	}
	s.accessToken, s.refreshToken = pair.AccessToken, pair.RefreshToken
	return nil
}

func (s *Session) Me(ctx context.Context) (MeResponse, error) {
	var out MeResponse
	err := s.call(ctx, http.MethodGet, "/auth/me", nil, &out, http.StatusOK)
	return out, err
}

// Logout revokes the refresh token server side and forgets it locally.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.call(ctx, http.MethodPost, "/auth/logout", nil, nil, http.StatusNoContent); err != nil {
		return err
	}
	s.mu.Lock()
	s.refreshToken = ""
	s.mu.Unlock()
	return nil
}

// SetUserActive activates or deactivates an account. It requires an admin
// session.
func (s *Session) SetUserActive(ctx context.Context, userID string, active bool) (User, error) {
	var out User
	err := s.call(ctx, http.MethodPatch, fmt.Sprintf("/admin/users/%s/active", userID),
		SetActiveRequest{IsActive: &active}, &out, http.StatusOK)
	return out, err
}

// call sends an authenticated request, rotating the pair and retrying once
// when the access token is rejected.
func (s *Session) call(ctx context.Context, method, path string, body, out any, expected int) error {
	token := s.Tokens().AccessToken
	resp, err := s.client.do(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()

		s.mu.Lock()
		err := s.refreshLocked(ctx, token)
		token = s.accessToken
		s.mu.Unlock()
		if err != nil {
			return fmt.Errorf("refresh session: %w", err)
		}

		if resp, err = s.client.do(ctx, method, path, token, body); err != nil {
			return err
		}
	}
	return decodeJSON(resp, out, expected)
}
