package http

import (
	"context"

	"github.com/coachhub/platform/internal/auth/service"
	"github.com/coachhub/platform/pkg/httpx"
)

// tokenAuthenticator resolves bearer tokens through the token service, so
// deactivated or deleted accounts are rejected on every request.
type tokenAuthenticator struct {
	tokens *service.TokenService
}

func (a tokenAuthenticator) Authenticate(ctx context.Context, raw string) (httpx.Principal, error) {
	p, err := a.tokens.ValidateAccessToken(ctx, raw)
	if err != nil {
		return httpx.Principal{}, err
	}
	return httpx.Principal{Subject: p.ID, Email: p.Email, Role: p.Role.String()}, nil
}
