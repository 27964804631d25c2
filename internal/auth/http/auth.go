package http

import (
	"net/http"
	"strings"

	"github.com/coachhub/platform/internal/auth/domain"
	"github.com/coachhub/platform/internal/auth/service"
	"github.com/coachhub/platform/pkg/authsdk"
	"github.com/coachhub/platform/pkg/httpx"
)

// AuthHandler serves registration, login and the token lifecycle.
type AuthHandler struct {
	AuthService  *service.AuthService
	TokenService *service.TokenService
}

func registerInput(req authsdk.RegisterRequest) service.RegisterInput {
	return service.RegisterInput{
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      domain.Role(strings.ToLower(strings.TrimSpace(req.Role))),
	}
}

// HandleRegister handles POST /auth/register
//
//	@Summary		Register an account
//	@Description	Creates an active account (role defaults to client) and returns a token pair. Admin self-registration can be disabled with AUTH_RESTRICT_ADMIN_SIGNUP.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"Profile and password"
//	@Success		201		{object}	authsdk.AuthResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid input"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Email or phone already registered"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limited"
//	@Router			/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	resp, err := h.AuthService.Register(r.Context(), registerInput(req))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

// HandleLogin handles POST /auth/login
//
//	@Summary		Log in
//	@Description	Exchanges email and password for a token pair. Any earlier refresh token stops working.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.AuthResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing fields"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid credentials or deactivated account"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limited"
//	@Router			/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	resp, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRefresh handles POST /auth/refresh-token
//
//	@Summary		Rotate tokens
//	@Description	Exchanges a refresh token for a new pair. The presented refresh token is single use.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.TokenPair
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing refresh token"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid refresh token or Refresh token expired"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limited"
//	@Router			/auth/refresh-token [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		writeBadRequest(w, "refreshToken is required")
		return
	}

	pair, err := h.TokenService.RefreshTokens(r.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleMe handles GET /auth/me
//
//	@Summary		Current identity
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Router			/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := httpx.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, authsdk.MessageInvalidToken)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{ID: p.Subject, Email: p.Email, Role: p.Role})
}

// HandleLogout handles POST /auth/logout
//
//	@Summary		Log out
//	@Description	Revokes the caller's refresh token. The access token stays valid until it expires.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Success		204
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Router			/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	p, ok := httpx.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, authsdk.MessageInvalidToken)
		return
	}
	if err := h.TokenService.Logout(r.Context(), p.Subject); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
