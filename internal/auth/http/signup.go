package http

import (
	"net/http"
	"strings"

	"github.com/coachhub/platform/internal/auth/service"
	"github.com/coachhub/platform/pkg/authsdk"
	"github.com/coachhub/platform/pkg/httpx"
)

// SignupHandler serves the email code verified registration flow.
type SignupHandler struct {
	SignupService *service.SignupService
}

// HandleRequest handles POST /auth/register/otp
//
//	@Summary		Start a verified signup
//	@Description	Validates the profile and emails a one-time code. No account exists until the code is verified.
//	@Tags			Signup
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"Profile and password"
//	@Success		202		{object}	authsdk.SignupOTPResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid input"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Email or phone already registered"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limited"
//	@Router			/auth/register/otp [post].
func (h *SignupHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	expiresAt, err := h.SignupService.RequestSignupOTP(r.Context(), registerInput(req))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, authsdk.SignupOTPResponse{ExpiresAt: expiresAt.UTC()})
}

// HandleVerify handles POST /auth/register/otp/verify
//
//	@Summary		Complete a verified signup
//	@Tags			Signup
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifySignupRequest	true	"Email and code"
//	@Success		201		{object}	authsdk.AuthResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing fields"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid verification code"
//	@Failure		404		{object}	authsdk.ErrorResponse	"No pending signup"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Email or phone registered meanwhile"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many attempts"
//	@Router			/auth/register/otp/verify [post].
func (h *SignupHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifySignupRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Code) == "" {
		writeBadRequest(w, "email and code are required")
		return
	}

	resp, err := h.SignupService.VerifySignupOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}
