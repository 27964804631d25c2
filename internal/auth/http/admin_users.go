package http

import (
	"net/http"

	"github.com/coachhub/platform/internal/auth/service"
	"github.com/coachhub/platform/pkg/authsdk"
	"github.com/coachhub/platform/pkg/httpx"
	"github.com/coachhub/platform/pkg/idx"
	"github.com/coachhub/platform/pkg/slogx"
)

type AdminUsersHandler struct {
	UserService *service.UserService
}

// HandleSetActive handles PATCH /admin/users/{id}/active
//
//	@Summary		Activate or deactivate an account
//	@Description	Deactivation also revokes the account's refresh token. Requires the admin role.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"User ID"
//	@Param			request	body		authsdk.SetActiveRequest	true	"Desired state"
//	@Success		200		{object}	authsdk.User
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid ID or body"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Insufficient role"
//	@Failure		404		{object}	authsdk.ErrorResponse	"User not found"
//	@Router			/admin/users/{id}/active [patch].
func (h *AdminUsersHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		writeBadRequest(w, "invalid user id")
		return
	}

	var req authsdk.SetActiveRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.IsActive == nil {
		writeBadRequest(w, "isActive is required")
		return
	}

	u, err := h.UserService.SetActive(r.Context(), id.String(), *req.IsActive)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("account state changed", "target_user_id", u.ID, "is_active", u.IsActive)
	httpx.WriteJSON(w, http.StatusOK, u.Public())
}
