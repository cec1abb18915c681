package auth

import (
	"net/http"

	"github.com/a1media/agency-dashboard/internal"
	"github.com/a1media/agency-dashboard/internal/transport"
	"github.com/a1media/agency-dashboard/pkg/logger"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("Login: authentication failed", "email", dto.Email, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.Logger.Warn("RefreshToken: token refresh failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	if err := h.Service.Logout(r.Context(), token); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Authorize handles GET /navigation/authorize?path=/finance. The decision is
// always returned with 200; the client acts on the outcome.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = HomePath
	}

	d := h.Service.NavigationDecision(r.Context(), SessionFromContext(r.Context()), path)
	h.WriteJSON(w, http.StatusOK, d)
}

// AllowedModules handles GET /navigation/modules for the sidebar.
func (h *Handler) AllowedModules(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.WriteJSON(w, http.StatusOK, ModulesResponse{
		Role:    actor.Role,
		Modules: h.Service.AllowedModules(actor),
	})
}

func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, ToPermissionsResponse(h.Service.Permissions()))
}

// GrantPermission handles PUT /roles/{role}/modules/{module}
func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	h.changePermission(w, r, PermissionGrant)
}

// RevokePermission handles DELETE /roles/{role}/modules/{module}
func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	h.changePermission(w, r, PermissionRevoke)
}

// TogglePermission handles POST /roles/{role}/modules/{module}/toggle
func (h *Handler) TogglePermission(w http.ResponseWriter, r *http.Request) {
	h.changePermission(w, r, PermissionToggle)
}

func (h *Handler) changePermission(w http.ResponseWriter, r *http.Request, op PermissionOp) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	role, err := ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		h.HandleServiceError(w, internal.NewValidationFieldError("role", err.Error(), internal.ErrCodeInvalidRole))
		return
	}
	module, err := ParseModule(chi.URLParam(r, "module"))
	if err != nil {
		h.HandleServiceError(w, internal.NewValidationFieldError("module", err.Error(), internal.ErrCodeInvalidModule))
		return
	}

	granted, err := h.Service.SetPermission(r.Context(), actor, role, module, op)
	if err != nil {
		h.Logger.Warn("changePermission: failed", "role", role, "module", module, "op", op, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, PermissionChangeResponse{Role: role, Module: module, Granted: granted})
}
