package user

import (
	"context"
	"net/http"

	"github.com/a1media/agency-dashboard/internal/auth"
	"github.com/a1media/agency-dashboard/internal/transport"
	"github.com/a1media/agency-dashboard/pkg/logger"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]*User, error)
}

// ModuleLister reports which modules a role may open.
type ModuleLister interface {
	ModulesFor(role auth.Role) []auth.Module
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Modules ModuleLister
}

func NewHandler(svc ServiceAPI, modules ModuleLister) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     svc,
		Modules:     modules,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Service.GetByID(r.Context(), actor.UserID())
	if err != nil {
		h.Logger.Error("GetCurrentUser: service GetByID failed", "user_id", actor.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CurrentUserResponse{
		User:    u,
		Modules: h.Modules.ModulesFor(actor.Role),
	})
}

// ListUsers handles GET /users?role=Photographer&active=true
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, err := auth.ParseRole(raw)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Role = role
	}

	users, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListUsersResponse{Users: users, Total: len(users)})
}
