package user

import "github.com/a1media/agency-dashboard/internal/auth"

// CurrentUserResponse is returned by GET /users/me. Modules drives the
// dashboard sidebar.
type CurrentUserResponse struct {
	*User
	Modules []auth.Module `json:"modules"`
}

type ListFilter struct {
	Role       auth.Role
	ActiveOnly bool
}

type ListUsersResponse struct {
	Users []*User `json:"users"`
	Total int     `json:"total"`
}
