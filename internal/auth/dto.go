package auth

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LoginResponse struct {
	AuthTokens
	Actor Actor `json:"actor"`
}

type ModulesResponse struct {
	Role    Role     `json:"role"`
	Modules []Module `json:"modules"`
}

type PermissionEntry struct {
	Role    Role     `json:"role"`
	Modules []Module `json:"modules"`
}

type PermissionsResponse struct {
	Roles []PermissionEntry `json:"roles"`
}

type PermissionChangeResponse struct {
	Role    Role   `json:"role"`
	Module  Module `json:"module"`
	Granted bool   `json:"granted"`
}

func ToPermissionsResponse(table map[Role][]Module) PermissionsResponse {
	resp := PermissionsResponse{Roles: make([]PermissionEntry, 0, len(AllRoles))}
	for _, r := range AllRoles {
		resp.Roles = append(resp.Roles, PermissionEntry{Role: r, Modules: table[r]})
	}
	return resp
}
