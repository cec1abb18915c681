package auth

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin        Role = "Admin"
	RoleManager      Role = "Manager"
	RolePhotographer Role = "Photographer"
	RoleVideographer Role = "Videographer"
	RoleEditor       Role = "Editor"
	RoleAccountant   Role = "Accountant"
	RoleClient       Role = "Client"
)

// AllRoles lists every role in display order.
var AllRoles = []Role{
	RoleAdmin,
	RoleManager,
	RolePhotographer,
	RoleVideographer,
	RoleEditor,
	RoleAccountant,
	RoleClient,
}

func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole accepts any casing of a known role name.
func ParseRole(s string) (Role, error) {
	for _, known := range AllRoles {
		if strings.EqualFold(string(known), s) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type Module string

const (
	ModuleLeads         Module = "leads"
	ModuleUsers         Module = "users"
	ModulePhotos        Module = "photos"
	ModuleVideos        Module = "videos"
	ModuleSocial        Module = "social"
	ModuleProjects      Module = "projects"
	ModuleFinance       Module = "finance"
	ModuleSubscriptions Module = "subscriptions"
)

var AllModules = []Module{
	ModuleLeads,
	ModuleUsers,
	ModulePhotos,
	ModuleVideos,
	ModuleSocial,
	ModuleProjects,
	ModuleFinance,
	ModuleSubscriptions,
}

func (m Module) Valid() bool {
	for _, known := range AllModules {
		if m == known {
			return true
		}
	}
	return false
}

func ParseModule(s string) (Module, error) {
	m := Module(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown module %q", s)
	}
	return m, nil
}

func roleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
