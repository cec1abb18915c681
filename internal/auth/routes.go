package auth

import "strings"

// Route is one navigable dashboard location. A nil Module means the route is
// open to any signed-in actor.
type Route struct {
	Path   string  `json:"path"`
	Module *Module `json:"module,omitempty"`
}

type RouteTable struct {
	routes []Route
}

func moduleRoute(path string, m Module) Route {
	return Route{Path: path, Module: &m}
}

// DefaultRoutes mirrors the dashboard's navigation tree.
func DefaultRoutes() *RouteTable {
	return &RouteTable{routes: []Route{
		{Path: "/"},
		moduleRoute("/leads", ModuleLeads),
		moduleRoute("/users", ModuleUsers),
		moduleRoute("/photos", ModulePhotos),
		moduleRoute("/videos", ModuleVideos),
		moduleRoute("/social", ModuleSocial),
		moduleRoute("/projects", ModuleProjects),
		moduleRoute("/finance", ModuleFinance),
		moduleRoute("/subscriptions", ModuleSubscriptions),
	}}
}

// Resolve finds the route owning path, matching nested paths such as
// /leads/42 to /leads.
func (rt *RouteTable) Resolve(path string) (Route, bool) {
	path = normalizePath(path)
	var best Route
	found := false
	for _, r := range rt.routes {
		if path == r.Path || (r.Path != "/" && strings.HasPrefix(path, r.Path+"/")) {
			if !found || len(r.Path) > len(best.Path) {
				best = r
				found = true
			}
		}
	}
	return best, found
}

func (rt *RouteTable) Routes() []Route {
	return append([]Route(nil), rt.routes...)
}

// AllowedRoles derives a route's allow-list from the permission table.
func (r Route) AllowedRoles(table *PermissionTable) []Role {
	if r.Module == nil {
		return nil
	}
	return table.RolesFor(*r.Module)
}

func normalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
