package auth

import (
	"sort"
	"sync"
)

// PermissionTable maps each role to the set of modules it may open.
// Every known role always has an entry, possibly empty. It is safe for
// concurrent use; all mutation goes through Grant, Revoke, Toggle and Replace.
type PermissionTable struct {
	mu      sync.RWMutex
	entries map[Role]map[Module]struct{}
}

// DefaultRoleModules is the table a fresh installation starts from.
func DefaultRoleModules() map[Role][]Module {
	return map[Role][]Module{
		RoleAdmin:        append([]Module(nil), AllModules...),
		RoleManager:      append([]Module(nil), AllModules...),
		RolePhotographer: {ModulePhotos, ModuleProjects},
		RoleVideographer: {ModuleVideos, ModuleProjects},
		RoleEditor:       {ModulePhotos, ModuleVideos, ModuleSocial, ModuleProjects},
		RoleAccountant:   {ModuleFinance, ModuleSubscriptions},
		RoleClient:       {ModulePhotos, ModuleVideos},
	}
}

func NewPermissionTable(initial map[Role][]Module) *PermissionTable {
	t := &PermissionTable{entries: make(map[Role]map[Module]struct{}, len(AllRoles))}
	for _, r := range AllRoles {
		t.entries[r] = make(map[Module]struct{})
	}
	for r, modules := range initial {
		if !r.Valid() {
			continue
		}
		for _, m := range modules {
			if m.Valid() {
				t.entries[r][m] = struct{}{}
			}
		}
	}
	return t
}

func NewDefaultPermissionTable() *PermissionTable {
	return NewPermissionTable(DefaultRoleModules())
}

func (t *PermissionTable) Allows(role Role, module Module) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[role][module]
	return ok
}

// ModulesFor returns the role's modules in canonical module order.
func (t *PermissionTable) ModulesFor(role Role) []Module {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.modulesLocked(role)
}

// RolesFor returns the allow-list for a module. The result is never nil, so
// a module nobody holds denies everyone instead of admitting everyone.
func (t *PermissionTable) RolesFor(module Module) []Role {
	t.mu.RLock()
	defer t.mu.RUnlock()
	roles := make([]Role, 0, len(AllRoles))
	for _, r := range AllRoles {
		if _, ok := t.entries[r][module]; ok {
			roles = append(roles, r)
		}
	}
	return roles
}

func (t *PermissionTable) Grant(role Role, module Module) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[role]; ok && module.Valid() {
		e[module] = struct{}{}
	}
}

func (t *PermissionTable) Revoke(role Role, module Module) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[role]; ok {
		delete(e, module)
	}
}

// Toggle flips one grant and reports whether the module is now granted.
func (t *PermissionTable) Toggle(role Role, module Module) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[role]
	if !ok || !module.Valid() {
		return false
	}
	if _, granted := e[module]; granted {
		delete(e, module)
		return false
	}
	e[module] = struct{}{}
	return true
}

// Replace swaps in a whole role's module set.
func (t *PermissionTable) Replace(role Role, modules []Module) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[role]; !ok {
		return
	}
	next := make(map[Module]struct{}, len(modules))
	for _, m := range modules {
		if m.Valid() {
			next[m] = struct{}{}
		}
	}
	t.entries[role] = next
}

// Snapshot copies the table so callers can read it without holding the lock.
func (t *PermissionTable) Snapshot() map[Role][]Module {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[Role][]Module, len(t.entries))
	for _, r := range AllRoles {
		out[r] = t.modulesLocked(r)
	}
	return out
}

func (t *PermissionTable) modulesLocked(role Role) []Module {
	e := t.entries[role]
	modules := make([]Module, 0, len(e))
	for m := range e {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool {
		return moduleIndex(modules[i]) < moduleIndex(modules[j])
	})
	return modules
}

func moduleIndex(m Module) int {
	for i, known := range AllModules {
		if known == m {
			return i
		}
	}
	return len(AllModules)
}
