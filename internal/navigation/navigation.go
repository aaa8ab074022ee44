package navigation

import (
	"strings"

	"fpc-portal/internal/model"
)

const DashboardPath = "/dashboard"

const (
	PathFPORegistry   = "/fpo"
	PathPending       = "/fpo/pending"
	PathRegisterFPO   = "/fpo/register"
	PathAgriBusiness  = "/agri-business"
	PathAddTurnover   = "/agri-business/new"
	PathDistrictsData = "/reference/districts"
)

var dashboard = model.NavigationEntry{
	Label:        "Dashboard",
	TargetPath:   DashboardPath,
	Icon:         "gauge",
	AllowedRoles: model.Roles,
}

var catalog = map[string]model.NavigationEntry{
	PathFPORegistry: {
		Label:      "FPO Registry",
		TargetPath: PathFPORegistry,
		Icon:       "building",
		AllowedRoles: []model.Role{
			model.RoleSuperAdmin, model.RoleRegionalManager, model.RoleProjectManager,
		},
	},
	PathPending: {
		Label:        "Pending Approvals",
		TargetPath:   PathPending,
		Icon:         "clipboard-check",
		AllowedRoles: []model.Role{model.RoleSuperAdmin, model.RoleRegionalManager},
	},
	PathRegisterFPO: {
		Label:      "Register FPO",
		TargetPath: PathRegisterFPO,
		Icon:       "file-plus",
		AllowedRoles: []model.Role{
			model.RoleSuperAdmin, model.RoleProjectManager, model.RoleFPCUser,
		},
	},
	PathAgriBusiness: {
		Label:        "Agri Business",
		TargetPath:   PathAgriBusiness,
		Icon:         "sprout",
		AllowedRoles: model.Roles,
	},
	PathAddTurnover: {
		Label:        "Add Turnover",
		TargetPath:   PathAddTurnover,
		Icon:         "plus-circle",
		AllowedRoles: []model.Role{model.RoleFPCUser, model.RoleAgribusinessOfficer},
	},
	PathDistrictsData: {
		Label:        "Districts",
		TargetPath:   PathDistrictsData,
		Icon:         "map",
		AllowedRoles: []model.Role{model.RoleSuperAdmin},
	},
}

// byRole is the hand-authored menu order for each role, after Dashboard.
var byRole = map[model.Role][]string{
	model.RoleSuperAdmin: {
		PathFPORegistry, PathPending, PathRegisterFPO, PathAgriBusiness, PathDistrictsData,
	},
	model.RoleRegionalManager: {
		PathFPORegistry, PathPending, PathAgriBusiness,
	},
	model.RoleProjectManager: {
		PathFPORegistry, PathRegisterFPO, PathAgriBusiness,
	},
	model.RoleFPCUser: {
		PathRegisterFPO, PathAgriBusiness, PathAddTurnover,
	},
	model.RoleAgribusinessOfficer: {
		PathAgriBusiness, PathAddTurnover,
	},
}

// Resolve returns the ordered navigation for role. Dashboard always comes
// first; unknown or empty roles get Dashboard only. The result is a fresh
// copy the caller may modify.
func Resolve(role model.Role) []model.NavigationEntry {
	paths := byRole[role]

	entries := make([]model.NavigationEntry, 0, len(paths)+1)
	entries = append(entries, clone(dashboard))
	for _, path := range paths {
		entries = append(entries, clone(catalog[path]))
	}
	return entries
}

// Allowed reports whether path is one of role's navigation targets. A path
// below a target (such as /fpo/12) is allowed when its longest matching
// target is.
func Allowed(role model.Role, path string) bool {
	path = normalize(path)

	best := ""
	for _, entry := range Resolve(role) {
		target := entry.TargetPath
		if path == target || strings.HasPrefix(path, target+"/") {
			if len(target) > len(best) {
				best = target
			}
		}
	}
	if best == "" {
		return false
	}
	if best == path {
		return true
	}

	// A deeper catalog entry the role lacks, such as /fpo/pending for a
	// project manager, is not reachable through its parent.
	for target := range catalog {
		if len(target) > len(best) && (path == target || strings.HasPrefix(path, target+"/")) {
			return false
		}
	}
	return true
}

// Lookup returns the catalog entry for path.
func Lookup(path string) (model.NavigationEntry, bool) {
	path = normalize(path)
	if path == DashboardPath {
		return clone(dashboard), true
	}
	entry, ok := catalog[path]
	if !ok {
		return model.NavigationEntry{}, false
	}
	return clone(entry), true
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

func clone(e model.NavigationEntry) model.NavigationEntry {
	e.AllowedRoles = append([]model.Role(nil), e.AllowedRoles...)
	return e
}
