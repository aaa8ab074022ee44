package model

import "strings"

type Role string

const (
	RoleSuperAdmin          Role = "super_admin"
	RoleRegionalManager     Role = "regional_manager"
	RoleProjectManager      Role = "project_manager"
	RoleFPCUser             Role = "fpc_user"
	RoleAgribusinessOfficer Role = "agribusiness_officer"
)

// Roles lists every defined role in claim order.
var Roles = []Role{
	RoleSuperAdmin,
	RoleRegionalManager,
	RoleProjectManager,
	RoleFPCUser,
	RoleAgribusinessOfficer,
}

var roleByClaim = map[int]Role{
	1: RoleSuperAdmin,
	2: RoleRegionalManager,
	3: RoleProjectManager,
	4: RoleFPCUser,
	5: RoleAgribusinessOfficer,
}

var roleLabels = map[Role]string{
	RoleSuperAdmin:          "Super Admin",
	RoleRegionalManager:     "Regional Manager",
	RoleProjectManager:      "Project Manager",
	RoleFPCUser:             "FPC User",
	RoleAgribusinessOfficer: "Agribusiness Officer",
}

// RoleFromClaim maps the numeric role claim carried in bearer tokens.
// Unmapped values fall back to RoleFPCUser.
func RoleFromClaim(claim int) Role {
	if role, ok := roleByClaim[claim]; ok {
		return role
	}
	return RoleFPCUser
}

// ParseRole accepts a role name in any case. ok is false for unknown names.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := roleLabels[role]
	return role, ok
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return string(r)
}
