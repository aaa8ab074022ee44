package model

type NavigationEntry struct {
	Label        string `json:"label"`
	TargetPath   string `json:"target_path"`
	Icon         string `json:"icon"`
	AllowedRoles []Role `json:"allowed_roles"`
}

// Permits reports whether role is among the entry's allowed roles.
func (e NavigationEntry) Permits(role Role) bool {
	for _, allowed := range e.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}
