package auth

// Role describes a named role and the permissions it grants. The "*"
// permission grants everything.
type Role struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

var Roles = map[string]Role{
	"admin": {
		Name:        "admin",
		Description: "System administrator",
		Permissions: []string{"*"},
	},
	"manager": {
		Name:        "manager",
		Description: "Sales/Export manager",
		Permissions: []string{
			"clients.read", "clients.write", "clients.delete",
			"deals.read", "deals.write", "deals.delete",
			"orders.read", "orders.write", "orders.delete",
			"documents.read", "documents.write",
			"analytics.read", "reports.read",
		},
	},
	"sales": {
		Name:        "sales",
		Description: "Sales representative",
		Permissions: []string{
			"clients.read", "clients.write",
			"deals.read", "deals.write",
			"orders.read", "orders.write",
			"documents.read", "documents.write",
		},
	},
	"logistics": {
		Name:        "logistics",
		Description: "Logistics coordinator",
		Permissions: []string{
			"clients.read",
			"orders.read", "orders.write",
			"documents.read", "documents.write",
		},
	},
	"finance": {
		Name:        "finance",
		Description: "Finance team member",
		Permissions: []string{
			"clients.read",
			"deals.read",
			"orders.read",
			"analytics.read", "reports.read",
		},
	},
	"support": {
		Name:        "support",
		Description: "Customer support",
		Permissions: []string{
			"clients.read", "clients.write",
			"documents.read",
		},
	},
}

func ValidRole(name string) bool {
	_, ok := Roles[name]
	return ok
}

// HasPermission reports whether any of the user's roles grants perm.
func HasPermission(userRoles []string, perm string) bool {
	for _, r := range userRoles {
		role, ok := Roles[r]
		if !ok {
			continue
		}
		for _, p := range role.Permissions {
			if p == "*" || p == perm {
				return true
			}
		}
	}
	return false
}

// HasRole reports whether the user holds at least one of the wanted roles.
// Admin always passes.
func HasRole(userRoles []string, wanted ...string) bool {
	for _, r := range userRoles {
		if r == "admin" {
			return true
		}
		for _, w := range wanted {
			if r == w {
				return true
			}
		}
	}
	return false
}
