// Package rbac holds the role/permission registry and the permission
// mutation service.
package rbac

// Role is a fixed, deploy-time role identifier. Roles are not user-creatable.
type Role string

// The complete role set.
const (
	RoleSuperAdmin    Role = "superAdmin"
	RoleAdmin         Role = "admin"
	RoleRecruiter     Role = "recruiter"
	RoleContentEditor Role = "contentEditor"
)

// Permission is an atomic capability from the fixed catalog.
type Permission string

// The permission catalog: the union of every role's default permissions.
const (
	PermManageJobs      Permission = "manageJobs"
	PermManageCompanies Permission = "manageCompanies"
	PermManageAdmins    Permission = "manageAdmins"
	PermManageContent   Permission = "manageContent"
	PermManageSettings  Permission = "manageSettings"
	PermViewAnalytics   Permission = "viewAnalytics"
)

// catalogOrder keeps permission sets in a stable, deterministic order.
var catalogOrder = []Permission{
	PermManageJobs,
	PermManageCompanies,
	PermManageAdmins,
	PermManageContent,
	PermManageSettings,
	PermViewAnalytics,
}

var rolePermissionDefaults = map[Role][]Permission{
	RoleSuperAdmin: {
		PermManageJobs,
		PermManageCompanies,
		PermManageAdmins,
		PermManageContent,
		PermManageSettings,
		PermViewAnalytics,
	},
	RoleAdmin: {
		PermManageJobs,
		PermManageCompanies,
		PermManageAdmins,
		PermViewAnalytics,
	},
	RoleRecruiter: {
		PermManageJobs,
	},
	RoleContentEditor: {
		PermManageContent,
	},
}

// Roles returns all valid roles in presentation order.
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleRecruiter, RoleContentEditor}
}

// IsRole reports whether the value names a known role.
func IsRole(value string) bool {
	_, ok := rolePermissionDefaults[Role(value)]
	return ok
}

// IsPermission reports whether the value is in the permission catalog.
func IsPermission(value string) bool {
	for _, p := range catalogOrder {
		if p == Permission(value) {
			return true
		}
	}
	return false
}

// DefaultPermissions returns a copy of the compiled default set for a role.
func DefaultPermissions(role Role) []Permission {
	defaults := rolePermissionDefaults[role]
	out := make([]Permission, len(defaults))
	copy(out, defaults)
	return out
}

// sortCatalog orders a permission set by catalog order, dropping duplicates.
func sortCatalog(perms []Permission) []Permission {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	out := make([]Permission, 0, len(set))
	for _, p := range catalogOrder {
		if _, ok := set[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// HasPermission reports whether perms contains p.
func HasPermission(perms []Permission, p Permission) bool {
	for _, candidate := range perms {
		if candidate == p {
			return true
		}
	}
	return false
}

// Strings converts a permission set for storage and claims payloads.
func Strings(perms []Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

// FromStrings converts stored permission names back into the typed set,
// silently skipping values no longer in the catalog.
func FromStrings(values []string) []Permission {
	out := make([]Permission, 0, len(values))
	for _, v := range values {
		if IsPermission(v) {
			out = append(out, Permission(v))
		}
	}
	return sortCatalog(out)
}
