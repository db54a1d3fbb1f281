package middleware

import "context"

// rolePermissions maps role names to their "action subject" capabilities.
// Roles come from the token; the matrix itself is static reference data.
var rolePermissions = map[string]map[string]bool{
	"admin": {
		"read accounts": true, "create accounts": true, "update accounts": true, "delete accounts": true,
		"read all-accounts":     true,
		"read transactions":     true, "create transactions": true, "update transactions": true, "delete transactions": true,
		"read all-transactions": true,
		"read categories":       true, "create categories": true, "update categories": true, "delete categories": true,
		"read users":            true, "create users": true, "update users": true, "delete users": true,
		"read settings":         true, "update settings": true,
		"read reports":          true, "read all-reports": true,
	},
	"manager": {
		"read accounts": true, "create accounts": true, "update accounts": true,
		"read all-accounts":     true,
		"read transactions":     true, "create transactions": true, "update transactions": true,
		"read all-transactions": true,
		"read categories":       true, "create categories": true, "update categories": true,
		"read reports":          true, "read all-reports": true,
	},
	"user": {
		"read accounts": true, "create accounts": true, "update accounts": true, "delete accounts": true,
		"read transactions": true, "create transactions": true, "update transactions": true, "delete transactions": true,
		"read categories":   true, "create categories": true, "update categories": true, "delete categories": true,
		"read reports":      true,
	},
}

// RoleAuthorizer implements domain.Authorizer against the roles carried in
// the request context.
type RoleAuthorizer struct{}

// NewRoleAuthorizer creates a new RoleAuthorizer
func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{}
}

// HasPermission reports whether any of the context's roles grants the
// action on the subject. Users without an explicit role get the base
// "user" capabilities.
func (a *RoleAuthorizer) HasPermission(ctx context.Context, action, subject string) bool {
	roles := GetRoles(ctx)
	if len(roles) == 0 {
		roles = []string{"user"}
	}

	key := action + " " + subject
	for _, role := range roles {
		if rolePermissions[role][key] {
			return true
		}
	}
	return false
}
