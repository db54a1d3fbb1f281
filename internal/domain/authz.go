package domain

import "context"

// Authorizer answers capability checks for the identity carried in the
// request context. It is consumed only by read-scoping decisions; write
// paths always scope to the acting user's own accounts regardless of
// elevated permissions.
type Authorizer interface {
	HasPermission(ctx context.Context, action, subject string) bool
}
