package shared

import (
	"context"
	"errors"
)

// Scope identifies the tenant and acting user for a ledger operation.
// It is passed explicitly into every service call rather than read from
// ambient request state.
type Scope struct {
	TenantID int64
	UserID   int64
}

// ErrMissingTenant indicates the scope carries no tenant.
var ErrMissingTenant = errors.New("shared: tenant required")

// Validate ensures the scope is usable for writes.
func (s Scope) Validate() error {
	if s.TenantID == 0 {
		return ErrMissingTenant
	}
	return nil
}

type scopeContextKey struct{}

// ContextWithScope stores the scope in context for handler plumbing.
func ContextWithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext extracts the scope from context.
func ScopeFromContext(ctx context.Context) Scope {
	scope, _ := ctx.Value(scopeContextKey{}).(Scope)
	return scope
}
