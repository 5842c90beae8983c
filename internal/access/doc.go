// Package access provides the per request authorization facts of the application.
//
// A Context is derived from the logged in user on every request and carries the
// acting role and, for non admin roles, the single market the user may act within.
// It is passed explicitly into every call that depends on it.
//
// Page level permissions are decided by a Gate backed by a casbin RBAC model:
//   - role:owner may read and write branch configuration
//   - role:admin inherits everything of role:owner and manages setting definitions
//   - role:user has no permissions
//
// Fiber middleware is provided for route protection:
//   - RequirePermission: checks the Gate for an object and action
//   - RequireMarketScope: rejects requests for a market outside the user's scope
package access
