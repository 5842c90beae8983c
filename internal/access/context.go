package access

import "github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"

// Context holds the acting identity of one request. It is never persisted.
type Context struct {
	UserID   uint64
	role     models.Role
	marketID *uint64
}

// New builds a Context. The market is dropped for admins, who are never scoped.
func New(userID uint64, role models.Role, marketID *uint64) Context {
	ac := Context{UserID: userID, role: role}

	if role != models.RoleAdmin && marketID != nil {
		m := *marketID
		ac.marketID = &m
	}

	return ac
}

// FromUser builds the Context of u.
func FromUser(u *models.User) Context {
	return New(u.ID, u.Role, u.MarketID)
}

// Role of the acting identity.
func (c Context) Role() models.Role {
	return c.role
}

// IsAdmin reports whether the identity bypasses block lists and market scoping.
func (c Context) IsAdmin() bool {
	return c.role == models.RoleAdmin
}

// ScopedMarketID is nil for admins and the assigned market otherwise.
func (c Context) ScopedMarketID() *uint64 {
	if c.marketID == nil {
		return nil
	}

	m := *c.marketID

	return &m
}

// Allows reports whether the identity may act within marketID.
// A non admin without an assigned market may act nowhere.
func (c Context) Allows(marketID uint64) bool {
	if c.IsAdmin() {
		return true
	}

	return c.marketID != nil && *c.marketID == marketID
}
