// Package identity carries the resolved visitor (user or anonymous session)
// through a request.
package identity

import "github.com/gin-gonic/gin"

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

const ginKey = "identity"

// Identity is the owner key used by carts, orders and reservations.
// UserID is zero for anonymous visitors; SessionKey is always set by the
// session middleware.
type Identity struct {
	UserID     uint
	Username   string
	Role       string
	SessionKey string
}

func Anonymous(sessionKey string) Identity {
	return Identity{SessionKey: sessionKey}
}

func (i Identity) Authenticated() bool {
	return i.UserID != 0
}

func (i Identity) Staff() bool {
	return i.Authenticated() && i.Role == RoleStaff
}

// UserIDPtr returns nil for anonymous visitors, for nullable owner columns.
func (i Identity) UserIDPtr() *uint {
	if !i.Authenticated() {
		return nil
	}
	id := i.UserID
	return &id
}

// CanView applies the permissive viewer rule: anonymous viewers, the owner and
// staff pass; other authenticated users do not, including for guest records
// (ownerID nil).
func (i Identity) CanView(ownerID *uint) bool {
	if !i.Authenticated() || i.Staff() {
		return true
	}
	return ownerID != nil && *ownerID == i.UserID
}

func Set(c *gin.Context, id Identity) {
	c.Set(ginKey, id)
}

func From(c *gin.Context) Identity {
	if v, ok := c.Get(ginKey); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}
