package auth

import (
	"github.com/concesionario/backoffice-api/internal/domain"
	"github.com/google/uuid"
)

type tier int

const (
	tierLimited tier = iota
	tierAdmin
)

// tierOf maps a role to its capability tier. The superuser flag dominates the
// stored role, and unknown roles fall into the limited tier.
func tierOf(role domain.Role, isSuperuser bool) tier {
	if isSuperuser {
		return tierAdmin
	}
	switch role {
	case domain.RoleAdmin, domain.RoleSupervisor:
		return tierAdmin
	default:
		return tierLimited
	}
}

// CanManageClients reports whether a user may create, edit and view clients
// within their visibility scope.
func CanManageClients(role domain.Role, isSuperuser bool) bool {
	return tierOf(role, isSuperuser) >= tierLimited
}

// CanAdminister reports whether a user may manage users, reassign records
// and read the audit log.
func CanAdminister(role domain.Role, isSuperuser bool) bool {
	return tierOf(role, isSuperuser) >= tierAdmin
}

// VisibilityScope returns which owned records a user may see.
func VisibilityScope(role domain.Role, isSuperuser bool, actingUserID uuid.UUID) Scope {
	if CanAdminister(role, isSuperuser) {
		return ScopeAll()
	}
	return OwnedBy(actingUserID)
}

// Scope is either every record or the records owned by one user
type Scope struct {
	all     bool
	ownerID uuid.UUID
}

// ScopeAll grants visibility over every record, including unowned ones
func ScopeAll() Scope {
	return Scope{all: true}
}

// OwnedBy restricts visibility to records owned by userID
func OwnedBy(userID uuid.UUID) Scope {
	return Scope{ownerID: userID}
}

// IsAll reports whether the scope is unrestricted
func (s Scope) IsAll() bool {
	return s.all
}

// OwnerID returns the owner the scope is restricted to. It is uuid.Nil for ScopeAll.
func (s Scope) OwnerID() uuid.UUID {
	return s.ownerID
}

// Allows reports whether a record with the given owner is inside the scope.
// Unowned records are only visible to an unrestricted scope.
func (s Scope) Allows(owner *uuid.UUID) bool {
	if s.all {
		return true
	}
	return owner != nil && *owner == s.ownerID
}

func (s Scope) String() string {
	if s.all {
		return "all"
	}
	return "owned_by:" + s.ownerID.String()
}
