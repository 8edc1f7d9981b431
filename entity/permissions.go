package entity

import (
	"slices"
	"strings"

	"github.com/goliatone/go-repair-console/pkg/interfaces"
)

// Roles known to the console.
const (
	RoleAdmin        = "admin"
	RoleManager      = "manager"
	RoleTechnician   = "technician"
	RoleReceptionist = "receptionist"
)

// Predicate decides whether principal may act on record. Predicates are
// pure and evaluated on every call.
type Predicate func(principal interfaces.Principal, record Record) bool

// Permissions gates the row actions of an entity.
type Permissions struct {
	View   Predicate
	Edit   Predicate
	Delete Predicate
}

// Allow returns a predicate that always passes.
func Allow() Predicate {
	return func(interfaces.Principal, Record) bool { return true }
}

// RolesIn returns a predicate that passes for the listed roles.
func RolesIn(roles ...string) Predicate {
	allowed := make([]string, 0, len(roles))
	for _, role := range roles {
		allowed = append(allowed, strings.ToLower(role))
	}
	return func(principal interfaces.Principal, _ Record) bool {
		return slices.Contains(allowed, strings.ToLower(strings.TrimSpace(principal.Role)))
	}
}

func (p Permissions) CanView(principal interfaces.Principal, record Record) bool {
	return check(p.View, principal, record)
}

func (p Permissions) CanEdit(principal interfaces.Principal, record Record) bool {
	return check(p.Edit, principal, record)
}

func (p Permissions) CanDelete(principal interfaces.Principal, record Record) bool {
	return check(p.Delete, principal, record)
}

// A nil predicate denies.
func check(pred Predicate, principal interfaces.Principal, record Record) bool {
	if pred == nil {
		return false
	}
	return pred(principal, record)
}
