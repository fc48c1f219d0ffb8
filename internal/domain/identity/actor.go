// Package identity describes the authenticated user acting on a request.
package identity

import (
	"strings"

	"github.com/google/uuid"
)

// RoleAdmin is the role that bypasses country scoping
const RoleAdmin = "ADMIN"

// Actor is the authenticated user performing an operation
type Actor struct {
	UserID              uuid.UUID
	Username            string
	Role                string
	SupervisedCountries []string
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return strings.EqualFold(a.Role, RoleAdmin)
}

// Supervises reports whether the actor supervises the given country code
func (a Actor) Supervises(countryCode string) bool {
	if countryCode == "" {
		return false
	}
	for _, c := range a.SupervisedCountries {
		if strings.EqualFold(c, countryCode) {
			return true
		}
	}
	return false
}
