// Package guard decides whether a caller may mutate a record.
package guard

import (
	"strings"
)

// Owned is a record which belongs to an identity.
type Owned interface {
	Owner() string
}

// Normalize returns identity in the form it is stored and compared in.
func Normalize(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// Authorize returns true if caller owns the record. Identities are compared case-insensitively.
// Empty caller never owns anything.
func Authorize(r Owned, caller string) bool {
	caller = Normalize(caller)
	if caller == "" {
		return false
	}

	return Normalize(r.Owner()) == caller
}
