// Package authz decides whether a principal may act on a project.
package authz

import "github.com/good-yellow-bee/projectboard/internal/models"

// Decision is the outcome of an access check.
type Decision int

const (
	// Allow permits the operation.
	Allow Decision = iota
	// RequireAuthentication means there is no principal; send them to sign in.
	RequireAuthentication
	// Deny means the principal is signed in but does not own the resource.
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RequireAuthentication:
		return "require_authentication"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Authenticated allows any signed-in principal.
func Authenticated(principal *models.User) Decision {
	if principal == nil || principal.ID == "" {
		return RequireAuthentication
	}
	return Allow
}

// Owner allows only the project's owner. A nil project is denied.
func Owner(principal *models.User, project *models.Project) Decision {
	if d := Authenticated(principal); d != Allow {
		return d
	}
	if project == nil || !project.IsOwnedBy(principal.ID) {
		return Deny
	}
	return Allow
}
