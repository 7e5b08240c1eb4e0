package authz

// Decision is the outcome of an access check. The HTTP layer maps
// DenyUnauthenticated to 401 (send the caller to login) and DenyForbidden
// to 403 (send the caller back to their landing view); clients are expected
// to do the equivalent redirect.
type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "deny_unauthenticated"
	case DenyForbidden:
		return "deny_forbidden"
	}
	return "unknown"
}

// Decide is the single authorization gate. It is pure: the answer depends
// only on whether a session exists and on the session's permission set.
// A view or endpoint with no required permissions is open to any
// authenticated session.
func Decide(authenticated bool, granted Set, required ...Permission) Decision {
	if !authenticated {
		return DenyUnauthenticated
	}
	if len(required) == 0 {
		return Allow
	}
	if granted.HasAll(required...) {
		return Allow
	}
	return DenyForbidden
}
