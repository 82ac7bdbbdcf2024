package models

// Principal is the identity a request acts as. It is built from the identity
// provider's token by the auth middleware; an empty Principal is anonymous.
type Principal struct {
	UserID        int64   `json:"userId"`
	Email         string  `json:"email"`
	Name          string  `json:"name"`
	GroupIDs      []int64 `json:"groups"`
	Authenticated bool    `json:"authenticated"`
	Staff         bool    `json:"staff"`
}

// Anonymous returns the principal used when no valid token is presented.
func Anonymous() Principal {
	return Principal{}
}

// IsAuthenticated reports whether the principal carries a verified identity.
func (p Principal) IsAuthenticated() bool {
	return p.Authenticated && p.UserID > 0
}

// ID returns the user id, or 0 for anonymous principals.
func (p Principal) ID() int64 {
	if !p.IsAuthenticated() {
		return 0
	}
	return p.UserID
}

// Groups returns the principal's group memberships as a set.
func (p Principal) Groups() map[int64]struct{} {
	set := make(map[int64]struct{}, len(p.GroupIDs))
	for _, g := range p.GroupIDs {
		set[g] = struct{}{}
	}
	return set
}

// IsStaff reports whether the principal may use staff-only operations.
func (p Principal) IsStaff() bool {
	return p.IsAuthenticated() && p.Staff
}
