package authz

import "strings"

// Role is a per-board membership role. Roles form a total order; a higher
// rank satisfies any requirement at or below it.
type Role string

const (
	RoleViewer    Role = "VIEWER"
	RoleCommenter Role = "COMMENTER"
	RoleMember    Role = "MEMBER"
	RoleEditor    Role = "EDITOR"
	RoleAdmin     Role = "ADMIN"
)

var roleRanks = map[Role]int{
	RoleViewer:    0,
	RoleCommenter: 1,
	RoleMember:    2,
	RoleEditor:    3,
	RoleAdmin:     4,
}

// Valid reports whether r is one of the five board roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the role's position in the hierarchy, or -1 for an unknown role.
func (r Role) Rank() int {
	rank, ok := roleRanks[r]
	if !ok {
		return -1
	}
	return rank
}

// IsAuthorized reports whether actual satisfies required. An empty or unknown
// actual role is never authorized, for any required role.
func IsAuthorized(required, actual Role) bool {
	requiredRank, ok := roleRanks[required]
	if !ok {
		return false
	}
	actualRank, ok := roleRanks[actual]
	if !ok {
		return false
	}
	return actualRank >= requiredRank
}

// ParseRole normalizes a client-supplied role string. The bool is false when
// the input is not a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(s))
	if !r.Valid() {
		return "", false
	}
	return r, true
}
