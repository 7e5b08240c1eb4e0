package authz

// Permission is an atomic capability tag. Role permission sets are built
// from this fixed enumeration; anything outside it is rejected at the edge.
type Permission string

const (
	PermUsersView   Permission = "users.view"
	PermUsersCreate Permission = "users.create"
	PermUsersEdit   Permission = "users.edit"
	PermUsersDelete Permission = "users.delete"

	PermRolesView   Permission = "roles.view"
	PermRolesManage Permission = "roles.manage"

	PermDepartmentsView   Permission = "departments.view"
	PermDepartmentsManage Permission = "departments.manage"

	PermAnalyticsView Permission = "analytics.view"
	PermProfileEdit   Permission = "profile.edit"
)

// All lists every known permission, in display order for the matrix view.
func All() []Permission {
	return []Permission{
		PermUsersView,
		PermUsersCreate,
		PermUsersEdit,
		PermUsersDelete,
		PermRolesView,
		PermRolesManage,
		PermDepartmentsView,
		PermDepartmentsManage,
		PermAnalyticsView,
		PermProfileEdit,
	}
}

var known = func() map[Permission]struct{} {
	m := make(map[Permission]struct{})
	for _, p := range All() {
		m[p] = struct{}{}
	}
	return m
}()

// Valid reports whether p belongs to the permission enumeration.
func Valid(p Permission) bool {
	_, ok := known[p]
	return ok
}

// Set is a membership index over permission tags.
type Set map[Permission]struct{}

func NewSet(perms ...Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

func NewSetFromStrings(perms []string) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[Permission(p)] = struct{}{}
	}
	return s
}

func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// HasAll reports whether every required permission is in the set.
func (s Set) HasAll(required ...Permission) bool {
	for _, p := range required {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Strings returns the set as a sorted-insensitive slice for wire encoding.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s))
	for _, p := range All() {
		if s.Has(p) {
			out = append(out, string(p))
		}
	}
	return out
}
