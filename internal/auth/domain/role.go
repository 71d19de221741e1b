package domain

// Role is a pre-existing permission grouping. This subsystem reads roles and
// writes user-role assignments; it never creates role rows.
type Role struct {
	ID   int64
	Name string
}
