package domain

import "time"

// User is an account row. Password holds the stored credential as-is: either
// a bcrypt hash or, for rows that predate hashing, the plaintext value still
// awaiting migration. Timestamps are set by the store.
type User struct {
	ID        int64
	Username  string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
	Roles     []Role
}

// RoleNames returns the names of the user's assigned roles.
func (u User) RoleNames() []string {
	names := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		names[i] = r.Name
	}
	return names
}
