package entity

import "time"

// Role determines what a user may do to an invoice's workflow
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleManager    Role = "MANAGER"
	RoleStaff      Role = "STAFF"
)

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	return r == RoleSuperAdmin || r == RoleManager || r == RoleStaff
}

// CanValidate returns true if the role may fire transitions beyond
// SUBMITTED (internal validation, payment, settlement).
func (r Role) CanValidate() bool {
	return r == RoleSuperAdmin || r == RoleManager
}

// User is an authenticated account
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor is the identity attributed to a mutation. It is supplied by the
// authentication layer; the workflow engine records it as given.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Actor returns the user's identity in the form the workflow records
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}
