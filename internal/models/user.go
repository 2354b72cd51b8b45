package models

import "time"

// Role ordinals are part of the external contract: they gate both routing
// and dashboard redirection and must not be renumbered.
const (
	RoleCustomer   int64 = 1
	RoleAgent      int64 = 2
	RoleHotelOwner int64 = 3
	RoleAdmin      int64 = 4
	RoleSuperAdmin int64 = 5
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       int64     `json:"roleId"`
	LastActivity time.Time `json:"lastActivity"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasRole checks membership in a required role set. An empty set admits
// any authenticated user; superadmin passes every check.
func (u *User) HasRole(required ...int64) bool {
	return RoleSatisfies(u.RoleID, required)
}

func RoleSatisfies(roleID int64, required []int64) bool {
	if len(required) == 0 {
		return true
	}
	if roleID == RoleSuperAdmin {
		return true
	}
	for _, r := range required {
		if roleID == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role grants access to other users' bookings.
func (u *User) IsStaff() bool {
	return u.RoleID >= RoleAgent
}
