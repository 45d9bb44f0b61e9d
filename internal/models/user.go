package models

import "time"

// User roles. Students log in with a PIN, teachers and admins with a password.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

type User struct {
	ID        int       `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Role      string    `json:"role" db:"role"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	ClassName *string   `json:"className" db:"class_name"` // e.g. "5A", nil for staff
	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// Balance is derived from the transaction ledger, never stored.
	// Only populated when a handler explicitly asks for it.
	Balance *int `json:"balance,omitempty"`
}

// FullName returns the display name used by leaderboards and raffle results.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
