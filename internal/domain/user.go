package domain

import (
	"time"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAthlete Role = "ATHLETE"
	RoleCoach   Role = "COACH"
	RoleAdmin   Role = "ADMIN"
)

// User represents an account on the platform (Athlete, Coach or Admin).
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`    // Unique
	PasswordHash string    `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role      `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsSelfRegistrable reports whether the role may be chosen at sign-up.
// Admin accounts are provisioned out of band.
func (r Role) IsSelfRegistrable() bool {
	return r == RoleAthlete || r == RoleCoach
}

func (u *User) IsAthlete() bool {
	return u.Role == RoleAthlete
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}
