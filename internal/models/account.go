package models

import "time"

// Role identifies the kind of account and which profile fields apply
type Role string

// Role constants
const (
	RoleStudent     Role = "STUDENT"
	RoleHostelOwner Role = "HOSTEL_OWNER"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleHostelOwner
}

// Profile holds the role-specific part of an account.
// Implementations are StudentProfile and HostelOwnerProfile.
type Profile interface {
	Role() Role
	isProfile()
}

// StudentProfile is the profile of a STUDENT account
type StudentProfile struct {
	University string
}

// Role implements Profile
func (StudentProfile) Role() Role { return RoleStudent }

func (StudentProfile) isProfile() {}

// HostelOwnerProfile is the profile of a HOSTEL_OWNER account
type HostelOwnerProfile struct {
	BusinessName               string
	BusinessRegistrationNumber string
}

// Role implements Profile
func (HostelOwnerProfile) Role() Role { return RoleHostelOwner }

func (HostelOwnerProfile) isProfile() {}

// Account represents a registered user
type Account struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string // always lower-cased
	Phone        string
	PasswordHash string
	Profile      Profile
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role returns the account role derived from its profile
func (a *Account) Role() Role {
	if a.Profile == nil {
		return ""
	}
	return a.Profile.Role()
}

// NewProfile builds the profile variant for role, keeping only that role's fields
func NewProfile(role Role, university, businessName, businessRegistrationNumber string) Profile {
	switch role {
	case RoleStudent:
		return StudentProfile{University: university}
	case RoleHostelOwner:
		return HostelOwnerProfile{
			BusinessName:               businessName,
			BusinessRegistrationNumber: businessRegistrationNumber,
		}
	default:
		return nil
	}
}
