package domain

import (
	"errors"
	"time"
)

// Role identifies what a user is allowed to see and do.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "owner"
)

var ErrUserNotFound = errors.New("user not found")
var ErrInvalidUser = errors.New("name and phone are required")
var ErrInvalidRole = errors.New("role must be customer or owner")
var ErrRoleConflict = errors.New("an owner is already registered")
var ErrInvalidSession = errors.New("invalid session")

// ValidRole reports whether the given value is a known role.
func ValidRole(r string) bool {
	return Role(r) == RoleCustomer || Role(r) == RoleOwner
}

// User models a registered actor. Phone is the natural key; SessionKey is
// the opaque credential that lets a returning user resume without a password.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Role       Role      `json:"role"`
	SessionKey string    `json:"sessionKey"`
	CreatedAt  time.Time `json:"createdAt"`
}
