// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// Role is the coarse authorization level of a user account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole normalizes s into a known Role.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// User represents an account. Password holds a bcrypt hash and is absent for
// accounts that never signed up with credentials.
type User struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       *string    `json:"name"`
	Email      string     `gorm:"uniqueIndex;not null" json:"email"`
	Password   *string    `json:"-"`
	Phone      *string    `gorm:"uniqueIndex" json:"phone"`
	Image      *string    `json:"image"`
	Bio        *string    `gorm:"type:text" json:"bio"`
	IsVerified bool       `gorm:"not null;default:false" json:"isVerified"`
	Role       Role       `gorm:"type:varchar(16);not null;default:'USER'" json:"role"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	Properties []Property `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Posts      []Post     `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// IsAdmin reports whether the user carries the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName returns the name or an empty string.
func (u *User) DisplayName() string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}

// Identity is the minimal authenticated principal produced by credential
// verification and carried inside session tokens.
type Identity struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IdentityOf projects a user onto its Identity.
func IdentityOf(u *User) Identity {
	return Identity{
		ID:    u.ID,
		Name:  u.DisplayName(),
		Email: u.Email,
		Role:  u.Role,
	}
}

// UserSummary is the public projection embedded in properties and posts.
type UserSummary struct {
	ID    uint    `json:"id"`
	Name  *string `json:"name"`
	Email string  `json:"email,omitempty"`
	Image *string `json:"image,omitempty"`
	Bio   *string `json:"bio,omitempty"`
}

// RelationCounts is the _count block of a profile.
type RelationCounts struct {
	Properties int64 `json:"properties"`
	Posts      int64 `json:"posts"`
}

// Profile is the projection returned by the profile endpoints. It never
// carries the password hash.
type Profile struct {
	ID         uint            `json:"id"`
	Name       *string         `json:"name"`
	Email      string          `json:"email"`
	Phone      *string         `json:"phone"`
	Image      *string         `json:"image"`
	Bio        *string         `json:"bio"`
	IsVerified bool            `json:"isVerified"`
	Role       Role            `json:"role"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Count      *RelationCounts `json:"_count,omitempty"`
}

// ProfileOf builds the profile projection of u.
func ProfileOf(u *User) *Profile {
	return &Profile{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Image:      u.Image,
		Bio:        u.Bio,
		IsVerified: u.IsVerified,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// UserListItem is the admin dashboard row for a user.
type UserListItem struct {
	ID        uint      `json:"id"`
	Name      *string   `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
