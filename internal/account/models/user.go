// Package models holds the account service entities.
package models

import "time"

type User struct {
	ID                    string
	UserName              string
	Email                 string
	PasswordHash          []byte
	PasswordSalt          []byte
	EmailVerified         bool
	AvatarKey             string
	RegisteredAt          time.Time
	RefreshToken          string // empty when no session is active
	RefreshTokenExpiresAt time.Time
	TokenVersion          int64
	Roles                 []Role
}

// RoleNames lists the names of the loaded roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
