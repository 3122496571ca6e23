package models

import "github.com/dmitrijs2005/reviewhub/internal/auth"

type Role struct {
	ID   string
	Name string
}

// Seeded role ids. They never change once deployed.
const (
	RoleUserID      = "3d2dc356-2996-4616-aa2b-64ebc93e7d8f"
	RoleAdminID     = "32d6dd4f-15bd-4ef4-b3f4-733425778126"
	RoleModeratorID = "5b69c81c-3a6e-4fad-b636-c9af92671a84"
	RoleVerifiedID  = "7af2e6a9-a998-4103-aeab-9ee9cf00fb0a"
)

// SeededRoles is the full role set created by migrations.
var SeededRoles = []Role{
	{ID: RoleUserID, Name: auth.RoleUser},
	{ID: RoleAdminID, Name: auth.RoleAdmin},
	{ID: RoleModeratorID, Name: auth.RoleModerator},
	{ID: RoleVerifiedID, Name: auth.RoleVerified},
}
