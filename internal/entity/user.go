package entity

import "github.com/uptrace/bun"

// Role is the marketplace role carried by a user and its access tokens.
type Role string

const (
	RoleBuyer         Role = "buyer"
	RoleSeller        Role = "seller"
	RoleAdministrator Role = "administrator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdministrator:
		return true
	default:
		return false
	}
}

// User is a marketplace participant.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID         int64   `bun:",pk,autoincrement"`
	Name       string  `bun:"name,notnull"`
	Email      string  `bun:"email,notnull,unique"`
	Password   string  `bun:"password,notnull" json:"-"`
	Role       Role    `bun:"role,notnull"`
	GithubLink *string `bun:"github_link"`
	Phone      *string `bun:"phone"`
}
