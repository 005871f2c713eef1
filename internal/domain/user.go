package domain

import "time"

// Roles disponibles para una cuenta.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User es el registro de identidad de una cuenta. Password y Tokens
// nunca se serializan: la sanitización es estructural.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Roles     []string  `json:"roles"`
	Tokens    []string  `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasRole indica si el usuario tiene el rol dado.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
