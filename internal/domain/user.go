package domain

import "slices"

// User — пользователь, от имени которого принимается решение.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// SystemUser — пользователь для фоновых запусков без оператора.
var SystemUser = User{ID: "system", Name: "Concord"}

// HasRole проверяет наличие роли у пользователя.
func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}
