package api

import (
	"net/http"
	"strings"

	"github.com/shaiso/Concord/internal/domain"
)

// Заголовки, которыми шлюз передаёт аутентифицированного пользователя.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserName  = "X-User-Name"
	HeaderUserRoles = "X-User-Roles"
)

// userFromRequest извлекает пользователя из заголовков.
// Роли перечисляются через запятую. ok == false, если X-User-ID не задан.
func userFromRequest(r *http.Request) (domain.User, bool) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return domain.User{}, false
	}

	var roles []string
	for _, role := range strings.Split(r.Header.Get(HeaderUserRoles), ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}

	return domain.User{
		ID:    id,
		Name:  strings.TrimSpace(r.Header.Get(HeaderUserName)),
		Roles: roles,
	}, true
}
