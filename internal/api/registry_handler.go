package api

import (
	"net/http"

	"github.com/shaiso/Concord/internal/domain"
)

// ListRegistries возвращает реестры и имена их участников.
// GET /api/v1/registries
func (h *Handler) ListRegistries(w http.ResponseWriter, r *http.Request) {
	summaries := h.catalog.Summaries()
	List(w, summaries, len(summaries))
}

// CheckPassword проверяет пароль всеми политиками PasswordRegistry.
// Нарушения возвращаются списком, а не ошибкой запроса.
// POST /api/v1/password-checks
func (h *Handler) CheckPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordCheckRequest
	if err := decode(r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.UserID == "" {
		BadRequest(w, "user_id is required")
		return
	}

	user := domain.User{ID: req.UserID, Name: req.Name}
	err := h.catalog.Passwords.Validate(user, req.Password)

	Success(w, PasswordCheckResponse{
		Valid:      err == nil,
		Violations: violations(err),
	})
}

// violations разворачивает errors.Join в список сообщений.
func violations(err error) []string {
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []string{err.Error()}
	}
	errs := joined.Unwrap()
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
