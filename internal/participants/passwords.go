package participants

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shaiso/Concord/internal/domain"
)

// MinLength требует пароль не короче min символов.
type MinLength struct {
	min int
}

func NewMinLength(n int) *MinLength { return &MinLength{min: n} }

func (p *MinLength) Name() string { return "min_length" }

func (p *MinLength) ValidatePassword(_ domain.User, password string) error {
	if utf8.RuneCountInString(password) < p.min {
		return fmt.Errorf("%w: need at least %d characters", ErrPasswordTooShort, p.min)
	}
	return nil
}

// NotUsername запрещает пароль, совпадающий с именем или ID пользователя.
type NotUsername struct{}

func (NotUsername) Name() string { return "not_username" }

func (NotUsername) ValidatePassword(user domain.User, password string) error {
	for _, s := range []string{user.Name, user.ID} {
		if s != "" && strings.EqualFold(password, s) {
			return ErrPasswordMatchesUsername
		}
	}
	return nil
}

// CharClasses требует символы минимум из min классов:
// строчные, прописные, цифры, прочие.
type CharClasses struct {
	min int
}

func NewCharClasses(n int) *CharClasses { return &CharClasses{min: n} }

func (p *CharClasses) Name() string { return "char_classes" }

func (p *CharClasses) ValidatePassword(_ domain.User, password string) error {
	var lower, upper, digit, other bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			other = true
		}
	}

	n := 0
	for _, ok := range []bool{lower, upper, digit, other} {
		if ok {
			n++
		}
	}
	if n < p.min {
		return fmt.Errorf("%w: %d of %d required", ErrPasswordTooSimple, n, p.min)
	}
	return nil
}
