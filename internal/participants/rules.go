package participants

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/registry"
)

// TargetTypeRule проходит, если тип объекта входит в разрешённый список.
type TargetTypeRule struct {
	name    string
	allowed map[string]struct{}
	list    string
}

// NewTargetTypeRule создаёт правило. Пустое name заменяется на "target_type".
func NewTargetTypeRule(name string, types []string) *TargetTypeRule {
	if name == "" {
		name = "target_type"
	}
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return &TargetTypeRule{name: name, allowed: allowed, list: strings.Join(types, ", ")}
}

func (r *TargetTypeRule) Name() string { return r.name }

func (r *TargetTypeRule) Evaluate(_ context.Context, target domain.TargetRef) (registry.RuleOutcome, error) {
	if _, ok := r.allowed[target.Type]; ok {
		return registry.RuleOutcome{Passed: true}, nil
	}
	return registry.RuleOutcome{
		Message: fmt.Sprintf("type %q is not one of [%s]", target.Type, r.list),
	}, nil
}

// IDPatternRule проходит, если ID объекта соответствует выражению.
type IDPatternRule struct {
	name string
	re   *regexp.Regexp
}

// NewIDPatternRule компилирует pattern. Пустое name заменяется на "id_pattern".
func NewIDPatternRule(name, pattern string) (*IDPatternRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: id_pattern: %v", ErrInvalidSpec, err)
	}
	if name == "" {
		name = "id_pattern"
	}
	return &IDPatternRule{name: name, re: re}, nil
}

func (r *IDPatternRule) Name() string { return r.name }

func (r *IDPatternRule) Evaluate(_ context.Context, target domain.TargetRef) (registry.RuleOutcome, error) {
	if r.re.MatchString(target.ID) {
		return registry.RuleOutcome{Passed: true}, nil
	}
	return registry.RuleOutcome{
		Message: fmt.Sprintf("id %q does not match %s", target.ID, r.re),
	}, nil
}
