package workflows

import (
	"fmt"
	"sort"

	"github.com/shaiso/Concord/internal/registry"
	"github.com/shaiso/Concord/internal/runner"
)

// Set — decider'ы по имени решающего класса.
type Set struct {
	deciders map[string]runner.Decider
}

// NewSet создаёт набор из переданных decider'ов.
func NewSet(deciders ...runner.Decider) *Set {
	s := &Set{deciders: make(map[string]runner.Decider, len(deciders))}
	for _, d := range deciders {
		s.deciders[d.Name()] = d
	}
	return s
}

// Default создаёт набор встроенных decider'ов поверх каталога.
func Default(c *registry.Catalog) *Set {
	return NewSet(
		NewAcceptanceWorkflow(c.Acceptance),
		NewBookingWorkflow(c.Booking),
	)
}

// Get возвращает decider по имени.
func (s *Set) Get(class string) (runner.Decider, error) {
	d, ok := s.deciders[class]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDecider, class)
	}
	return d, nil
}

// Names возвращает имена в алфавитном порядке.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.deciders))
	for n := range s.deciders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
