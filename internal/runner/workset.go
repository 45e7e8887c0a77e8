package runner

import (
	"fmt"
	"sort"
)

// WorkSet — реестр обработчиков по виду работы.
type WorkSet struct {
	works map[string]Work
}

// NewWorkSet создаёт реестр с переданными обработчиками.
func NewWorkSet(works ...Work) *WorkSet {
	s := &WorkSet{works: make(map[string]Work)}
	for _, w := range works {
		s.Register(w)
	}
	return s
}

// Register добавляет обработчик, заменяя прежний того же вида.
func (s *WorkSet) Register(w Work) {
	s.works[w.Kind()] = w
}

// Get возвращает обработчик для вида работы.
func (s *WorkSet) Get(kind string) (Work, error) {
	w, ok := s.works[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkKind, kind)
	}
	return w, nil
}

// Kinds возвращает зарегистрированные виды в алфавитном порядке.
func (s *WorkSet) Kinds() []string {
	kinds := make([]string, 0, len(s.works))
	for k := range s.works {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
