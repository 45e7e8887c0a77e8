package repo

// WorkItemFilter — фильтр для списка work items.
type WorkItemFilter struct {
	Kind       string
	TargetType string
	Limit      int
	Offset     int
}

// WorkflowFilter — фильтр для списка экземпляров workflow.
type WorkflowFilter struct {
	Class      string
	TargetType string
	Limit      int
	Offset     int
}

// DefaultListLimit — размер страницы по умолчанию.
const DefaultListLimit = 100

// Normalize подставляет значения по умолчанию.
func (f WorkItemFilter) Normalize() WorkItemFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Normalize подставляет значения по умолчанию.
func (f WorkflowFilter) Normalize() WorkflowFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
