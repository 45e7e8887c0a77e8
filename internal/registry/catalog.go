package registry

// Catalog — набор реестров процесса. Создаётся явно при старте
// и передаётся в компоненты.
type Catalog struct {
	Acceptance *AcceptanceRegistry
	Booking    *BookingRegistry
	Passwords  *PasswordRegistry
	Events     *EventRegistry
	Rules      *RuleRegistry
}

// NewCatalog создаёт каталог с пустыми реестрами.
func NewCatalog() *Catalog {
	return &Catalog{
		Acceptance: NewAcceptanceRegistry(),
		Booking:    NewBookingRegistry(),
		Passwords:  NewPasswordRegistry(),
		Events:     NewEventRegistry(),
		Rules:      NewRuleRegistry(),
	}
}

// Summary — описание реестра для API и CLI.
type Summary struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

// Summaries возвращает описание всех реестров в фиксированном порядке.
func (c *Catalog) Summaries() []Summary {
	return []Summary{
		summarize(c.Acceptance.Registry),
		summarize(c.Booking.Registry),
		summarize(c.Passwords.Registry),
		summarize(c.Events.Registry),
		summarize(c.Rules.Registry),
	}
}

// Reset очищает все реестры.
func (c *Catalog) Reset() {
	c.Acceptance.Clear()
	c.Booking.Clear()
	c.Passwords.Clear()
	c.Events.Clear()
	c.Rules.Clear()
}

func summarize[T interface {
	comparable
	Participant
}](r *Registry[T]) Summary {
	entries := r.Registered()
	names := make([]string, len(entries))
	for i, p := range entries {
		names[i] = p.Name()
	}
	return Summary{Name: r.Name(), Participants: names}
}
