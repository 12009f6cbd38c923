package persona

// Store exposes read-only persona lookups.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	FindByCommand(token string) (Persona, bool)
	Default() Persona
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items     []Persona
	defaultID string
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
// The first persona is the default.
func NewMemoryStore(items []Persona) *MemoryStore {
	s := &MemoryStore{items: append([]Persona(nil), items...)}
	if len(items) > 0 {
		s.defaultID = items[0].ID
	}
	return s
}

// NewCatalogStore builds a store from a catalog, honouring its default persona.
func NewCatalogStore(c Catalog) *MemoryStore {
	s := NewMemoryStore(c.Personas)
	if _, ok := s.FindByID(c.DefaultPersona); ok {
		s.defaultID = c.DefaultPersona
	}
	return s
}

// List returns the persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// FindByCommand resolves a switch command such as "/mama".
func (s *MemoryStore) FindByCommand(token string) (Persona, bool) {
	if token == "" {
		return Persona{}, false
	}
	for _, item := range s.items {
		if item.Command == token {
			return item, true
		}
	}
	return Persona{}, false
}

// Default returns the fallback persona, or the zero Persona for an empty store.
func (s *MemoryStore) Default() Persona {
	p, _ := s.FindByID(s.defaultID)
	return p
}
