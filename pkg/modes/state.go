package modes

// ListEntry is one stored entry of a list mode.
type ListEntry struct {
	Mask   string
	Setter string
	SetAt  int64
}

// State holds the live mode state of one entity: flag modes that are set,
// parameter mode values, and list mode entries. Prefix modes live in the
// channel membership map, not here. State is not internally locked; the
// owning server serializes access.
type State struct {
	flags  map[string]bool
	params map[string]string
	lists  map[string][]ListEntry
}

// NewState creates an empty mode state.
func NewState() *State {
	return &State{
		flags:  make(map[string]bool),
		params: make(map[string]string),
		lists:  make(map[string][]ListEntry),
	}
}

// HasFlag reports whether the named flag mode is set.
func (s *State) HasFlag(name string) bool {
	return s.flags[name]
}

// SetFlag sets a flag mode. Returns false if it was already set.
func (s *State) SetFlag(name string) bool {
	if s.flags[name] {
		return false
	}
	s.flags[name] = true
	return true
}

// ClearFlag clears a flag mode. Returns false if it was not set.
func (s *State) ClearFlag(name string) bool {
	if !s.flags[name] {
		return false
	}
	delete(s.flags, name)
	return true
}

// Param returns the value of a parameter mode and whether it is set.
func (s *State) Param(name string) (string, bool) {
	v, ok := s.params[name]
	return v, ok
}

// SetParam sets a parameter mode value, replacing any previous value.
func (s *State) SetParam(name, value string) {
	s.params[name] = value
}

// ClearParam unsets a parameter mode. Returns false if it was not set.
func (s *State) ClearParam(name string) bool {
	if _, ok := s.params[name]; !ok {
		return false
	}
	delete(s.params, name)
	return true
}

// List returns the entries of a list mode. The returned slice is shared;
// callers must not modify it.
func (s *State) List(name string) []ListEntry {
	return s.lists[name]
}

// AddListEntry appends an entry to a list mode. Returns false if an entry
// with the same mask already exists.
func (s *State) AddListEntry(name string, e ListEntry) bool {
	for _, have := range s.lists[name] {
		if have.Mask == e.Mask {
			return false
		}
	}
	s.lists[name] = append(s.lists[name], e)
	return true
}

// RemoveListEntry removes the entry with the given mask. Returns false if
// no such entry exists.
func (s *State) RemoveListEntry(name, mask string) bool {
	entries := s.lists[name]
	for i, have := range entries {
		if have.Mask == mask {
			s.lists[name] = append(entries[:i], entries[i+1:]...)
			if len(s.lists[name]) == 0 {
				delete(s.lists, name)
			}
			return true
		}
	}
	return false
}

// SetListEntries replaces the whole entry list of a list mode. Used when
// reloading persisted lists at startup.
func (s *State) SetListEntries(name string, entries []ListEntry) {
	if len(entries) == 0 {
		delete(s.lists, name)
		return
	}
	s.lists[name] = entries
}
