package modes

import "fmt"

// Registry holds all registered mode descriptors, indexed per entity type
// by internal name and by legacy letter. Registration order is preserved
// because catalogue dumps and state dumps iterate it deterministically.
type Registry struct {
	byName   map[EntityType]map[string]*Descriptor
	byLetter map[EntityType]map[rune]*Descriptor
	ordered  map[EntityType][]*Descriptor
}

// NewRegistry creates an empty mode registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:   make(map[EntityType]map[string]*Descriptor),
		byLetter: make(map[EntityType]map[rune]*Descriptor),
		ordered:  make(map[EntityType][]*Descriptor),
	}
}

// Register adds a descriptor to the registry. A duplicate name or letter
// within one entity type is a startup configuration error.
func (r *Registry) Register(d *Descriptor) error {
	if d.Name == "" || d.Letter == 0 {
		return fmt.Errorf("modes: descriptor missing name or letter")
	}
	if r.byName[d.Entity] == nil {
		r.byName[d.Entity] = make(map[string]*Descriptor)
		r.byLetter[d.Entity] = make(map[rune]*Descriptor)
	}
	if _, dup := r.byName[d.Entity][d.Name]; dup {
		return fmt.Errorf("modes: duplicate %s mode name %q", d.Entity, d.Name)
	}
	if _, dup := r.byLetter[d.Entity][d.Letter]; dup {
		return fmt.Errorf("modes: duplicate %s mode letter %q", d.Entity, d.Letter)
	}
	r.byName[d.Entity][d.Name] = d
	r.byLetter[d.Entity][d.Letter] = d
	r.ordered[d.Entity] = append(r.ordered[d.Entity], d)
	return nil
}

// MustRegister registers a descriptor and panics on error. For use with
// compile-time mode tables at startup only.
func (r *Registry) MustRegister(d *Descriptor) *Descriptor {
	if err := r.Register(d); err != nil {
		panic(err)
	}
	return d
}

// ByName resolves an internal mode name, or nil.
func (r *Registry) ByName(t EntityType, name string) *Descriptor {
	return r.byName[t][name]
}

// ByLetter resolves a legacy mode letter, or nil.
func (r *Registry) ByLetter(t EntityType, letter rune) *Descriptor {
	return r.byLetter[t][letter]
}

// All returns the descriptors of one entity type in registration order.
// The returned slice is shared; callers must not modify it.
func (r *Registry) All(t EntityType) []*Descriptor {
	return r.ordered[t]
}
