package modes

// EntityType distinguishes the two mode namespaces.
type EntityType int

const (
	Channel EntityType = iota
	User
)

// String returns a human-readable name for the entity type.
func (t EntityType) String() string {
	switch t {
	case Channel:
		return "channel"
	case User:
		return "user"
	default:
		return "unknown"
	}
}

// Kind classifies how a mode stores state and consumes parameters.
// Exhaustive switches over Kind replace runtime is-a checks; adding a
// new kind is a compile-visible change at every switch.
type Kind int

const (
	Flag   Kind = iota // boolean, never takes a parameter
	Param              // single value; parameter requirement depends on polarity
	List               // unbounded entries (mask, setter, time); always takes a parameter
	Prefix             // membership rank (op/voice); always takes a nick parameter
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case Flag:
		return "flag"
	case Param:
		return "param"
	case List:
		return "list"
	case Prefix:
		return "prefix"
	default:
		return "unknown"
	}
}

// Descriptor describes one registered mode: its internal name, its legacy
// single-letter code, and how it behaves.
type Descriptor struct {
	Name   string // internal name, e.g. "topiclock"
	Letter rune   // legacy single-letter code, e.g. 't'
	Entity EntityType
	Kind   Kind

	// Param kind only: whether a value is required when setting/unsetting.
	ParamWhenSet   bool
	ParamWhenUnset bool

	// SecretParam hides the parameter value from non-members on dumps.
	SecretParam bool

	// Prefix kind only: the status sigil shown in NAMES (e.g. '@').
	PrefixSigil rune
}

// NeedsParam reports whether a change of the given polarity must carry a value.
func (d *Descriptor) NeedsParam(adding bool) bool {
	switch d.Kind {
	case Flag:
		return false
	case Param:
		if adding {
			return d.ParamWhenSet
		}
		return d.ParamWhenUnset
	case List, Prefix:
		return true
	}
	return false
}
