package modes

// Actor identifies who requested a mode change. Prefix is the full
// nick!user@host (or server name) used as the source of broadcasts.
type Actor struct {
	Prefix string
	Nick   string
	Oper   bool
}

// Entity is a mode-bearing target: a channel or a user.
type Entity interface {
	Name() string
	EntityType() EntityType
	ModeState() *State
}

// ChangeRequest is one requested mode change. A request is in one of two
// phases: resolved (Desc is set) or raw (Raw holds an unparsed
// "name[=value]" payload from legacy placeholder input, awaiting the
// pre-apply rewrite). Desc and Raw are mutually exclusive.
type ChangeRequest struct {
	Adding bool
	Desc   *Descriptor
	Raw    string
	Value  string
}

// Resolved reports whether the request carries a real descriptor.
func (c ChangeRequest) Resolved() bool {
	return c.Desc != nil
}

// ChangeBatch is an ordered sequence of change requests for one target.
// A batch is only submitted for application once every token of the
// originating command parsed successfully.
type ChangeBatch struct {
	Actor    Actor
	Target   Entity
	Requests []ChangeRequest
}

// Applied is one successfully applied change.
type Applied struct {
	Adding bool
	Desc   *Descriptor
	Value  string
}

// AppliedEvent describes one committed batch, with changes in
// application order.
type AppliedEvent struct {
	Actor   Actor
	Target  Entity
	Changes []Applied
}
