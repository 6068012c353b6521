package modes

import (
	"errors"
	"log"
	"sort"
	"time"
)

// ErrNotAuthorized is returned by Process when the access check rejects
// the batch. The caller owns turning this into a client-visible reply.
var ErrNotAuthorized = errors.New("modes: not authorized")

// PreApplyHook rewrites a batch in place before any request is inspected
// or applied. Hooks run highest priority first.
type PreApplyHook func(batch *ChangeBatch)

type prioritizedHook struct {
	priority int
	hook     PreApplyHook
}

// Processor owns atomic application of change batches to entity state.
// It performs no translation and no shape validation beyond defensive
// checks; batches arrive pre-validated from the command layer.
type Processor struct {
	hooks []prioritizedHook

	// MaxPerCommand caps the number of changes applied from one batch.
	// Advertised through ISUPPORT as the MODES limit. Zero means no cap.
	MaxPerCommand int

	// ListLimit caps the number of entries per list mode. Zero means no cap.
	ListLimit int

	// Authorize decides whether the batch's actor may change modes on the
	// target. Only consulted when Process runs with checkAccess. Nil
	// permits everything.
	Authorize func(batch *ChangeBatch) error

	// ApplyPrefix applies a prefix-kind change (a membership rank on a
	// channel). Owned by the server, which holds the membership map.
	// Returns false when the change had no effect (unknown nick, no-op).
	ApplyPrefix func(target Entity, adding bool, d *Descriptor, nick string) bool

	// OnApplied observes each committed batch, once, after all changes
	// in it have been applied.
	OnApplied func(ev *AppliedEvent)
}

// NewProcessor creates a processor with no hooks.
func NewProcessor() *Processor {
	return &Processor{}
}

// AddPreApplyHook registers a batch rewrite hook. Higher priorities run
// earlier; the placeholder intercept registers at the highest priority so
// every later consumer sees only resolved descriptors.
func (p *Processor) AddPreApplyHook(priority int, h PreApplyHook) {
	p.hooks = append(p.hooks, prioritizedHook{priority, h})
	sort.SliceStable(p.hooks, func(i, j int) bool {
		return p.hooks[i].priority > p.hooks[j].priority
	})
}

// Process runs the pre-apply hooks over the batch, optionally checks
// access, then applies the surviving requests to the target's state in
// order. It returns the applied event (nil if nothing changed) after
// notifying OnApplied. Nothing is applied when the access check fails.
func (p *Processor) Process(batch *ChangeBatch, checkAccess bool) (*AppliedEvent, error) {
	for _, ph := range p.hooks {
		ph.hook(batch)
	}

	if checkAccess && p.Authorize != nil {
		if err := p.Authorize(batch); err != nil {
			return nil, err
		}
	}

	ev := &AppliedEvent{Actor: batch.Actor, Target: batch.Target}
	st := batch.Target.ModeState()
	for _, req := range batch.Requests {
		if p.MaxPerCommand > 0 && len(ev.Changes) >= p.MaxPerCommand {
			break
		}
		if !req.Resolved() {
			// A raw placeholder request survived the rewrite pass.
			log.Printf("modes: unresolved request %q reached apply on %s; skipping", req.Raw, batch.Target.Name())
			continue
		}
		if req.Desc.NeedsParam(req.Adding) && req.Value == "" && req.Desc.Kind != Param {
			log.Printf("modes: %s change for %q missing required value; skipping", batch.Target.Name(), req.Desc.Name)
			continue
		}
		if applied, value := p.applyOne(batch, st, req); applied {
			ev.Changes = append(ev.Changes, Applied{Adding: req.Adding, Desc: req.Desc, Value: value})
		}
	}

	if len(ev.Changes) == 0 {
		return nil, nil
	}
	if p.OnApplied != nil {
		p.OnApplied(ev)
	}
	return ev, nil
}

// applyOne applies a single resolved request and reports whether it took
// effect, plus the value recorded for the broadcast.
func (p *Processor) applyOne(batch *ChangeBatch, st *State, req ChangeRequest) (bool, string) {
	switch req.Desc.Kind {
	case Flag:
		if req.Adding {
			return st.SetFlag(req.Desc.Name), ""
		}
		return st.ClearFlag(req.Desc.Name), ""

	case Param:
		if req.Adding {
			if have, ok := st.Param(req.Desc.Name); ok && have == req.Value {
				return false, ""
			}
			st.SetParam(req.Desc.Name, req.Value)
			return true, req.Value
		}
		have, ok := st.Param(req.Desc.Name)
		if !ok {
			return false, ""
		}
		st.ClearParam(req.Desc.Name)
		if req.Desc.NeedsParam(false) {
			return true, have
		}
		return true, ""

	case List:
		if req.Adding {
			if p.ListLimit > 0 && len(st.List(req.Desc.Name)) >= p.ListLimit {
				return false, ""
			}
			entry := ListEntry{Mask: req.Value, Setter: batch.Actor.Nick, SetAt: time.Now().Unix()}
			return st.AddListEntry(req.Desc.Name, entry), req.Value
		}
		return st.RemoveListEntry(req.Desc.Name, req.Value), req.Value

	case Prefix:
		if p.ApplyPrefix == nil {
			return false, ""
		}
		return p.ApplyPrefix(batch.Target, req.Adding, req.Desc, req.Value), req.Value
	}
	return false, ""
}
