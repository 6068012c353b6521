package namedmodes

import (
	"log"

	"gopkg.in/irc.v4"

	"github.com/crystal-irc/crystalircd/pkg/modes"
)

// Rewriter translates an applied mode-change event into PROP messages for
// capability-enabled recipients. The built buffer belongs to the rewriter
// for the duration of one outbound event: BeginEvent rebuilds it, and it
// must never be read across events.
type Rewriter struct {
	Trans *Translator
	built []*irc.Message
}

// BeginEvent builds one PROP message per applied change, in change order,
// each carrying the event's shared source prefix and target token. If the
// legacy message list is empty or a change lacks a descriptor, the
// upstream pipeline broke an invariant: the build is abandoned, recipients
// fall back to the legacy form, and the problem is logged.
func (rw *Rewriter) BeginEvent(ev *modes.AppliedEvent, legacy []*irc.Message) {
	rw.built = nil

	if len(legacy) == 0 {
		log.Printf("namedmodes: mode change on %s has no legacy messages; rewrite abandoned", ev.Target.Name())
		return
	}

	table := rw.Trans.For(ev.Target.EntityType())
	prefix := irc.ParsePrefix(ev.Actor.Prefix)
	built := make([]*irc.Message, 0, len(ev.Changes))
	for _, ch := range ev.Changes {
		if ch.Desc == nil {
			log.Printf("namedmodes: mode change on %s carries no descriptor; rewrite abandoned", ev.Target.Name())
			return
		}
		token := "+"
		if !ch.Adding {
			token = "-"
		}
		token += table.ToWire(ch.Desc.Name)
		if ch.Value != "" {
			token += "=" + ch.Value
		}
		built = append(built, &irc.Message{
			Prefix:  prefix,
			Command: "PROP",
			Params:  []string{ev.Target.Name(), token},
		})
	}
	rw.built = built
}

// ForRecipient returns the outbound message list for one recipient of the
// current event. Capability-enabled recipients get the legacy messages
// replaced by the built PROP messages (any surplus PROP messages follow
// immediately after); everyone else keeps the legacy list untouched.
// Each recipient owns the returned slice; the rewriter keeps only the
// built buffer.
func (rw *Rewriter) ForRecipient(legacy []*irc.Message, capEnabled bool) []*irc.Message {
	if !capEnabled || len(rw.built) == 0 {
		return legacy
	}
	out := make([]*irc.Message, 0, max(len(rw.built), len(legacy)))
	out = append(out, rw.built...)
	if len(legacy) > len(rw.built) {
		out = append(out, legacy[len(rw.built):]...)
	}
	return out
}
