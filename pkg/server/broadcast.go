package server

import (
	"log"
	"strings"

	"gopkg.in/irc.v4"

	"github.com/crystal-irc/crystalircd/pkg/modes"
)

// authorizeModeChange is the processor's access check. Channel modes need
// channel-operator status (or server-operator override); user modes are
// restricted to the user themselves unless the actor is an operator.
func (s *Server) authorizeModeChange(batch *modes.ChangeBatch) error {
	if batch.Actor.Oper {
		return nil
	}
	switch target := batch.Target.(type) {
	case *Channel:
		if target.memberHasPrefix(batch.Actor.Nick, 'o') {
			return nil
		}
	case *Client:
		if fold(target.Nick()) == fold(batch.Actor.Nick) {
			return nil
		}
	}
	return modes.ErrNotAuthorized
}

// applyPrefixChange is the processor's prefix-mode applier: membership
// rank lives in the channel member map, not in mode state.
func (s *Server) applyPrefixChange(target modes.Entity, adding bool, d *modes.Descriptor, nick string) bool {
	ch, ok := target.(*Channel)
	if !ok {
		return false
	}
	if !ch.HasMember(nick) {
		return false
	}
	return ch.setMemberPrefix(nick, d.Letter, adding)
}

// modeApplied is the processor's OnApplied callback: it persists list
// changes, renders the event once as legacy MODE messages and once as
// PROP messages, and fans the right form out to each recipient. Runs
// inside Process, with the server lock already held.
func (s *Server) modeApplied(ev *modes.AppliedEvent) {
	s.persistListChanges(ev)

	legacy := s.legacyModeMessages(ev)
	s.rewriter.BeginEvent(ev, legacy)
	if s.metrics != nil {
		s.metrics.ModeEventBroadcast(len(ev.Changes))
	}

	if ch, ok := ev.Target.(*Channel); ok {
		for _, m := range ch.memberClients() {
			for _, msg := range s.rewriter.ForRecipient(legacy, m.PropCap()) {
				m.send(msg)
			}
		}
		return
	}
	if c, ok := ev.Target.(*Client); ok {
		for _, msg := range s.rewriter.ForRecipient(legacy, c.PropCap()) {
			c.send(msg)
		}
	}
}

// persistListChanges writes applied list-mode additions and removals
// through to the store.
func (s *Server) persistListChanges(ev *modes.AppliedEvent) {
	if s.store == nil {
		return
	}
	ch, ok := ev.Target.(*Channel)
	if !ok {
		return
	}
	for _, change := range ev.Changes {
		if change.Desc.Kind != modes.List {
			continue
		}
		var err error
		if change.Adding {
			entry, found := findListEntry(ch.state.List(change.Desc.Name), change.Value)
			if !found {
				continue
			}
			err = s.store.PutEntry(fold(ch.name), change.Desc.Name, entry)
		} else {
			err = s.store.DeleteEntry(fold(ch.name), change.Desc.Name, change.Value)
		}
		if err != nil {
			log.Printf("liststore: %v", err)
		}
	}
}

func findListEntry(entries []modes.ListEntry, mask string) (modes.ListEntry, bool) {
	for _, e := range entries {
		if e.Mask == mask {
			return e, true
		}
	}
	return modes.ListEntry{}, false
}

// legacyModeMessages renders an applied event as a single legacy MODE
// message: a modestring of +/- runs followed by the parameter values in
// order.
func (s *Server) legacyModeMessages(ev *modes.AppliedEvent) []*irc.Message {
	var modestring strings.Builder
	var values []string
	lastAdding := true
	first := true
	for _, change := range ev.Changes {
		if first || change.Adding != lastAdding {
			if change.Adding {
				modestring.WriteByte('+')
			} else {
				modestring.WriteByte('-')
			}
			lastAdding = change.Adding
			first = false
		}
		modestring.WriteRune(change.Desc.Letter)
		if change.Value != "" {
			values = append(values, change.Value)
		}
	}

	return []*irc.Message{{
		Prefix:  irc.ParsePrefix(ev.Actor.Prefix),
		Command: "MODE",
		Params:  append([]string{ev.Target.Name(), modestring.String()}, values...),
	}}
}
