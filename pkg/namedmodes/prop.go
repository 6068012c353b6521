package namedmodes

import (
	"errors"
	"strings"

	"github.com/crystal-irc/crystalircd/pkg/modes"
)

// Handler parses and executes inbound PROP commands. It validates token
// shape, translates wire names, and hands fully validated batches to the
// mode processor; it never decides permissions itself.
type Handler struct {
	Registry *modes.Registry
	Trans    *Translator
	Proc     *modes.Processor
	Dumper   *Dumper
}

// ErrRejected is returned when a command was aborted and the structured
// FAIL reply has already been sent.
var ErrRejected = errors.New("namedmodes: command rejected")

// HandleProp processes "PROP <channel> [token...]" for one client.
// With no tokens it dumps the channel's current properties. Otherwise it
// consumes tokens left to right, aborting the whole command on the first
// invalid one: nothing is applied and exactly one FAIL is sent. A
// modes.ErrNotAuthorized from the processor passes through so the server
// can reply with its usual numeric.
func (h *Handler) HandleProp(cli Client, ch ChannelView, actor modes.Actor, tokens []string) error {
	if len(tokens) == 0 {
		h.Dumper.SendModeList(cli, ch)
		return nil
	}

	batch := &modes.ChangeBatch{Actor: actor, Target: ch}
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		var ok bool
		switch tok[0] {
		case '+':
			ok = h.changeMode(cli, tok[1:], true, batch)
		case '-':
			ok = h.changeMode(cli, tok[1:], false, batch)
		default:
			ok = h.listQuery(cli, ch, tok)
		}
		if !ok {
			return ErrRejected
		}
	}

	// Query-only commands build no requests; they need no access check.
	if len(batch.Requests) == 0 {
		return nil
	}

	if _, err := h.Proc.Process(batch, true); err != nil {
		if errors.Is(err, modes.ErrNotAuthorized) {
			return err
		}
		cli.SendFail(ErrUnknown, "*", "unknown error")
		return ErrRejected
	}
	return nil
}

// changeMode validates one "+name[=value]" or "-name[=value]" token and
// appends a change request to the batch. Sends the structured error and
// returns false on the first problem.
func (h *Handler) changeMode(cli Client, prop string, adding bool, batch *modes.ChangeBatch) bool {
	name, value, hasValue := strings.Cut(prop, "=")

	d := h.resolve(batch.Target.EntityType(), name)
	if d == nil {
		cli.SendFail(ErrUnknownMode, name, name+" is not a valid mode name")
		return false
	}

	if d.NeedsParam(adding) {
		if !hasValue {
			cli.SendFail(ErrMissingValue, prop, prop+" requires a value")
			return false
		}
		batch.Requests = append(batch.Requests, modes.ChangeRequest{Adding: adding, Desc: d, Value: value})
		return true
	}

	if hasValue {
		cli.SendFail(ErrUnexpectedValue, prop, prop+" does not take a value")
		return false
	}
	batch.Requests = append(batch.Requests, modes.ChangeRequest{Adding: adding, Desc: d})
	return true
}

// listQuery handles a bare property-name token by streaming the current
// entries of that list mode.
func (h *Handler) listQuery(cli Client, ch ChannelView, prop string) bool {
	if strings.Contains(prop, "=") {
		cli.SendFail(ErrInvalidSyntax, prop, "PROP list request should not have a value")
		return false
	}

	d := h.resolve(ch.EntityType(), prop)
	if d == nil {
		cli.SendFail(ErrUnknownMode, prop, prop+" is not a valid mode name")
		return false
	}
	if d.Kind != modes.List {
		cli.SendFail(ErrNotListMode, prop, prop+" is not a list mode")
		return false
	}

	h.Dumper.SendListEntries(cli, ch, d)
	return true
}

// resolve maps a wire property name to a registered mode of the target's
// entity type, or nil.
func (h *Handler) resolve(t modes.EntityType, wire string) *modes.Descriptor {
	internal, ok := h.Trans.For(t).ToInternal(wire)
	if !ok {
		return nil
	}
	return h.Registry.ByName(t, internal)
}
