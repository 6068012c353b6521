package namedmodes

import (
	"fmt"
	"log"
	"strconv"

	"github.com/crystal-irc/crystalircd/pkg/modes"
)

// maxLineLen is the wire line limit including CRLF.
const maxLineLen = 512

// Dumper serializes live mode state into the named-modes reply numerics.
type Dumper struct {
	Registry *modes.Registry
	Trans    *Translator
	// ServerName sizes the numeric prefix when packing 961 lines.
	ServerName string
}

// SendModeList sends the full current-property dump for a target: one or
// more 961 lines packed up to the line limit, then the 960 end marker.
// Secret parameters are redacted as "<wirename>" for requesters that are
// neither members nor holders of the auspex privilege.
func (dm *Dumper) SendModeList(cli Client, ch ChannelView) {
	b := dm.newParamBuilder(cli, RplPropList, ch.Name())
	st := ch.ModeState()
	member := ch.HasMember(cli.Nick())
	etype := ch.EntityType()

	for _, d := range dm.Registry.All(etype) {
		wire := dm.Trans.For(etype).ToWire(d.Name)
		switch d.Kind {
		case modes.Flag:
			if st.HasFlag(d.Name) {
				b.add(wire)
			}
		case modes.List:
			// A list mode counts as set while it holds entries; the dump
			// names it without a value.
			if len(st.List(d.Name)) > 0 {
				b.add(wire)
			}
		case modes.Param:
			val, ok := st.Param(d.Name)
			if !ok {
				continue
			}
			if d.SecretParam && !member && !cli.Auspex() {
				b.add(wire, "<"+wire+">")
			} else {
				b.add(wire, val)
			}
		}
	}
	b.flush()
	cli.SendNumeric(RplEndOfPropList, ch.Name(), "End of mode list")
}

// SendListEntries streams the entries of one list mode as 963 lines, then
// the 962 end marker. The end marker is sent even for an empty list.
func (dm *Dumper) SendListEntries(cli Client, ch ChannelView, d *modes.Descriptor) {
	wire := dm.Trans.For(ch.EntityType()).ToWire(d.Name)
	for _, e := range ch.ModeState().List(d.Name) {
		cli.SendNumeric(RplListPropList, ch.Name(), wire, e.Mask, e.Setter, strconv.FormatInt(e.SetAt, 10))
	}
	cli.SendNumeric(RplEndOfListPropList, ch.Name(), wire, "End of mode list")
}

// SendCatalogue sends the full mode catalogue for one entity type, as sent
// once at connection time. Each descriptor becomes a "type:wireName=letter"
// token; every line but the last carries the "*" continuation placeholder.
func (dm *Dumper) SendCatalogue(cli Client, t modes.EntityType) {
	numeric := RplChModeList
	if t == modes.User {
		numeric = RplUModeList
	}

	var tokens []string
	for _, d := range dm.Registry.All(t) {
		code, ok := catalogueType(d)
		if !ok {
			// A mode that needs a parameter only when unsetting is a
			// contradiction the registry should never produce.
			log.Printf("namedmodes: %s mode %q requires a parameter only when unsetting; not advertised", t, d.Name)
			continue
		}
		tokens = append(tokens, fmt.Sprintf("%d:%s=%c", code, dm.Trans.For(t).ToWire(d.Name), d.Letter))
	}

	for i, tok := range tokens {
		if i < len(tokens)-1 {
			cli.SendNumeric(numeric, "*", tok)
		} else {
			cli.SendNumeric(numeric, tok)
		}
	}
}

// catalogueType maps a descriptor to its advertised type code:
// 1 list, 2 two-way parameter, 3 set-only parameter, 4 flag, 5 prefix.
func catalogueType(d *modes.Descriptor) (int, bool) {
	switch d.Kind {
	case modes.List:
		return 1, true
	case modes.Param:
		switch {
		case d.ParamWhenSet && d.ParamWhenUnset:
			return 2, true
		case d.ParamWhenSet:
			return 3, true
		case d.ParamWhenUnset:
			return 0, false
		default:
			return 4, true
		}
	case modes.Prefix:
		return 5, true
	default:
		return 4, true
	}
}

// paramBuilder packs numeric parameters onto as few lines as fit within
// the wire limit. Groups passed to a single add call stay on one line.
type paramBuilder struct {
	cli     Client
	numeric string
	static  string
	params  []string
	length  int
	budget  int
}

func (dm *Dumper) newParamBuilder(cli Client, numeric, static string) *paramBuilder {
	// ":server NNN nick static ...params :CRLF" overhead, leaving the
	// rest of the 512 bytes for parameters.
	overhead := 1 + len(dm.ServerName) + 1 + len(numeric) + 1 + len(cli.Nick()) + 1 + len(static) + 1 + 1 + 2
	return &paramBuilder{
		cli:     cli,
		numeric: numeric,
		static:  static,
		budget:  maxLineLen - overhead,
	}
}

// add appends a group of parameters, flushing the current line first if
// the group would not fit.
func (b *paramBuilder) add(group ...string) {
	need := 0
	for _, p := range group {
		need += len(p) + 1
	}
	if len(b.params) > 0 && b.length+need > b.budget {
		b.flush()
	}
	b.params = append(b.params, group...)
	b.length += need
}

// flush emits the accumulated parameters as one numeric line, if any.
func (b *paramBuilder) flush() {
	if len(b.params) == 0 {
		return
	}
	b.cli.SendNumeric(b.numeric, append([]string{b.static}, b.params...)...)
	b.params = nil
	b.length = 0
}
