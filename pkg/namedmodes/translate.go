// Package namedmodes implements the draft/named-modes protocol layer:
// the PROP command, the name translation between internal mode names and
// wire property names, the legacy placeholder mode, and the rewrite of
// outbound MODE broadcasts into PROP messages for capable clients.
package namedmodes

import (
	"fmt"
	"strings"

	"github.com/crystal-irc/crystalircd/pkg/modes"
)

// VendorPrefix is prepended to the wire name of any internal mode name
// without an explicit table mapping, keeping the name mapping total and
// reversible. Fixed for this server; clients treat it as opaque.
const VendorPrefix = "crystal-irc.net/"

// Table is a bijective mapping between internal mode names and wire
// property names for one entity type.
type Table struct {
	toWire map[string]string
	toName map[string]string
}

// NewTable builds a table from ordered (internal, wire) pairs. A duplicate
// in either column breaks the bijection and is a startup error.
func NewTable(pairs [][2]string) (*Table, error) {
	t := &Table{
		toWire: make(map[string]string, len(pairs)),
		toName: make(map[string]string, len(pairs)),
	}
	for _, p := range pairs {
		internal, wire := p[0], p[1]
		if _, dup := t.toWire[internal]; dup {
			return nil, fmt.Errorf("namedmodes: duplicate internal name %q in translation table", internal)
		}
		if _, dup := t.toName[wire]; dup {
			return nil, fmt.Errorf("namedmodes: duplicate wire name %q in translation table", wire)
		}
		t.toWire[internal] = wire
		t.toName[wire] = internal
	}
	return t, nil
}

// ToWire maps an internal mode name to its wire property name. Total:
// names without a table entry get the vendor fallback encoding.
func (t *Table) ToWire(internal string) string {
	if wire, ok := t.toWire[internal]; ok {
		return wire
	}
	return VendorPrefix + strings.ReplaceAll(internal, "_", "-")
}

// ToInternal maps a wire property name back to an internal mode name.
// Vendor-prefixed names are decoded optimistically even when no mode with
// the decoded name is registered; the caller still has to resolve the
// result against the registry. Returns false for names that are neither
// in the table nor vendor-prefixed.
func (t *Table) ToInternal(wire string) (string, bool) {
	if internal, ok := t.toName[wire]; ok {
		return internal, true
	}
	if rest, ok := strings.CutPrefix(wire, VendorPrefix); ok {
		return strings.ReplaceAll(rest, "-", "_"), true
	}
	return "", false
}

// Translator holds one translation table per entity type.
type Translator struct {
	channel *Table
	user    *Table
}

// NewTranslator builds the per-entity-type tables, validating both as
// bijections on their explicit domains.
func NewTranslator(channel, user [][2]string) (*Translator, error) {
	ct, err := NewTable(channel)
	if err != nil {
		return nil, err
	}
	ut, err := NewTable(user)
	if err != nil {
		return nil, err
	}
	return &Translator{channel: ct, user: ut}, nil
}

// For returns the table for an entity type.
func (tr *Translator) For(t modes.EntityType) *Table {
	if t == modes.User {
		return tr.user
	}
	return tr.channel
}
