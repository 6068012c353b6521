package namedmodes

import (
	"testing"

	"github.com/crystal-irc/crystalircd/pkg/modes"
)

func TestTableRoundTrip(t *testing.T) {
	tbl, err := NewTable([][2]string{
		{"ban", "ban"},
		{"banexception", "banex"},
		{"topiclock", "topiclock"},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	if got := tbl.ToWire("banexception"); got != "banex" {
		t.Errorf("ToWire(banexception) = %q, want banex", got)
	}
	if got, ok := tbl.ToInternal("banex"); !ok || got != "banexception" {
		t.Errorf("ToInternal(banex) = %q, %v", got, ok)
	}
	for _, name := range []string{"ban", "banexception", "topiclock"} {
		back, ok := tbl.ToInternal(tbl.ToWire(name))
		if !ok || back != name {
			t.Errorf("round trip %q -> %q (ok=%v)", name, back, ok)
		}
	}
}

func TestTableVendorFallback(t *testing.T) {
	tbl, err := NewTable(nil)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	wire := tbl.ToWire("delay_join")
	if wire != VendorPrefix+"delay-join" {
		t.Errorf("ToWire(delay_join) = %q, want vendor-prefixed with dashes", wire)
	}
	back, ok := tbl.ToInternal(wire)
	if !ok || back != "delay_join" {
		t.Errorf("ToInternal(%q) = %q, %v; fallback must be reversible", wire, back, ok)
	}

	// Unknown vendor names still decode; resolution happens later at the
	// registry.
	if got, ok := tbl.ToInternal(VendorPrefix + "no-such-mode"); !ok || got != "no_such_mode" {
		t.Errorf("optimistic decode = %q, %v", got, ok)
	}

	// Names that are neither mapped nor vendor-prefixed do not decode.
	if _, ok := tbl.ToInternal("unknown"); ok {
		t.Error("unmapped non-vendor name decoded")
	}
}

func TestTableRejectsDuplicates(t *testing.T) {
	if _, err := NewTable([][2]string{{"ban", "ban"}, {"ban", "other"}}); err == nil {
		t.Error("duplicate internal name accepted")
	}
	if _, err := NewTable([][2]string{{"ban", "same"}, {"other", "same"}}); err == nil {
		t.Error("duplicate wire name accepted")
	}
}

func TestTranslatorSeparatesEntityTypes(t *testing.T) {
	tr, err := NewTranslator(
		[][2]string{{"secret", "chan-secret"}},
		[][2]string{{"secret", "user-secret"}},
	)
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	if got := tr.For(modes.Channel).ToWire("secret"); got != "chan-secret" {
		t.Errorf("channel ToWire(secret) = %q", got)
	}
	if got := tr.For(modes.User).ToWire("secret"); got != "user-secret" {
		t.Errorf("user ToWire(secret) = %q", got)
	}
}
