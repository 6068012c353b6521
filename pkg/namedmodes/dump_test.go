package namedmodes

import (
	"strings"
	"testing"

	"github.com/crystal-irc/crystalircd/pkg/modes"
)

func TestSendModeListRedactsSecretParams(t *testing.T) {
	fx := newTestFixture(t)
	ch := newFakeChannel("#test", "alice")
	ch.state.SetParam("key", "hunter2")
	ch.state.SetParam("limit", "10")

	member := &fakeClient{nick: "alice", hasCap: true}
	fx.dumper.SendModeList(member, ch)
	if got := member.replies[0]; got != RplPropList+" #test key hunter2 limit 10" {
		t.Errorf("member dump = %q", got)
	}

	outsider := &fakeClient{nick: "mallory", hasCap: true}
	fx.dumper.SendModeList(outsider, ch)
	if got := outsider.replies[0]; got != RplPropList+" #test key <key> limit 10" {
		t.Errorf("outsider dump = %q, want the key redacted", got)
	}

	auspex := &fakeClient{nick: "ozymandias", hasCap: true, auspex: true}
	fx.dumper.SendModeList(auspex, ch)
	if got := auspex.replies[0]; got != RplPropList+" #test key hunter2 limit 10" {
		t.Errorf("auspex dump = %q, want the real key", got)
	}
}

func TestSendModeListNamesNonEmptyListModes(t *testing.T) {
	fx := newTestFixture(t)
	ch := newFakeChannel("#test", "alice")
	ch.state.SetFlag("moderated")
	ch.state.AddListEntry("ban", modes.ListEntry{Mask: "x!*@*", Setter: "alice", SetAt: 1700000000})

	cli := &fakeClient{nick: "alice", hasCap: true}
	fx.dumper.SendModeList(cli, ch)

	// A list mode with entries is set, so the dump names it (no value);
	// an empty list mode stays out.
	if got := cli.replies[0]; got != RplPropList+" #test ban moderated" {
		t.Errorf("dump line = %q, want ban named alongside moderated", got)
	}
}

func TestSendModeListPacksLongDumps(t *testing.T) {
	fx := newTestFixture(t)
	ch := newFakeChannel("#test", "alice")
	// A parameter long enough that two values cannot share a 512-byte line.
	long := strings.Repeat("x", 400)
	ch.state.SetParam("key", long)
	ch.state.SetParam("limit", long)

	cli := &fakeClient{nick: "alice", hasCap: true}
	fx.dumper.SendModeList(cli, ch)

	// Two 961 lines plus the 960 end marker; name and value never split.
	if len(cli.replies) != 3 {
		t.Fatalf("replies = %d lines, want 3", len(cli.replies))
	}
	if !strings.Contains(cli.replies[0], "key "+long) {
		t.Errorf("first line = %q, want key with its value", cli.replies[0][:40])
	}
	if !strings.Contains(cli.replies[1], "limit "+long) {
		t.Errorf("second line = %q, want limit with its value", cli.replies[1][:40])
	}
	if !strings.HasPrefix(cli.replies[2], RplEndOfPropList) {
		t.Errorf("last line = %q, want the end marker", cli.replies[2])
	}
}

func TestSendCatalogueTypesAndContinuation(t *testing.T) {
	fx := newTestFixture(t)
	cli := &fakeClient{nick: "alice", hasCap: true}
	fx.dumper.SendCatalogue(cli, modes.Channel)

	if len(cli.replies) == 0 {
		t.Fatal("no catalogue lines sent")
	}
	for i, line := range cli.replies {
		if !strings.HasPrefix(line, RplChModeList+" ") {
			t.Errorf("line %d = %q, want numeric %s", i, line, RplChModeList)
		}
		hasCont := strings.HasPrefix(line, RplChModeList+" * ")
		if i < len(cli.replies)-1 && !hasCont {
			t.Errorf("line %d lacks the continuation marker: %q", i, line)
		}
		if i == len(cli.replies)-1 && hasCont {
			t.Errorf("last line carries a continuation marker: %q", line)
		}
	}

	all := strings.Join(cli.replies, "\n")
	for _, want := range []string{
		"1:ban=b",       // list
		"2:key=k",       // param on set and unset
		"3:limit=l",     // param on set only
		"4:moderated=m", // flag
		"4:" + VendorPrefix + "delay-join=D",     // no table entry: vendor name
		"1:" + VendorPrefix + "namebase=Z",       // the placeholder is advertised too
	} {
		if !strings.Contains(all, want) {
			t.Errorf("catalogue %q missing token %q", all, want)
		}
	}
}

func TestSendCataloguePrefixType(t *testing.T) {
	reg := modes.NewRegistry()
	reg.MustRegister(&modes.Descriptor{Name: "op", Letter: 'o', Entity: modes.Channel,
		Kind: modes.Prefix, PrefixSigil: '@'})
	trans, err := NewTranslator([][2]string{{"op", "op"}}, nil)
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	dm := &Dumper{Registry: reg, Trans: trans, ServerName: "irc.example.test"}

	cli := &fakeClient{nick: "alice", hasCap: true}
	dm.SendCatalogue(cli, modes.Channel)
	if len(cli.replies) != 1 || cli.replies[0] != RplChModeList+" 5:op=o" {
		t.Errorf("replies = %v, want a single 5:op=o line", cli.replies)
	}
}

func TestSendCatalogueUserNumeric(t *testing.T) {
	reg := modes.NewRegistry()
	reg.MustRegister(&modes.Descriptor{Name: "invisible", Letter: 'i', Entity: modes.User, Kind: modes.Flag})
	trans, err := NewTranslator(nil, [][2]string{{"invisible", "invisible"}})
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	dm := &Dumper{Registry: reg, Trans: trans, ServerName: "irc.example.test"}

	cli := &fakeClient{nick: "alice", hasCap: true}
	dm.SendCatalogue(cli, modes.User)
	if len(cli.replies) != 1 || cli.replies[0] != RplUModeList+" 4:invisible=i" {
		t.Errorf("replies = %v, want a single 965 line", cli.replies)
	}
}

func TestSendCatalogueSkipsContradictoryParamMode(t *testing.T) {
	reg := modes.NewRegistry()
	reg.MustRegister(&modes.Descriptor{Name: "weird", Letter: 'W', Entity: modes.Channel,
		Kind: modes.Param, ParamWhenUnset: true})
	reg.MustRegister(&modes.Descriptor{Name: "moderated", Letter: 'm', Entity: modes.Channel, Kind: modes.Flag})
	trans, err := NewTranslator([][2]string{{"weird", "weird"}, {"moderated", "moderated"}}, nil)
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	dm := &Dumper{Registry: reg, Trans: trans, ServerName: "irc.example.test"}

	cli := &fakeClient{nick: "alice", hasCap: true}
	dm.SendCatalogue(cli, modes.Channel)
	if len(cli.replies) != 1 || !strings.Contains(cli.replies[0], "4:moderated=m") {
		t.Errorf("replies = %v, want only the flag advertised", cli.replies)
	}
}
