package modes

import (
	"errors"
	"testing"
)

// fakeEntity is a minimal mode-bearing target.
type fakeEntity struct {
	name  string
	etype EntityType
	state *State
}

func (f *fakeEntity) Name() string           { return f.name }
func (f *fakeEntity) EntityType() EntityType { return f.etype }
func (f *fakeEntity) ModeState() *State      { return f.state }

func newFakeChannel(name string) *fakeEntity {
	return &fakeEntity{name: name, etype: Channel, state: NewState()}
}

var (
	testFlag  = &Descriptor{Name: "moderated", Letter: 'm', Entity: Channel, Kind: Flag}
	testKey   = &Descriptor{Name: "key", Letter: 'k', Entity: Channel, Kind: Param, ParamWhenSet: true, ParamWhenUnset: true}
	testLimit = &Descriptor{Name: "limit", Letter: 'l', Entity: Channel, Kind: Param, ParamWhenSet: true}
	testBan   = &Descriptor{Name: "ban", Letter: 'b', Entity: Channel, Kind: List}
)

func testBatch(target Entity, reqs ...ChangeRequest) *ChangeBatch {
	return &ChangeBatch{
		Actor:    Actor{Prefix: "alice!a@example.test", Nick: "alice"},
		Target:   target,
		Requests: reqs,
	}
}

func TestProcessFlagChanges(t *testing.T) {
	ch := newFakeChannel("#test")
	p := NewProcessor()

	ev, err := p.Process(testBatch(ch, ChangeRequest{Adding: true, Desc: testFlag}), false)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if ev == nil || len(ev.Changes) != 1 {
		t.Fatalf("expected one applied change, got %+v", ev)
	}
	if !ch.state.HasFlag("moderated") {
		t.Error("flag not set on state")
	}

	// Setting an already-set flag is a no-op and yields no event.
	ev, err = p.Process(testBatch(ch, ChangeRequest{Adding: true, Desc: testFlag}), false)
	if err != nil {
		t.Fatalf("Process repeat: %v", err)
	}
	if ev != nil {
		t.Errorf("repeated set produced an event: %+v", ev)
	}
}

func TestProcessParamUnsetReportsOldValue(t *testing.T) {
	ch := newFakeChannel("#test")
	p := NewProcessor()

	if _, err := p.Process(testBatch(ch, ChangeRequest{Adding: true, Desc: testKey, Value: "hunter2"}), false); err != nil {
		t.Fatalf("set key: %v", err)
	}
	ev, err := p.Process(testBatch(ch, ChangeRequest{Adding: false, Desc: testKey, Value: "hunter2"}), false)
	if err != nil {
		t.Fatalf("unset key: %v", err)
	}
	if len(ev.Changes) != 1 || ev.Changes[0].Value != "hunter2" {
		t.Errorf("unset change = %+v, want the old key value carried", ev.Changes)
	}

	// limit requires no value on unset, so none is broadcast.
	if _, err := p.Process(testBatch(ch, ChangeRequest{Adding: true, Desc: testLimit, Value: "10"}), false); err != nil {
		t.Fatalf("set limit: %v", err)
	}
	ev, err = p.Process(testBatch(ch, ChangeRequest{Adding: false, Desc: testLimit}), false)
	if err != nil {
		t.Fatalf("unset limit: %v", err)
	}
	if len(ev.Changes) != 1 || ev.Changes[0].Value != "" {
		t.Errorf("limit unset change = %+v, want empty value", ev.Changes)
	}
}

func TestProcessListLimitAndDedup(t *testing.T) {
	ch := newFakeChannel("#test")
	p := NewProcessor()
	p.ListLimit = 2

	masks := []string{"a!*@*", "b!*@*", "c!*@*"}
	var reqs []ChangeRequest
	for _, m := range masks {
		reqs = append(reqs, ChangeRequest{Adding: true, Desc: testBan, Value: m})
	}
	ev, err := p.Process(testBatch(ch, reqs...), false)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(ev.Changes) != 2 {
		t.Errorf("applied %d list adds, want 2 (limit)", len(ev.Changes))
	}
	if got := len(ch.state.List("ban")); got != 2 {
		t.Errorf("list holds %d entries, want 2", got)
	}

	// A duplicate mask does not apply.
	ev, _ = p.Process(testBatch(ch, ChangeRequest{Adding: false, Desc: testBan, Value: "a!*@*"},
		ChangeRequest{Adding: true, Desc: testBan, Value: "b!*@*"}), false)
	if len(ev.Changes) != 1 || ev.Changes[0].Adding {
		t.Errorf("changes = %+v, want only the removal applied", ev.Changes)
	}
}

func TestProcessListEntryAttribution(t *testing.T) {
	ch := newFakeChannel("#test")
	p := NewProcessor()
	if _, err := p.Process(testBatch(ch, ChangeRequest{Adding: true, Desc: testBan, Value: "x!*@*"}), false); err != nil {
		t.Fatalf("Process: %v", err)
	}
	entries := ch.state.List("ban")
	if len(entries) != 1 {
		t.Fatalf("list holds %d entries, want 1", len(entries))
	}
	if entries[0].Setter != "alice" {
		t.Errorf("Setter = %q, want alice", entries[0].Setter)
	}
	if entries[0].SetAt == 0 {
		t.Error("SetAt not recorded")
	}
}

func TestProcessMaxPerCommand(t *testing.T) {
	ch := newFakeChannel("#test")
	p := NewProcessor()
	p.MaxPerCommand = 2

	flags := []*Descriptor{
		{Name: "a1", Letter: '1', Entity: Channel, Kind: Flag},
		{Name: "a2", Letter: '2', Entity: Channel, Kind: Flag},
		{Name: "a3", Letter: '3', Entity: Channel, Kind: Flag},
	}
	var reqs []ChangeRequest
	for _, d := range flags {
		reqs = append(reqs, ChangeRequest{Adding: true, Desc: d})
	}
	ev, err := p.Process(testBatch(ch, reqs...), false)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(ev.Changes) != 2 {
		t.Errorf("applied %d changes, want 2 (cap)", len(ev.Changes))
	}
	if ch.state.HasFlag("a3") {
		t.Error("change past the cap was applied")
	}
}

func TestProcessAuthorize(t *testing.T) {
	ch := newFakeChannel("#test")
	p := NewProcessor()
	p.Authorize = func(*ChangeBatch) error { return ErrNotAuthorized }
	fired := false
	p.OnApplied = func(*AppliedEvent) { fired = true }

	_, err := p.Process(testBatch(ch, ChangeRequest{Adding: true, Desc: testFlag}), true)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
	if ch.state.HasFlag("moderated") {
		t.Error("change applied despite failing access check")
	}
	if fired {
		t.Error("OnApplied fired for a rejected batch")
	}

	// Without checkAccess the same batch applies.
	if _, err := p.Process(testBatch(ch, ChangeRequest{Adding: true, Desc: testFlag}), false); err != nil {
		t.Fatalf("Process without access check: %v", err)
	}
	if !fired {
		t.Error("OnApplied not fired for an applied batch")
	}
}

func TestHookPriorityOrder(t *testing.T) {
	p := NewProcessor()
	var order []int
	p.AddPreApplyHook(1, func(*ChangeBatch) { order = append(order, 1) })
	p.AddPreApplyHook(100, func(*ChangeBatch) { order = append(order, 100) })
	p.AddPreApplyHook(50, func(*ChangeBatch) { order = append(order, 50) })

	ch := newFakeChannel("#test")
	p.Process(testBatch(ch), false)
	want := []int{100, 50, 1}
	if len(order) != 3 || order[0] != want[0] || order[1] != want[1] || order[2] != want[2] {
		t.Errorf("hook order = %v, want %v", order, want)
	}
}

func TestProcessSkipsUnresolvedRequests(t *testing.T) {
	ch := newFakeChannel("#test")
	p := NewProcessor()
	ev, err := p.Process(testBatch(ch,
		ChangeRequest{Adding: true, Raw: "nosuch=thing"},
		ChangeRequest{Adding: true, Desc: testFlag},
	), false)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(ev.Changes) != 1 || ev.Changes[0].Desc != testFlag {
		t.Errorf("changes = %+v, want only the resolved flag", ev.Changes)
	}
}

func TestOnAppliedFiresOncePerBatch(t *testing.T) {
	ch := newFakeChannel("#test")
	p := NewProcessor()
	count := 0
	p.OnApplied = func(ev *AppliedEvent) {
		count++
		if len(ev.Changes) != 2 {
			t.Errorf("event carries %d changes, want 2", len(ev.Changes))
		}
	}
	p.Process(testBatch(ch,
		ChangeRequest{Adding: true, Desc: testFlag},
		ChangeRequest{Adding: true, Desc: testKey, Value: "k"},
	), false)
	if count != 1 {
		t.Errorf("OnApplied fired %d times, want 1", count)
	}
}
