package namedmodes

import (
	"testing"

	"github.com/crystal-irc/crystalircd/pkg/modes"
)

func placeholderFixture(t *testing.T) (*modes.Registry, *Intercept) {
	t.Helper()
	reg := modes.NewRegistry()
	reg.MustRegister(&modes.Descriptor{Name: "topiclock", Letter: 't', Entity: modes.Channel, Kind: modes.Flag})
	reg.MustRegister(&modes.Descriptor{Name: "key", Letter: 'k', Entity: modes.Channel, Kind: modes.Param,
		ParamWhenSet: true, ParamWhenUnset: true})
	reg.MustRegister(&modes.Descriptor{Name: "ban", Letter: 'b', Entity: modes.Channel, Kind: modes.List})
	reg.MustRegister(NewPlaceholderDescriptor())
	return reg, &Intercept{Registry: reg}
}

func rawBatch(reqs ...modes.ChangeRequest) *modes.ChangeBatch {
	return &modes.ChangeBatch{
		Actor:    modes.Actor{Nick: "alice"},
		Requests: reqs,
	}
}

func TestInterceptResolvesRawRequests(t *testing.T) {
	reg, ic := placeholderFixture(t)
	batch := rawBatch(
		modes.ChangeRequest{Adding: true, Raw: "topiclock"},
		modes.ChangeRequest{Adding: true, Raw: "key=hunter2"},
		modes.ChangeRequest{Adding: false, Raw: "ban=x!*@*"},
	)
	ic.Rewrite(batch)

	if len(batch.Requests) != 3 {
		t.Fatalf("kept %d requests, want 3", len(batch.Requests))
	}
	if d := batch.Requests[0].Desc; d != reg.ByName(modes.Channel, "topiclock") {
		t.Errorf("first request resolved to %v", d)
	}
	if batch.Requests[1].Value != "hunter2" {
		t.Errorf("key value = %q", batch.Requests[1].Value)
	}
	if batch.Requests[2].Adding || batch.Requests[2].Value != "x!*@*" {
		t.Errorf("ban removal = %+v", batch.Requests[2])
	}
	for i, req := range batch.Requests {
		if req.Raw != "" {
			t.Errorf("request %d still carries raw payload %q", i, req.Raw)
		}
	}
}

func TestInterceptDropsUnresolvable(t *testing.T) {
	_, ic := placeholderFixture(t)
	batch := rawBatch(
		modes.ChangeRequest{Adding: true, Raw: "nosuchmode"},
		modes.ChangeRequest{Adding: true, Raw: "key"}, // required value missing
		modes.ChangeRequest{Adding: true, Raw: "topiclock"},
	)
	ic.Rewrite(batch)

	if len(batch.Requests) != 1 {
		t.Fatalf("kept %d requests, want 1: %+v", len(batch.Requests), batch.Requests)
	}
	if batch.Requests[0].Desc == nil || batch.Requests[0].Desc.Name != "topiclock" {
		t.Errorf("survivor = %+v, want topiclock", batch.Requests[0])
	}
}

func TestInterceptIgnoresValueForFlagPayload(t *testing.T) {
	_, ic := placeholderFixture(t)
	batch := rawBatch(modes.ChangeRequest{Adding: true, Raw: "topiclock=whatever"})
	ic.Rewrite(batch)
	if len(batch.Requests) != 1 || batch.Requests[0].Value != "" {
		t.Errorf("requests = %+v, want topiclock with no value", batch.Requests)
	}
}

func TestInterceptLeavesResolvedUntouched(t *testing.T) {
	reg, ic := placeholderFixture(t)
	d := reg.ByName(modes.Channel, "topiclock")
	batch := rawBatch(modes.ChangeRequest{Adding: true, Desc: d})
	ic.Rewrite(batch)
	if len(batch.Requests) != 1 || batch.Requests[0].Desc != d {
		t.Errorf("resolved request mutated: %+v", batch.Requests)
	}
}
