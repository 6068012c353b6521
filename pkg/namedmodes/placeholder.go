package namedmodes

import (
	"strings"

	"github.com/crystal-irc/crystalircd/pkg/modes"
)

// The placeholder mode lets a legacy single-letter client name a property
// by value: "MODE #chan +Z topiclock" or "MODE #chan +Z key=secret". Its
// payload is carried through the batch as a raw request and resolved into
// a real change before anything is applied.
const (
	PlaceholderName   = "namebase"
	PlaceholderLetter = 'Z'
)

// InterceptPriority orders the placeholder rewrite before every other
// pre-apply hook, so later consumers only ever see resolved descriptors.
const InterceptPriority = 100

// NewPlaceholderDescriptor builds the synthetic channel mode descriptor.
// List kind with an always-required parameter, matching how the letter is
// advertised to legacy clients.
func NewPlaceholderDescriptor() *modes.Descriptor {
	return &modes.Descriptor{
		Name:   PlaceholderName,
		Letter: PlaceholderLetter,
		Entity: modes.Channel,
		Kind:   modes.List,
	}
}

// Intercept rewrites raw placeholder requests in a batch into resolved
// change requests before the processor applies anything.
type Intercept struct {
	Registry *modes.Registry
}

// Rewrite is the pre-apply hook. Raw requests that cannot be resolved are
// dropped silently: this runs inside a generic pre-commit pass with no
// reply channel. Resolved requests pass through untouched.
func (ic *Intercept) Rewrite(batch *modes.ChangeBatch) {
	kept := batch.Requests[:0]
	for _, req := range batch.Requests {
		if req.Resolved() {
			kept = append(kept, req)
			continue
		}
		if resolved, ok := ic.resolve(req); ok {
			kept = append(kept, resolved)
		}
	}
	batch.Requests = kept
}

// resolve parses a raw "name[=value]" payload into a resolved request.
// Total over its input: every raw request maps to either a resolved
// request or a drop.
func (ic *Intercept) resolve(req modes.ChangeRequest) (modes.ChangeRequest, bool) {
	name, value, _ := strings.Cut(req.Raw, "=")

	d := ic.Registry.ByName(modes.Channel, name)
	if d == nil {
		return modes.ChangeRequest{}, false
	}

	req.Raw = ""
	req.Desc = d
	req.Value = ""
	if d.NeedsParam(req.Adding) {
		if value == "" {
			return modes.ChangeRequest{}, false
		}
		req.Value = value
	}
	return req, true
}
