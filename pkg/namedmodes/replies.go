package namedmodes

import "github.com/crystal-irc/crystalircd/pkg/modes"

// CapName is the capability a client negotiates to receive PROP messages
// and standard-reply errors instead of (or alongside) legacy MODE forms.
const CapName = "draft/named-modes"

// Numeric replies of the named-modes protocol.
const (
	RplEndOfPropList     = "960" // end of full property dump
	RplPropList          = "961" // full property dump item(s)
	RplEndOfListPropList = "962" // end of one list-mode query
	RplListPropList      = "963" // one list-mode entry
	RplChModeList        = "964" // channel mode catalogue
	RplUModeList         = "965" // user mode catalogue
)

// Machine-readable error codes carried on FAIL PROP replies. Exactly one
// is sent per failed command; the first invalid token wins.
const (
	ErrUnknown         = "UNKNOWN"
	ErrUnknownMode     = "UNKNOWN_MODE"
	ErrMissingValue    = "MISSING_VALUE"
	ErrUnexpectedValue = "UNEXPECTED_VALUE"
	ErrNotListMode     = "NOT_LISTMODE"
	ErrInvalidSyntax   = "INVALID_SYNTAX"
)

// Client is the view of a connected client this package needs. The server
// package's client type implements it.
type Client interface {
	Nick() string
	// PropCap reports whether the client negotiated the named-modes
	// capability.
	PropCap() bool
	// Auspex reports whether the client may see secret mode parameters on
	// channels it is not a member of.
	Auspex() bool
	SendNumeric(numeric string, params ...string)
	// SendFail delivers a standard FAIL reply for PROP. Implementations
	// suppress it for clients without the capability.
	SendFail(code, context, description string)
}

// ChannelView is the mode-bearing channel entity as seen by the dump and
// command paths.
type ChannelView interface {
	modes.Entity
	HasMember(nick string) bool
}
