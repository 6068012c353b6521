package server

import (
	"github.com/crystal-irc/crystalircd/pkg/modes"
	"github.com/crystal-irc/crystalircd/pkg/namedmodes"
)

// registerModes installs the server's mode set into the registry and
// builds the wire-name translator. Called once at startup; a duplicate
// name or letter is a programming error surfaced as a New failure.
func registerModes(reg *modes.Registry) (*namedmodes.Translator, error) {
	chanModes := []*modes.Descriptor{
		{Name: "ban", Letter: 'b', Entity: modes.Channel, Kind: modes.List},
		{Name: "banexception", Letter: 'e', Entity: modes.Channel, Kind: modes.List},
		{Name: "invex", Letter: 'I', Entity: modes.Channel, Kind: modes.List},
		{Name: "inviteonly", Letter: 'i', Entity: modes.Channel, Kind: modes.Flag},
		{Name: "key", Letter: 'k', Entity: modes.Channel, Kind: modes.Param,
			ParamWhenSet: true, ParamWhenUnset: true, SecretParam: true},
		{Name: "limit", Letter: 'l', Entity: modes.Channel, Kind: modes.Param,
			ParamWhenSet: true},
		{Name: "moderated", Letter: 'm', Entity: modes.Channel, Kind: modes.Flag},
		{Name: "noextmsg", Letter: 'n', Entity: modes.Channel, Kind: modes.Flag},
		{Name: "private", Letter: 'p', Entity: modes.Channel, Kind: modes.Flag},
		{Name: "secret", Letter: 's', Entity: modes.Channel, Kind: modes.Flag},
		{Name: "topiclock", Letter: 't', Entity: modes.Channel, Kind: modes.Flag},
		{Name: "op", Letter: 'o', Entity: modes.Channel, Kind: modes.Prefix, PrefixSigil: '@'},
		{Name: "voice", Letter: 'v', Entity: modes.Channel, Kind: modes.Prefix, PrefixSigil: '+'},
		// No translation table entry: advertised under the vendor prefix.
		{Name: "delay_join", Letter: 'D', Entity: modes.Channel, Kind: modes.Flag},
	}
	for _, d := range chanModes {
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	if err := reg.Register(namedmodes.NewPlaceholderDescriptor()); err != nil {
		return nil, err
	}

	userModes := []*modes.Descriptor{
		{Name: "invisible", Letter: 'i', Entity: modes.User, Kind: modes.Flag},
		{Name: "oper", Letter: 'o', Entity: modes.User, Kind: modes.Flag},
		{Name: "wallops", Letter: 'w', Entity: modes.User, Kind: modes.Flag},
		{Name: "bot", Letter: 'B', Entity: modes.User, Kind: modes.Flag},
	}
	for _, d := range userModes {
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}

	return namedmodes.NewTranslator(channelTable, userTable)
}

// channelTable maps internal channel mode names to their wire property
// names. Mostly identity; "banexception" is shortened on the wire for
// parity with other implementations.
var channelTable = [][2]string{
	{"ban", "ban"},
	{"banexception", "banex"},
	{"invex", "invex"},
	{"inviteonly", "inviteonly"},
	{"key", "key"},
	{"limit", "limit"},
	{"moderated", "moderated"},
	{"noextmsg", "noextmsg"},
	{"private", "private"},
	{"secret", "secret"},
	{"topiclock", "topiclock"},
	{"op", "op"},
	{"voice", "voice"},
}

// userTable maps internal user mode names to wire property names.
var userTable = [][2]string{
	{"invisible", "invisible"},
	{"oper", "oper"},
	{"wallops", "wallops"},
	{"bot", "bot"},
}
