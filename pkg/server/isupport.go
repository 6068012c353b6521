package server

import (
	"fmt"
	"strings"

	"github.com/crystal-irc/crystalircd/pkg/modes"
)

// sendISupport sends the 005 tokens. CHANMODES and PREFIX are computed
// from the registry so the advertisement can never drift from the modes
// actually registered.
func (s *Server) sendISupport(c *Client) {
	a, b, cc, d := s.chanmodeGroups()
	var prefixLetters, prefixSigils strings.Builder
	for _, desc := range s.registry.All(modes.Channel) {
		if desc.Kind == modes.Prefix {
			prefixLetters.WriteRune(desc.Letter)
			prefixSigils.WriteRune(desc.PrefixSigil)
		}
	}

	tokens := []string{
		"NETWORK=" + s.cfg.Network,
		"CASEMAPPING=ascii",
		"CHANTYPES=#",
		fmt.Sprintf("CHANMODES=%s,%s,%s,%s", a, b, cc, d),
		fmt.Sprintf("PREFIX=(%s)%s", prefixLetters.String(), prefixSigils.String()),
		fmt.Sprintf("MODES=%d", s.cfg.MaxModesPerCommand),
		fmt.Sprintf("MAXLIST=beI:%d", s.cfg.MaxListEntries),
		fmt.Sprintf("CHANNELLEN=%d", 64),
		fmt.Sprintf("NICKLEN=%d", 30),
		"TOPICLEN=390",
	}

	const perLine = 13
	for len(tokens) > 0 {
		n := len(tokens)
		if n > perLine {
			n = perLine
		}
		c.SendNumeric(RplISupport, append(tokens[:n:n], "are supported by this server")...)
		tokens = tokens[n:]
	}
}

// chanmodeGroups splits the registered channel modes into the four
// CHANMODES categories: A list modes, B parameter-both modes, C
// parameter-on-set modes, D flags. Prefix modes are excluded; they are
// advertised through PREFIX.
func (s *Server) chanmodeGroups() (a, b, c, d string) {
	for _, desc := range s.registry.All(modes.Channel) {
		switch desc.Kind {
		case modes.List:
			a += string(desc.Letter)
		case modes.Param:
			switch {
			case desc.ParamWhenSet && desc.ParamWhenUnset:
				b += string(desc.Letter)
			case desc.ParamWhenSet:
				c += string(desc.Letter)
			default:
				d += string(desc.Letter)
			}
		case modes.Flag:
			d += string(desc.Letter)
		}
	}
	return a, b, c, d
}
