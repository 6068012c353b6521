package server

import (
	"strings"

	"gopkg.in/irc.v4"

	"github.com/crystal-irc/crystalircd/pkg/namedmodes"
)

// supportedCaps lists every capability this server offers.
var supportedCaps = []string{namedmodes.CapName}

// cmdCap implements capability negotiation. CAP LS or REQ before
// registration suspends the welcome burst until CAP END.
func (s *Server) cmdCap(c *Client, m *irc.Message) {
	sub := strings.ToUpper(m.Params[0])
	switch sub {
	case "LS":
		if !c.registered {
			c.capNegotiating = true
		}
		c.sendFrom("CAP", c.Nick(), "LS", strings.Join(supportedCaps, " "))

	case "LIST":
		var have []string
		for _, name := range supportedCaps {
			if c.caps[name] {
				have = append(have, name)
			}
		}
		c.sendFrom("CAP", c.Nick(), "LIST", strings.Join(have, " "))

	case "REQ":
		if len(m.Params) < 2 {
			return
		}
		if !c.registered {
			c.capNegotiating = true
		}
		req := strings.Fields(m.Params[1])
		if !capsSupported(req) {
			c.sendFrom("CAP", c.Nick(), "NAK", m.Params[1])
			return
		}
		for _, name := range req {
			if strings.HasPrefix(name, "-") {
				delete(c.caps, name[1:])
			} else {
				c.caps[name] = true
			}
		}
		c.sendFrom("CAP", c.Nick(), "ACK", m.Params[1])

	case "END":
		c.capNegotiating = false
		s.maybeFinishRegistration(c)
	}
}

// capsSupported reports whether every requested capability (after
// stripping any removal prefix) is one the server offers. REQ is
// all-or-nothing.
func capsSupported(req []string) bool {
	for _, name := range req {
		name = strings.TrimPrefix(name, "-")
		found := false
		for _, have := range supportedCaps {
			if name == have {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
