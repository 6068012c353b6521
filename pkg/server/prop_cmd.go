package server

import (
	"errors"
	"strings"

	"gopkg.in/irc.v4"

	"github.com/crystal-irc/crystalircd/pkg/modes"
	"github.com/crystal-irc/crystalircd/pkg/namedmodes"
)

// cmdProp routes "PROP <target> [token...]" into the named-modes handler.
// The handler owns token validation and structured FAIL replies; the
// server owns existence and authorization numerics.
func (s *Server) cmdProp(c *Client, m *irc.Message) {
	target := m.Params[0]

	var view namedmodes.ChannelView
	if strings.HasPrefix(target, "#") {
		ch := s.findChannel(target)
		if ch == nil {
			c.SendNumeric(ErrNoSuchChannel, target, "No such channel")
			return
		}
		view = ch
	} else {
		// User-targeted PROP follows MODE semantics: self only.
		if fold(target) != fold(c.Nick()) {
			c.SendNumeric(ErrUsersDontMatch, "Cannot change mode for other users")
			return
		}
		view = c
	}

	err := s.prop.HandleProp(c, view, c.actor(), m.Params[1:])
	if errors.Is(err, modes.ErrNotAuthorized) {
		c.SendNumeric(ErrChanOpPrivsNeeded, target, "You're not channel operator")
	}
}
