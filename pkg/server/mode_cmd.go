package server

import (
	"errors"
	"strconv"
	"strings"

	"gopkg.in/irc.v4"

	"github.com/crystal-irc/crystalircd/pkg/modes"
	"github.com/crystal-irc/crystalircd/pkg/namedmodes"
)

// cmdMode implements the legacy single-letter MODE command for channels
// and users: query forms, list queries, and change batches handed to the
// shared mode processor.
func (s *Server) cmdMode(c *Client, m *irc.Message) {
	target := m.Params[0]
	if strings.HasPrefix(target, "#") {
		s.channelMode(c, target, m.Params[1:])
		return
	}
	s.userMode(c, target, m.Params[1:])
}

func (s *Server) channelMode(c *Client, name string, args []string) {
	ch := s.findChannel(name)
	if ch == nil {
		c.SendNumeric(ErrNoSuchChannel, name, "No such channel")
		return
	}

	if len(args) == 0 {
		modestring, values := s.currentModes(c, ch)
		c.SendNumeric(RplChannelModeIs, append([]string{ch.name, modestring}, values...)...)
		c.SendNumeric(RplCreationTime, ch.name, strconv.FormatInt(ch.created.Unix(), 10))
		return
	}

	batch := &modes.ChangeBatch{Actor: c.actor(), Target: ch}
	if !s.parseModestring(c, ch, args, batch) {
		return
	}
	if len(batch.Requests) == 0 {
		return
	}

	if _, err := s.proc.Process(batch, true); err != nil {
		if errors.Is(err, modes.ErrNotAuthorized) {
			c.SendNumeric(ErrChanOpPrivsNeeded, ch.name, "You're not channel operator")
		}
	}
}

// currentModes builds the 324 reply: the set flag and param letters plus
// the parameter values, with secret values redacted for non-members.
func (s *Server) currentModes(c *Client, ch *Channel) (string, []string) {
	member := ch.HasMember(c.Nick())
	letters := "+"
	var values []string
	for _, d := range s.registry.All(modes.Channel) {
		switch d.Kind {
		case modes.Flag:
			if ch.state.HasFlag(d.Name) {
				letters += string(d.Letter)
			}
		case modes.Param:
			val, ok := ch.state.Param(d.Name)
			if !ok {
				continue
			}
			letters += string(d.Letter)
			if d.SecretParam && !member && !c.Auspex() {
				val = "<" + d.Name + ">"
			}
			values = append(values, val)
		}
	}
	return letters, values
}

// parseModestring walks a legacy modestring and its arguments, appending
// change requests to the batch. List queries and placeholder dumps are
// answered inline. Returns false only when nothing further should happen.
func (s *Server) parseModestring(c *Client, ch *Channel, args []string, batch *modes.ChangeBatch) bool {
	adding := true
	argIdx := 1
	nextArg := func() (string, bool) {
		if argIdx < len(args) {
			argIdx++
			return args[argIdx-1], true
		}
		return "", false
	}

	for _, letter := range args[0] {
		switch letter {
		case '+':
			adding = true
			continue
		case '-':
			adding = false
			continue
		}

		d := s.registry.ByLetter(modes.Channel, letter)
		if d == nil {
			c.SendNumeric(ErrUnknownMode, string(letter), "is unknown mode char to me")
			continue
		}

		if d.Name == namedmodes.PlaceholderName {
			payload, ok := nextArg()
			if !ok {
				// A bare placeholder letter asks for the named dump.
				s.dumper.SendModeList(c, ch)
				continue
			}
			batch.Requests = append(batch.Requests, modes.ChangeRequest{Adding: adding, Raw: payload})
			continue
		}

		if d.Kind == modes.List {
			mask, ok := nextArg()
			if !ok {
				s.sendLegacyList(c, ch, d)
				continue
			}
			batch.Requests = append(batch.Requests, modes.ChangeRequest{Adding: adding, Desc: d, Value: mask})
			continue
		}

		if d.NeedsParam(adding) {
			value, ok := nextArg()
			if !ok {
				c.SendNumeric(ErrNeedMoreParams, "MODE", "Not enough parameters")
				continue
			}
			batch.Requests = append(batch.Requests, modes.ChangeRequest{Adding: adding, Desc: d, Value: value})
			continue
		}

		batch.Requests = append(batch.Requests, modes.ChangeRequest{Adding: adding, Desc: d})
	}
	return true
}

// sendLegacyList answers a bare list-mode letter with the matching legacy
// numerics (367/368 for bans, and so on).
func (s *Server) sendLegacyList(c *Client, ch *Channel, d *modes.Descriptor) {
	item, end := legacyListNumerics(d.Letter)
	if item == "" {
		return
	}
	for _, e := range ch.state.List(d.Name) {
		c.SendNumeric(item, ch.name, e.Mask, e.Setter, strconv.FormatInt(e.SetAt, 10))
	}
	c.SendNumeric(end, ch.name, "End of list")
}

func legacyListNumerics(letter rune) (item, end string) {
	switch letter {
	case 'b':
		return RplBanList, RplEndOfBanList
	case 'e':
		return RplExceptList, RplEndOfExceptLst
	case 'I':
		return RplInviteList, RplEndOfInviteLst
	}
	return "", ""
}

func (s *Server) userMode(c *Client, nick string, args []string) {
	if fold(nick) != fold(c.Nick()) {
		c.SendNumeric(ErrUsersDontMatch, "Cannot change mode for other users")
		return
	}

	if len(args) == 0 {
		letters := "+"
		for _, d := range s.registry.All(modes.User) {
			if d.Kind == modes.Flag && c.userModes.HasFlag(d.Name) {
				letters += string(d.Letter)
			}
		}
		c.SendNumeric(RplUModeIs, letters)
		return
	}

	batch := &modes.ChangeBatch{Actor: c.actor(), Target: c}
	adding := true
	for _, letter := range args[0] {
		switch letter {
		case '+':
			adding = true
			continue
		case '-':
			adding = false
			continue
		}
		d := s.registry.ByLetter(modes.User, letter)
		if d == nil {
			c.SendNumeric(ErrUnknownMode, string(letter), "is unknown mode char to me")
			continue
		}
		// Operator status is only granted through OPER.
		if d.Name == "oper" && adding && !c.oper {
			continue
		}
		batch.Requests = append(batch.Requests, modes.ChangeRequest{Adding: adding, Desc: d})
	}

	if len(batch.Requests) == 0 {
		return
	}
	if _, err := s.proc.Process(batch, true); err != nil {
		if errors.Is(err, modes.ErrNotAuthorized) {
			c.SendNumeric(ErrNoPrivileges, "Permission denied")
		}
	}

	// Dropping the oper flag drops operator privileges with it.
	if !c.userModes.HasFlag("oper") {
		c.oper = false
	}
}
