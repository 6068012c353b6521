package server

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"gopkg.in/irc.v4"

	"github.com/crystal-irc/crystalircd/pkg/modes"
)

type handlerFunc func(s *Server, c *Client, m *irc.Message)

type commandEntry struct {
	handler   handlerFunc
	minParams int
	preReg    bool // usable before registration completes
}

var commandTable = map[string]commandEntry{
	"CAP":     {(*Server).cmdCap, 1, true},
	"NICK":    {(*Server).cmdNick, 0, true},
	"USER":    {(*Server).cmdUser, 4, true},
	"PING":    {(*Server).cmdPing, 1, true},
	"PONG":    {(*Server).cmdPong, 0, true},
	"QUIT":    {(*Server).cmdQuit, 0, true},
	"JOIN":    {(*Server).cmdJoin, 1, false},
	"PART":    {(*Server).cmdPart, 1, false},
	"NAMES":   {(*Server).cmdNames, 1, false},
	"TOPIC":   {(*Server).cmdTopic, 1, false},
	"PRIVMSG": {(*Server).cmdPrivmsg, 2, false},
	"NOTICE":  {(*Server).cmdNotice, 2, false},
	"MOTD":    {(*Server).cmdMotd, 0, false},
	"OPER":    {(*Server).cmdOper, 2, false},
	"MODE":    {(*Server).cmdMode, 1, false},
	"PROP":    {(*Server).cmdProp, 1, false},
}

// Dispatch routes one inbound message to its handler. All handlers run
// under the server lock: per-client commands are serialized by the reader
// goroutine, and the lock serializes them across clients.
func (s *Server) Dispatch(c *Client, m *irc.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := strings.ToUpper(m.Command)
	if s.metrics != nil {
		s.metrics.CommandProcessed(cmd)
	}

	entry, ok := commandTable[cmd]
	if !ok {
		if c.registered {
			c.SendNumeric(ErrUnknownCommand, cmd, "Unknown command")
		}
		return
	}
	if !entry.preReg && !c.registered {
		c.SendNumeric(ErrNotRegistered, "You have not registered")
		return
	}
	if len(m.Params) < entry.minParams {
		c.SendNumeric(ErrNeedMoreParams, cmd, "Not enough parameters")
		return
	}
	entry.handler(s, c, m)
}

func (s *Server) cmdPing(c *Client, m *irc.Message) {
	c.sendFrom("PONG", s.cfg.ServerName, m.Params[0])
}

func (s *Server) cmdPong(c *Client, m *irc.Message) {}

func (s *Server) cmdQuit(c *Client, m *irc.Message) {
	reason := "Client quit"
	if len(m.Params) > 0 {
		reason = m.Params[0]
	}
	s.quitLocked(c, reason)
	c.Close()
}

func (s *Server) cmdNick(c *Client, m *irc.Message) {
	if len(m.Params) == 0 {
		c.SendNumeric(ErrNoNicknameGiven, "No nickname given")
		return
	}
	nick := m.Params[0]
	if !validNick(nick) {
		c.SendNumeric(ErrErroneusNickname, nick, "Erroneous nickname")
		return
	}
	if have := s.clients[fold(nick)]; have != nil && have != c {
		c.SendNumeric(ErrNicknameInUse, nick, "Nickname is already in use")
		return
	}

	if !c.registered {
		c.nick = nick
		s.maybeFinishRegistration(c)
		return
	}
	s.renameLocked(c, nick)
}

// renameLocked changes a registered client's nick, re-keying its channel
// memberships and broadcasting NICK to everyone sharing a channel.
func (s *Server) renameLocked(c *Client, nick string) {
	notice := &irc.Message{
		Prefix:  irc.ParsePrefix(c.Prefix()),
		Command: "NICK",
		Params:  []string{nick},
	}
	seen := map[*Client]bool{c: true}
	c.send(notice)
	for name := range c.channels {
		ch := s.channels[name]
		if ch == nil {
			continue
		}
		mem := ch.members[fold(c.nick)]
		delete(ch.members, fold(c.nick))
		ch.members[fold(nick)] = mem
		for _, other := range ch.memberClients() {
			if !seen[other] {
				seen[other] = true
				other.send(notice)
			}
		}
	}
	delete(s.clients, fold(c.nick))
	c.nick = nick
	s.clients[fold(nick)] = c
}

func validNick(nick string) bool {
	if nick == "" || len(nick) > 30 {
		return false
	}
	if strings.ContainsAny(nick, " ,*?!@.#:") {
		return false
	}
	return nick[0] < '0' || nick[0] > '9'
}

func (s *Server) cmdUser(c *Client, m *irc.Message) {
	if c.registered {
		c.SendNumeric(ErrAlreadyRegistred, "You may not reregister")
		return
	}
	c.username = m.Params[0]
	c.realname = m.Params[3]
	c.hostname = c.addr
	s.maybeFinishRegistration(c)
}

// maybeFinishRegistration completes registration once NICK and USER have
// both arrived and any CAP negotiation has ended.
func (s *Server) maybeFinishRegistration(c *Client) {
	if c.registered || c.nick == "" || c.username == "" || c.capNegotiating {
		return
	}
	c.registered = true
	s.clients[fold(c.nick)] = c

	c.SendNumeric(RplWelcome, fmt.Sprintf("Welcome to the %s Network, %s", s.cfg.Network, c.Nick()))
	c.SendNumeric(RplYourHost, fmt.Sprintf("Your host is %s, running crystalircd", s.cfg.ServerName))
	c.SendNumeric(RplCreated, "This server was created "+s.created.Format(time.RFC1123))
	c.SendNumeric(RplMyInfo, s.cfg.ServerName, "crystalircd", s.modeLetters(modes.User), s.modeLetters(modes.Channel))
	s.sendISupport(c)
	s.sendMOTD(c)

	// Capable clients get the full mode catalogue once, at connect.
	if c.PropCap() {
		s.dumper.SendCatalogue(c, modes.Channel)
		s.dumper.SendCatalogue(c, modes.User)
	}
	log.Printf("[%d] Registered as %s from %s", c.id, c.nick, c.addr)
}

// modeLetters returns the legacy letters of every registered mode of one
// entity type, in registration order.
func (s *Server) modeLetters(t modes.EntityType) string {
	var sb strings.Builder
	for _, d := range s.registry.All(t) {
		sb.WriteRune(d.Letter)
	}
	return sb.String()
}

func (s *Server) cmdJoin(c *Client, m *irc.Message) {
	names := strings.Split(m.Params[0], ",")
	var keys []string
	if len(m.Params) > 1 {
		keys = strings.Split(m.Params[1], ",")
	}
	for i, name := range names {
		key := ""
		if i < len(keys) {
			key = keys[i]
		}
		s.joinOne(c, name, key)
	}
}

func (s *Server) joinOne(c *Client, name, key string) {
	if !strings.HasPrefix(name, "#") || len(name) > 64 {
		c.SendNumeric(ErrNoSuchChannel, name, "No such channel")
		return
	}
	if s.cfg.MaxChannels > 0 && len(c.channels) >= s.cfg.MaxChannels {
		c.SendNumeric(ErrNoSuchChannel, name, "You have joined too many channels")
		return
	}

	ch := s.findChannel(name)
	created := false
	if ch == nil {
		ch = newChannel(name)
		ch.state.SetFlag("noextmsg")
		ch.state.SetFlag("topiclock")
		s.loadPersistedLists(ch)
		s.channels[fold(name)] = ch
		created = true
	} else if ch.HasMember(c.Nick()) {
		return
	}

	if !created && !c.oper {
		if num := s.checkJoin(c, ch, key); num != "" {
			return // numeric already sent
		}
	}

	if created {
		ch.addMember(c, 'o') // channel creator gets ops
	} else {
		ch.addMember(c)
	}

	join := &irc.Message{
		Prefix:  irc.ParsePrefix(c.Prefix()),
		Command: "JOIN",
		Params:  []string{ch.name},
	}
	for _, mcli := range ch.memberClients() {
		mcli.send(join)
	}

	if ch.topic != "" {
		c.SendNumeric(RplTopic, ch.name, ch.topic)
	}
	s.sendNames(c, ch)
	if s.metrics != nil {
		s.metrics.ChannelCount(len(s.channels))
	}
}

// checkJoin enforces key, limit, invite-only and ban modes. Returns the
// numeric sent, or "" when the join may proceed.
func (s *Server) checkJoin(c *Client, ch *Channel, key string) string {
	if want, ok := ch.state.Param("key"); ok && want != key {
		c.SendNumeric(ErrBadChannelKey, ch.name, "Cannot join channel (+k)")
		return ErrBadChannelKey
	}
	if limit, ok := ch.state.Param("limit"); ok {
		if n, err := strconv.Atoi(limit); err == nil && len(ch.members) >= n {
			c.SendNumeric(ErrChannelIsFull, ch.name, "Cannot join channel (+l)")
			return ErrChannelIsFull
		}
	}
	if ch.state.HasFlag("inviteonly") {
		c.SendNumeric(ErrInviteOnlyChan, ch.name, "Cannot join channel (+i)")
		return ErrInviteOnlyChan
	}
	if s.isBanned(c, ch) {
		c.SendNumeric(ErrBannedFromChan, ch.name, "Cannot join channel (+b)")
		return ErrBannedFromChan
	}
	return ""
}

// isBanned reports whether the client matches a ban without an exception.
func (s *Server) isBanned(c *Client, ch *Channel) bool {
	hostmask := c.Prefix()
	banned := false
	for _, e := range ch.state.List("ban") {
		if matchMask(e.Mask, hostmask) {
			banned = true
			break
		}
	}
	if !banned {
		return false
	}
	for _, e := range ch.state.List("banexception") {
		if matchMask(e.Mask, hostmask) {
			return false
		}
	}
	return true
}

// loadPersistedLists restores a channel's persisted list-mode entries.
func (s *Server) loadPersistedLists(ch *Channel) {
	if s.store == nil {
		return
	}
	lists, err := s.store.LoadChannel(fold(ch.name))
	if err != nil {
		log.Printf("liststore: %v", err)
		return
	}
	for mode, entries := range lists {
		ch.state.SetListEntries(mode, entries)
	}
}

func (s *Server) cmdPart(c *Client, m *irc.Message) {
	reason := ""
	if len(m.Params) > 1 {
		reason = m.Params[1]
	}
	for _, name := range strings.Split(m.Params[0], ",") {
		ch := s.findChannel(name)
		if ch == nil {
			c.SendNumeric(ErrNoSuchChannel, name, "No such channel")
			continue
		}
		if !ch.HasMember(c.Nick()) {
			c.SendNumeric(ErrNotOnChannel, name, "You're not on that channel")
			continue
		}
		part := &irc.Message{
			Prefix:  irc.ParsePrefix(c.Prefix()),
			Command: "PART",
			Params:  []string{ch.name},
		}
		if reason != "" {
			part.Params = append(part.Params, reason)
		}
		for _, mcli := range ch.memberClients() {
			mcli.send(part)
		}
		ch.removeMember(c)
		if len(ch.members) == 0 {
			delete(s.channels, fold(ch.name))
		}
	}
	if s.metrics != nil {
		s.metrics.ChannelCount(len(s.channels))
	}
}

func (s *Server) cmdNames(c *Client, m *irc.Message) {
	for _, name := range strings.Split(m.Params[0], ",") {
		ch := s.findChannel(name)
		if ch == nil {
			c.SendNumeric(RplEndOfNames, name, "End of /NAMES list")
			continue
		}
		s.sendNames(c, ch)
	}
}

// sendNames sends the 353/366 member list with prefix sigils.
func (s *Server) sendNames(c *Client, ch *Channel) {
	var names []string
	for _, mcli := range ch.memberClients() {
		names = append(names, s.prefixSigils(ch, mcli.Nick())+mcli.Nick())
	}
	c.SendNumeric(RplNamReply, "=", ch.name, strings.Join(names, " "))
	c.SendNumeric(RplEndOfNames, ch.name, "End of /NAMES list")
}

// prefixSigils returns a member's status sigils, highest first.
func (s *Server) prefixSigils(ch *Channel, nick string) string {
	var sb strings.Builder
	for _, d := range s.registry.All(modes.Channel) {
		if d.Kind == modes.Prefix && ch.memberHasPrefix(nick, d.Letter) {
			sb.WriteRune(d.PrefixSigil)
		}
	}
	return sb.String()
}

func (s *Server) cmdTopic(c *Client, m *irc.Message) {
	ch := s.findChannel(m.Params[0])
	if ch == nil {
		c.SendNumeric(ErrNoSuchChannel, m.Params[0], "No such channel")
		return
	}
	if len(m.Params) == 1 {
		if ch.topic == "" {
			c.SendNumeric(RplNoTopic, ch.name, "No topic is set")
		} else {
			c.SendNumeric(RplTopic, ch.name, ch.topic)
		}
		return
	}

	if !ch.HasMember(c.Nick()) {
		c.SendNumeric(ErrNotOnChannel, ch.name, "You're not on that channel")
		return
	}
	if ch.state.HasFlag("topiclock") && !ch.memberHasPrefix(c.Nick(), 'o') && !c.oper {
		c.SendNumeric(ErrChanOpPrivsNeeded, ch.name, "You're not channel operator")
		return
	}
	ch.topic = m.Params[1]
	ch.topicSetBy = c.Nick()
	ch.topicSetAt = time.Now()
	topic := &irc.Message{
		Prefix:  irc.ParsePrefix(c.Prefix()),
		Command: "TOPIC",
		Params:  []string{ch.name, ch.topic},
	}
	for _, mcli := range ch.memberClients() {
		mcli.send(topic)
	}
}

func (s *Server) cmdPrivmsg(c *Client, m *irc.Message) {
	s.deliverMessage(c, "PRIVMSG", m.Params[0], m.Params[1], true)
}

func (s *Server) cmdNotice(c *Client, m *irc.Message) {
	s.deliverMessage(c, "NOTICE", m.Params[0], m.Params[1], false)
}

// deliverMessage routes PRIVMSG/NOTICE to a channel or a nick. NOTICE
// never generates error replies.
func (s *Server) deliverMessage(c *Client, command, target, text string, reportErrors bool) {
	out := &irc.Message{
		Prefix:  irc.ParsePrefix(c.Prefix()),
		Command: command,
		Params:  []string{target, text},
	}

	if strings.HasPrefix(target, "#") {
		ch := s.findChannel(target)
		if ch == nil {
			if reportErrors {
				c.SendNumeric(ErrNoSuchChannel, target, "No such channel")
			}
			return
		}
		isMember := ch.HasMember(c.Nick())
		if ch.state.HasFlag("noextmsg") && !isMember {
			if reportErrors {
				c.SendNumeric(ErrCannotSendToChan, ch.name, "Cannot send to channel (+n)")
			}
			return
		}
		if ch.state.HasFlag("moderated") && !ch.memberHasPrefix(c.Nick(), 'o') && !ch.memberHasPrefix(c.Nick(), 'v') {
			if reportErrors {
				c.SendNumeric(ErrCannotSendToChan, ch.name, "Cannot send to channel (+m)")
			}
			return
		}
		for _, mcli := range ch.memberClients() {
			if mcli != c {
				mcli.send(out)
			}
		}
		return
	}

	target2 := s.findClient(target)
	if target2 == nil {
		if reportErrors {
			c.SendNumeric(ErrNoSuchNick, target, "No such nick")
		}
		return
	}
	target2.send(out)
}

func (s *Server) cmdMotd(c *Client, m *irc.Message) {
	s.sendMOTD(c)
}

// matchMask matches an IRC wildcard mask ('*' and '?') against a
// nick!user@host string, case-insensitively.
func matchMask(mask, against string) bool {
	return matchMaskFolded(fold(mask), fold(against))
}

func matchMaskFolded(mask, against string) bool {
	for len(mask) > 0 {
		switch mask[0] {
		case '*':
			for mask != "" && mask[0] == '*' {
				mask = mask[1:]
			}
			if mask == "" {
				return true
			}
			for i := 0; i <= len(against); i++ {
				if matchMaskFolded(mask, against[i:]) {
					return true
				}
			}
			return false
		case '?':
			if against == "" {
				return false
			}
			mask, against = mask[1:], against[1:]
		default:
			if against == "" || mask[0] != against[0] {
				return false
			}
			mask, against = mask[1:], against[1:]
		}
	}
	return against == ""
}
