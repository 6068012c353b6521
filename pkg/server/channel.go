package server

import (
	"sort"
	"time"

	"github.com/crystal-irc/crystalircd/pkg/modes"
)

// member is one channel membership: the client plus its prefix-mode
// letters (op, voice).
type member struct {
	client   *Client
	prefixes map[rune]bool
}

// Channel is one IRC channel. Guarded by the server lock.
type Channel struct {
	name    string
	created time.Time

	topic      string
	topicSetBy string
	topicSetAt time.Time

	members map[string]*member // keyed by folded nick
	state   *modes.State
}

func newChannel(name string) *Channel {
	return &Channel{
		name:    name,
		created: time.Now(),
		members: make(map[string]*member),
		state:   modes.NewState(),
	}
}

// Name implements modes.Entity.
func (ch *Channel) Name() string { return ch.name }

// EntityType implements modes.Entity.
func (ch *Channel) EntityType() modes.EntityType { return modes.Channel }

// ModeState implements modes.Entity.
func (ch *Channel) ModeState() *modes.State { return ch.state }

// HasMember implements namedmodes.ChannelView.
func (ch *Channel) HasMember(nick string) bool {
	_, ok := ch.members[fold(nick)]
	return ok
}

func (ch *Channel) addMember(c *Client, prefixes ...rune) {
	m := &member{client: c, prefixes: make(map[rune]bool)}
	for _, p := range prefixes {
		m.prefixes[p] = true
	}
	ch.members[fold(c.Nick())] = m
	c.channels[fold(ch.name)] = true
}

func (ch *Channel) removeMember(c *Client) {
	delete(ch.members, fold(c.Nick()))
	delete(c.channels, fold(ch.name))
}

// memberClients returns the member clients sorted by nick, so broadcast
// and NAMES ordering is deterministic.
func (ch *Channel) memberClients() []*Client {
	nicks := make([]string, 0, len(ch.members))
	for n := range ch.members {
		nicks = append(nicks, n)
	}
	sort.Strings(nicks)
	out := make([]*Client, 0, len(nicks))
	for _, n := range nicks {
		out = append(out, ch.members[n].client)
	}
	return out
}

// memberHasPrefix reports whether a member holds the given prefix-mode
// letter. False for non-members.
func (ch *Channel) memberHasPrefix(nick string, letter rune) bool {
	m := ch.members[fold(nick)]
	return m != nil && m.prefixes[letter]
}

// setMemberPrefix grants or revokes a prefix-mode letter. Returns false
// when the nick is not a member or the change is a no-op.
func (ch *Channel) setMemberPrefix(nick string, letter rune, on bool) bool {
	m := ch.members[fold(nick)]
	if m == nil || m.prefixes[letter] == on {
		return false
	}
	if on {
		m.prefixes[letter] = true
	} else {
		delete(m.prefixes, letter)
	}
	return true
}
