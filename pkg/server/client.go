package server

import (
	"net"
	"strings"
	"sync"
	"time"

	"gopkg.in/irc.v4"

	"github.com/crystal-irc/crystalircd/pkg/modes"
	"github.com/crystal-irc/crystalircd/pkg/namedmodes"
)

// TransportType identifies how a client reached the server.
type TransportType string

const (
	TransportTCP       TransportType = "tcp"
	TransportWebSocket TransportType = "websocket"
)

// Client is one connected client. All fields except the write path are
// guarded by the server lock; send serializes writes with its own mutex
// so broadcasts from handler context and pings never interleave bytes.
type Client struct {
	srv  *Server
	conn net.Conn
	id   int
	addr string

	Transport TransportType
	LastCmd   time.Time

	nick     string
	username string
	realname string
	hostname string

	registered     bool
	caps           map[string]bool
	capNegotiating bool
	oper           bool

	userModes *modes.State
	channels  map[string]bool // folded channel names this client is on

	mu     sync.Mutex
	closed bool
}

func newClient(s *Server, id int, conn net.Conn) *Client {
	return &Client{
		srv:       s,
		conn:      conn,
		id:        id,
		addr:      hostOnly(conn.RemoteAddr().String()),
		hostname:  hostOnly(conn.RemoteAddr().String()),
		caps:      make(map[string]bool),
		userModes: modes.NewState(),
		channels:  make(map[string]bool),
		LastCmd:   time.Now(),
	}
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// fold maps a nick or channel name to its canonical lookup key.
// CASEMAPPING=ascii is advertised in ISUPPORT.
func fold(s string) string {
	return strings.ToLower(s)
}

// Nick returns the client's nick, or "*" before one is set.
func (c *Client) Nick() string {
	if c.nick == "" {
		return "*"
	}
	return c.nick
}

// Prefix returns the client's full nick!user@host source prefix.
func (c *Client) Prefix() string {
	return c.Nick() + "!" + c.username + "@" + c.hostname
}

// actor builds the mode-change actor identity for this client.
func (c *Client) actor() modes.Actor {
	return modes.Actor{Prefix: c.Prefix(), Nick: c.Nick(), Oper: c.oper}
}

// Name implements modes.Entity for user-mode targets.
func (c *Client) Name() string { return c.Nick() }

// EntityType implements modes.Entity.
func (c *Client) EntityType() modes.EntityType { return modes.User }

// ModeState implements modes.Entity.
func (c *Client) ModeState() *modes.State { return c.userModes }

// HasMember implements namedmodes.ChannelView for user-targeted dumps: a
// user is a member of their own mode state only.
func (c *Client) HasMember(nick string) bool {
	return fold(nick) == fold(c.Nick())
}

// PropCap reports whether this client negotiated draft/named-modes.
func (c *Client) PropCap() bool {
	return c.caps[namedmodes.CapName]
}

// Auspex reports whether this client may see secret mode parameters on
// channels it is not a member of. Server operators hold the privilege.
func (c *Client) Auspex() bool {
	return c.oper
}

// send writes one message to the client. Write errors mark the client
// closed; the reader goroutine notices and tears the connection down.
func (c *Client) send(m *irc.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := c.conn.Write([]byte(m.String() + "\r\n")); err != nil {
		c.closed = true
		c.conn.Close()
	}
}

// sendFrom sends a server-sourced message.
func (c *Client) sendFrom(command string, params ...string) {
	c.send(&irc.Message{
		Prefix:  &irc.Prefix{Name: c.srv.cfg.ServerName},
		Command: command,
		Params:  params,
	})
}

// SendNumeric sends a numeric reply with the client's nick prepended,
// as numerics require. Implements namedmodes.Client.
func (c *Client) SendNumeric(numeric string, params ...string) {
	c.sendFrom(numeric, append([]string{c.Nick()}, params...)...)
}

// SendFail sends a standard FAIL reply for the PROP command. Suppressed
// for clients without the capability, which never see PROP semantics.
// Implements namedmodes.Client.
func (c *Client) SendFail(code, context, description string) {
	if !c.PropCap() {
		return
	}
	c.sendFrom("FAIL", "PROP", code, context, description)
}

// Close shuts the connection down. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.conn.Close()
}

// IsClosed reports whether the connection has been shut down.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
