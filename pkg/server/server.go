// Package server implements the IRC server: connection handling, command
// dispatch, channels, and the wiring between the legacy MODE machinery
// and the named-modes PROP layer.
package server

import (
	"bufio"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"gopkg.in/irc.v4"

	"github.com/crystal-irc/crystalircd/pkg/config"
	"github.com/crystal-irc/crystalircd/pkg/liststore"
	"github.com/crystal-irc/crystalircd/pkg/modes"
	"github.com/crystal-irc/crystalircd/pkg/namedmodes"
)

// Server is the IRC server instance.
type Server struct {
	cfg     *config.Config
	created time.Time

	mu       sync.Mutex
	clients  map[string]*Client // registered clients by folded nick
	channels map[string]*Channel
	nextID   int

	registry *modes.Registry
	proc     *modes.Processor
	trans    *namedmodes.Translator
	prop     *namedmodes.Handler
	dumper   *namedmodes.Dumper
	rewriter *namedmodes.Rewriter

	motd    *MOTD
	store   *liststore.Store
	metrics *Metrics

	listeners []net.Listener
	wsServer  *WSServer
}

// New builds a server from config: registers the mode set, validates the
// translation tables, and wires the processor hooks and callbacks.
func New(cfg *config.Config) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		created:  time.Now(),
		clients:  make(map[string]*Client),
		channels: make(map[string]*Channel),
		registry: modes.NewRegistry(),
	}

	trans, err := registerModes(s.registry)
	if err != nil {
		return nil, fmt.Errorf("server: mode registration: %w", err)
	}
	s.trans = trans

	s.dumper = &namedmodes.Dumper{
		Registry:   s.registry,
		Trans:      trans,
		ServerName: cfg.ServerName,
	}
	s.rewriter = &namedmodes.Rewriter{Trans: trans}

	s.proc = modes.NewProcessor()
	s.proc.MaxPerCommand = cfg.MaxModesPerCommand
	s.proc.ListLimit = cfg.MaxListEntries
	s.proc.Authorize = s.authorizeModeChange
	s.proc.ApplyPrefix = s.applyPrefixChange
	s.proc.OnApplied = s.modeApplied

	intercept := &namedmodes.Intercept{Registry: s.registry}
	s.proc.AddPreApplyHook(namedmodes.InterceptPriority, intercept.Rewrite)

	s.prop = &namedmodes.Handler{
		Registry: s.registry,
		Trans:    trans,
		Proc:     s.proc,
		Dumper:   s.dumper,
	}

	if cfg.MOTDPath != "" {
		s.motd = NewMOTD(cfg.MOTDPath)
		s.motd.Watch()
	}

	if cfg.StorePath != "" {
		store, err := liststore.Open(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		s.store = store
	}

	if cfg.MetricsListen != "" {
		s.metrics = NewMetrics(s)
	}

	return s, nil
}

// ListenAndServe starts all configured listeners and blocks until they
// are closed.
func (s *Server) ListenAndServe() error {
	var wg sync.WaitGroup
	errCh := make(chan error, 3)

	if s.cfg.Listen != "" {
		ln, err := net.Listen("tcp", s.cfg.Listen)
		if err != nil {
			return fmt.Errorf("server: listen %s: %w", s.cfg.Listen, err)
		}
		s.listeners = append(s.listeners, ln)
		log.Printf("Listening (plaintext) on %s", s.cfg.Listen)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.acceptLoop(ln)
		}()
	}

	if s.cfg.TLSListen != "" {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLSCert, s.cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("server: TLS cert load: %w", err)
		}
		ln, err := tls.Listen("tcp", s.cfg.TLSListen, &tls.Config{Certificates: []tls.Certificate{cert}})
		if err != nil {
			return fmt.Errorf("server: TLS listen %s: %w", s.cfg.TLSListen, err)
		}
		s.listeners = append(s.listeners, ln)
		log.Printf("Listening (TLS) on %s", s.cfg.TLSListen)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.acceptLoop(ln)
		}()
	}

	if s.cfg.WSListen != "" {
		s.wsServer = NewWSServer(s)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.wsServer.Start(s.cfg.WSListen); err != nil {
				errCh <- fmt.Errorf("server: websocket: %w", err)
			}
		}()
	}

	if s.metrics != nil {
		go s.metrics.Serve(s.cfg.MetricsListen)
	}

	select {
	case err := <-errCh:
		return err
	default:
	}

	wg.Wait()
	return nil
}

// Stop closes all active listeners and the persistent store.
func (s *Server) Stop() {
	for _, ln := range s.listeners {
		ln.Close()
	}
	if s.wsServer != nil {
		s.wsServer.Stop()
	}
	if s.store != nil {
		s.store.Close()
	}
}

// acceptLoop accepts connections on the given listener until it is closed.
func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("Accept error: %v", err)
			continue
		}
		go s.HandleConn(conn, TransportTCP)
	}
}

// maxInboundLine truncates oversized inbound lines before parsing.
const maxInboundLine = 510

// HandleConn runs the full lifecycle of one client connection. Exported
// so the WebSocket listener can feed adapted connections through the same
// path.
func (s *Server) HandleConn(conn net.Conn, transport TransportType) {
	s.mu.Lock()
	s.nextID++
	c := newClient(s, s.nextID, conn)
	c.Transport = transport
	s.mu.Unlock()

	log.Printf("[%d] New connection from %s", c.id, c.addr)
	if s.metrics != nil {
		s.metrics.ConnOpened(transport)
	}

	defer func() {
		s.mu.Lock()
		s.quitLocked(c, "Connection closed")
		s.mu.Unlock()
		c.Close()
		if s.metrics != nil {
			s.metrics.ConnClosed(transport)
		}
		log.Printf("[%d] Connection closed from %s", c.id, c.addr)
	}()

	if s.cfg.PingInterval > 0 {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			ticker := time.NewTicker(s.cfg.PingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c.sendFrom("PING", s.cfg.ServerName)
				case <-stop:
					return
				}
			}
		}()
	}

	reader := bufio.NewReaderSize(conn, 4096)
	for {
		if s.cfg.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		if len(line) > maxInboundLine {
			line = line[:maxInboundLine]
		}

		msg, err := irc.ParseMessage(line)
		if err != nil {
			continue
		}
		c.LastCmd = time.Now()
		s.Dispatch(c, msg)

		if c.IsClosed() {
			return
		}
	}
}

// quitLocked removes a client from all channels and the nick table,
// broadcasting QUIT to everyone who shared a channel. Caller holds s.mu.
func (s *Server) quitLocked(c *Client, reason string) {
	if c.nick == "" {
		return
	}
	seen := make(map[*Client]bool)
	quit := &irc.Message{
		Prefix:  irc.ParsePrefix(c.Prefix()),
		Command: "QUIT",
		Params:  []string{reason},
	}
	for name := range c.channels {
		ch := s.channels[name]
		if ch == nil {
			continue
		}
		ch.removeMember(c)
		for _, m := range ch.memberClients() {
			if !seen[m] {
				seen[m] = true
				m.send(quit)
			}
		}
		if len(ch.members) == 0 {
			delete(s.channels, name)
		}
	}
	if s.clients[fold(c.nick)] == c {
		delete(s.clients, fold(c.nick))
	}
	c.nick = ""
}

// findChannel returns a channel by name, or nil.
func (s *Server) findChannel(name string) *Channel {
	return s.channels[fold(name)]
}

// findClient returns a registered client by nick, or nil.
func (s *Server) findClient(nick string) *Client {
	return s.clients[fold(nick)]
}
