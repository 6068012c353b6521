package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WSServer accepts IRC clients over WebSocket, adapting each socket to a
// net.Conn so it flows through the same connection path as TCP clients.
type WSServer struct {
	srv      *Server
	http     *http.Server
	upgrader websocket.Upgrader
}

func NewWSServer(s *Server) *WSServer {
	return &WSServer{
		srv: s,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			Subprotocols:    []string{"text.ircv3.net"},
			// Origin policy is delegated to a fronting proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start blocks serving WebSocket connections on addr.
func (ws *WSServer) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", ws.handleUpgrade)
	ws.http = &http.Server{Addr: addr, Handler: mux}
	log.Printf("Listening (websocket) on %s", addr)
	err := ws.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the HTTP listener down.
func (ws *WSServer) Stop() {
	if ws.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ws.http.Shutdown(ctx)
	}
}

func (ws *WSServer) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	sock, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade: %v", err)
		return
	}
	go ws.srv.HandleConn(newWSConn(sock), TransportWebSocket)
}

// wsConn adapts a websocket connection to net.Conn. Each inbound
// websocket message is one IRC line; a trailing newline is appended so
// the server's line reader sees the usual framing. Writes are framed as
// one text message per Write call, which matches the one-line-per-send
// write path.
type wsConn struct {
	sock *websocket.Conn
	rest []byte
}

func newWSConn(sock *websocket.Conn) *wsConn {
	return &wsConn{sock: sock}
}

func (c *wsConn) Read(p []byte) (int, error) {
	for len(c.rest) == 0 {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			return 0, err
		}
		if len(data) == 0 {
			continue
		}
		c.rest = append(data, '\n')
	}
	n := copy(p, c.rest)
	c.rest = c.rest[n:]
	return n, nil
}

func (c *wsConn) Write(p []byte) (int, error) {
	// Strip the CRLF; websocket message framing replaces it.
	line := p
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	if err := c.sock.WriteMessage(websocket.TextMessage, line); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error                { return c.sock.Close() }
func (c *wsConn) LocalAddr() net.Addr         { return c.sock.LocalAddr() }
func (c *wsConn) RemoteAddr() net.Addr        { return c.sock.RemoteAddr() }
func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.sock.SetReadDeadline(t); err != nil {
		return err
	}
	return c.sock.SetWriteDeadline(t)
}
func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.sock.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.sock.SetWriteDeadline(t) }
