// Package livesplit delivers timer actions to LiveSplit Server clients over a websocket
package livesplit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"memsplit/route"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/gorilla/websocket"
)

const (
	DefaultListen = "localhost:8777"

	writeWait = 2 * time.Second
)

// Command renders an action in the LiveSplit Server text protocol
func Command(a route.Action) (string, error) {
	switch a.Kind {
	case route.ActionReset:
		return "reset", nil
	case route.ActionStart:
		return "start", nil
	case route.ActionSplit:
		return "split", nil
	case route.ActionSetElapsedTime:
		return "setgametime " + strconv.FormatFloat(a.Seconds, 'f', -1, 64), nil
	case route.ActionSetTimeRunning:
		if a.Running {
			return "resumegametime", nil
		}
		return "pausegametime", nil
	}
	return "", fmt.Errorf("no command for %s", a)
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteMessage sends a websocket message guarded by the client's mutex and write deadline.
func (c *client) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.conn.Close()
}

// Server is an http.Handler that accepts LiveSplit connections and broadcasts actions to them.
// Nothing is read from clients.
type Server struct {
	upgrader websocket.Upgrader
	single   bool
	log      *logger.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewServer builds a server; with single set a new connection drops the previous ones
func NewServer(single bool) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		single:  single,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "livesplit")),
		clients: make(map[*client]struct{}),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debugln("Upgrade failed:", err)
		return
	}

	c := &client{conn: conn}
	s.add(c)
	s.log.Infoln("Client connected from", r.RemoteAddr)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.remove(c)
	conn.Close()
	s.log.Infoln("Client disconnected from", r.RemoteAddr)
}

func (s *Server) add(c *client) {
	s.mu.Lock()
	var dropped []*client
	if s.single {
		for old := range s.clients {
			dropped = append(dropped, old)
			delete(s.clients, old)
		}
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	for _, old := range dropped {
		old.close()
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Send broadcasts one action. Clients that fail are dropped and their errors returned.
func (s *Server) Send(a route.Action) error {
	cmd, err := Command(a)
	if err != nil {
		return err
	}

	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	var errs []error
	for _, c := range clients {
		if err := c.WriteMessage(websocket.TextMessage, []byte(cmd)); err != nil {
			errs = append(errs, err)
			s.remove(c)
			c.conn.Close()
		}
	}
	return errors.Join(errs...)
}

// ListenAndServe serves on addr until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s}
	s.log.Infoln("Listening on", "ws://"+ln.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.Close()
	}()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close disconnects every client
func (s *Server) Close() error {
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()

	for c := range clients {
		c.close()
	}
	return nil
}
