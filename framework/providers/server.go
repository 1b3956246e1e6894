package providers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/km-arc/go-bakery/framework/container"
)

// ShutdownTimeout bounds how long Exit waits for in-flight requests.
var ShutdownTimeout = 10 * time.Second

// Server is an http.Server run as a container resource: Enter binds the
// listener and starts serving, Exit shuts down gracefully.
type Server struct {
	addr string
	srv  *http.Server
	log  container.Logger

	ln   net.Listener
	done chan error
}

var _ container.AsyncGuard = (*Server)(nil)

// NewServer prepares a server for h on addr. Nothing listens until Enter.
func NewServer(addr string, h http.Handler, log container.Logger) *Server {
	if log == nil {
		log = container.NopLogger{}
	}
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Enter binds the listener and serves in the background. It yields s.
func (s *Server) Enter(ctx context.Context) (any, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return nil, err
	}
	s.ln = ln
	s.done = make(chan error, 1)
	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()
	s.log.Debug("server started", "addr", s.Addr())
	return s, nil
}

// Exit shuts the server down, waiting up to ShutdownTimeout for in-flight
// requests.
func (s *Server) Exit(ctx context.Context, cause error) error {
	if s.done == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	err := <-s.done
	s.done = nil
	s.log.Debug("server stopped", "addr", s.addr, "cause", cause)
	return err
}

// Addr returns the bound address, or the configured one before Enter.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

func listenAddr(port int) string {
	return ":" + strconv.Itoa(port)
}
