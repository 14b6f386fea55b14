package echo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/davidbz/chatstream/internal/observability"
)

const readHeaderTimeout = 5 * time.Second

// Listener is a running echo upstream.
type Listener struct {
	BaseURL string
	srv     *http.Server
}

// Listen serves the echo upstream on addr ("127.0.0.1:0" picks a free port)
// in the background.
func (s *Server) Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	l := &Listener{
		BaseURL: "http://" + ln.Addr().String(),
		srv: &http.Server{
			Handler:           s.Handler(),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}

	go func() {
		if serveErr := l.srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			observability.FromContext(context.Background()).
				Error("echo upstream stopped", observability.Error(serveErr))
		}
	}()

	observability.FromContext(context.Background()).
		Info("echo upstream listening", observability.String("base_url", l.BaseURL))

	return l, nil
}

// Close stops the listener.
func (l *Listener) Close(ctx context.Context) error {
	return l.srv.Shutdown(ctx)
}
