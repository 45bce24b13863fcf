// Package server runs DataCode snippets sent over a WebSocket.
//
// Each connection owns one engine, so variables and functions persist
// between the requests of a connection and nothing is shared across
// connections.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"datacode/internal/engine"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Request struct {
	Code string `json:"code"`
}

type Response struct {
	Success bool    `json:"success"`
	Output  string  `json:"output"`
	Error   *string `json:"error"`
}

// EngineFactory builds the engine for one connection; print writes to out.
type EngineFactory func(out io.Writer) *engine.Engine

type Server struct {
	addr      string
	newEngine EngineFactory
	log       zerolog.Logger
	upgrader  websocket.Upgrader
	timeout   time.Duration
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithTimeout bounds how long one request may run; zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

func New(addr string, newEngine EngineFactory, opts ...Option) *Server {
	s := &Server{
		addr:      addr,
		newEngine: newEngine,
		log:       zerolog.Nop(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveWS)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.addr)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("websocket server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	log := s.log.With().Str("remote", r.RemoteAddr).Logger()
	log.Debug().Msg("client connected")

	var out bytes.Buffer
	eng := s.newEngine(&out)
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("read failed")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		resp := s.handle(r.Context(), eng, &out, msg)
		if err := conn.WriteJSON(resp); err != nil {
			log.Debug().Err(err).Msg("write failed")
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, eng *engine.Engine, out *bytes.Buffer, msg []byte) Response {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return failure("", errors.Wrap(err, "invalid request").Error())
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return Execute(ctx, eng, out, req.Code)
}

// Execute runs code on eng and packages what print wrote to out.
func Execute(ctx context.Context, eng *engine.Engine, out *bytes.Buffer, code string) Response {
	out.Reset()
	_, err := eng.ExecuteContext(ctx, code)
	if err != nil {
		return failure(out.String(), err.Error())
	}
	return Response{Success: true, Output: out.String()}
}

func failure(output, msg string) Response {
	return Response{Output: output, Error: &msg}
}
