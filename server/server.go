package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/AntonStoeckl/library-desk/catalog"
	"github.com/AntonStoeckl/library-desk/ledger"
	"github.com/AntonStoeckl/library-desk/notification"
	"github.com/AntonStoeckl/library-desk/observability"
	"github.com/AntonStoeckl/library-desk/session"
)

const (
	defaultShutdownTimeout   = 10 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second

	logMsgServerListening   = "http server listening"
	logMsgServerStopped     = "http server stopped"
	logMsgRequestHandled    = "http request handled"
	logMsgEncodingFailed    = "failed to encode response"
	logMsgWebSocketAccept   = "websocket upgrade failed"
	logMsgWebSocketClosed   = "websocket stream closed"
	logMsgWebSocketWriteErr = "websocket write failed"

	logAttrAddr       = "addr"
	logAttrMethod     = "method"
	logAttrPath       = "path"
	logAttrStatus     = "status"
	logAttrDurationMS = "duration_ms"
	logAttrError      = "error"
)

// Desk is the session API the server needs. *session.Session implements it.
type Desk interface {
	Books() []session.BookView
	Book(id catalog.BookID) (session.BookView, bool)
	TryBorrow(ctx context.Context, id catalog.BookID) (ledger.BorrowRecord, error)
	Return(ctx context.Context, id catalog.BookID) ledger.DecisionResult
	Loans() []ledger.BorrowRecord
	Notification() (notification.Notification, bool)
	Subscribe() (<-chan notification.Change, func())
	Status() session.Status
}

// Server serves a Desk over HTTP.
type Server struct {
	desk            Desk
	logger          observability.Logger
	originPatterns  []string
	shutdownTimeout time.Duration
	pingInterval    time.Duration
	mux             *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for request and websocket logs.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAllowedOrigins sets host patterns allowed to open the websocket stream from another origin.
func WithAllowedOrigins(patterns ...string) Option {
	return func(s *Server) {
		s.originPatterns = patterns
	}
}

// WithShutdownTimeout bounds the graceful shutdown in ListenAndServe.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.shutdownTimeout = timeout
		}
	}
}

// WithPingInterval sets how often idle websocket streams are pinged.
func WithPingInterval(interval time.Duration) Option {
	return func(s *Server) {
		if interval > 0 {
			s.pingInterval = interval
		}
	}
}

// New creates a Server for the desk.
func New(desk Desk, opts ...Option) *Server {
	s := &Server{
		desk:            desk,
		shutdownTimeout: defaultShutdownTimeout,
		pingInterval:    defaultPingInterval,
		mux:             http.NewServeMux(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.routes()

	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/books", s.handleBooks)
	s.mux.HandleFunc("GET /api/books/{id}", s.handleBook)
	s.mux.HandleFunc("POST /api/books/{id}/borrow", s.handleBorrow)
	s.mux.HandleFunc("GET /api/loans", s.handleLoans)
	s.mux.HandleFunc("POST /api/loans/{id}/return", s.handleReturn)
	s.mux.HandleFunc("GET /api/notification", s.handleNotification)
	s.mux.HandleFunc("GET /api/notifications/ws", s.handleNotificationStream)
}

// Handler returns the HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listener)
}

// Serve serves on the listener until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	if s.logger != nil {
		s.logger.Info(logMsgServerListening, logAttrAddr, listener.Addr().String())
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := httpServer.Shutdown(shutdownCtx)
	if serveErrValue := <-serveErr; !errors.Is(serveErrValue, http.ErrServerClosed) {
		err = errors.Join(err, serveErrValue)
	}

	if s.logger != nil {
		s.logger.Info(logMsgServerStopped, logAttrAddr, listener.Addr().String())
	}

	return err
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController and the websocket upgrade reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	if s.logger == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.logger.Debug(
			logMsgRequestHandled,
			logAttrMethod, r.Method,
			logAttrPath, r.URL.Path,
			logAttrStatus, recorder.status,
			logAttrDurationMS, observability.ToMilliseconds(time.Since(start)),
		)
	})
}
