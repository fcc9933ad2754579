package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"postboard/internal/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Server struct {
	store  store.Store
	logger *zap.Logger
	router *mux.Router
	server *http.Server
}

func NewServer(st store.Store, logger *zap.Logger) *Server {
	s := &Server{
		store:  st,
		logger: logger,
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/posts", s.handleList).Methods("GET")
	api.HandleFunc("/posts", s.handleCreate).Methods("POST")
	api.HandleFunc("/posts/search", s.handleSearch).Methods("GET")
	api.HandleFunc("/posts/{id:[0-9]+}", s.handleUpdate).Methods("PUT")
	api.HandleFunc("/posts/{id:[0-9]+}", s.handleDelete).Methods("DELETE")
}

// Handler returns the router wrapped in the request ID, access log and CORS
// middleware. The wrapping is outside mux so 404 and 405 responses get it too.
func (s *Server) Handler() http.Handler {
	return s.requestID(s.accessLog(cors(s.router)))
}

func (s *Server) httpServer(addr string) *http.Server {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s.server
}

// Stop gracefully shuts down
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Run serves until ctx is cancelled, then shuts down within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := s.httpServer(addr)
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Web server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
