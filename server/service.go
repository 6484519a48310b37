// Package server wires the conversion engine to an HTTP front end.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ravenscroftj/granary/server/telemetry"
)

type ConvertService struct {
	Config  Config
	Server  http.Server
	router  *mux.Router
	convert *ConvertHandler
}

func (s *ConvertService) addHandlers() {
	s.router.HandleFunc("/", homeHandler).Methods("GET")
	s.router.Handle("/convert", s.convert).Methods("GET", "POST")
}

// Close anything related to the service before exiting
func (s *ConvertService) Close() {
	telemetry.LogCounters()
}

func (s *ConvertService) ListenAndServe(ctx context.Context) error {
	telemetry.Log("http listener starting on port %d", s.Config.Server.Port)
	return s.Server.ListenAndServe()
}

// Start runs the listener in a goroutine so the caller can wait on signals.
func (s *ConvertService) Start(ctx context.Context) {
	go func() {
		if err := s.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			telemetry.Error(err, "listener stopped")
		}
	}()
}

// Stop shuts the listener down gracefully.
func (s *ConvertService) Stop(ctx context.Context) {
	if err := s.Server.Shutdown(ctx); err != nil {
		telemetry.Error(err, "shutting down")
	}
	s.Close()
}

// NewService creates an http service that serves format conversions
func NewService(cfg Config) *ConvertService {
	svc := &ConvertService{
		Config:  cfg,
		router:  mux.NewRouter(),
		convert: NewConvertHandler(cfg),
	}

	svc.addHandlers()

	svc.Server = http.Server{
		Handler:      svc.router,
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
	}
	return svc
}

func homeHandler(w http.ResponseWriter, r *http.Request) {
	telemetry.Request(r, "homeHandler")
	telemetry.Increment("home_requests", 1)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<html><title>granary</title>
<body>
<p>This is <a href="https://github.com/ravenscroftj/granary">granary</a>,
a conversion service between ActivityStreams and microformats2.
Try <code>/convert?url=...&input=html&output=as1</code>.</p>
</body>
</html>`)
}
