package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// NewRouter creates a new HTTP router
func NewRouter(hr *HandlerRepository) *mux.Router {
	router := mux.NewRouter()
	router.Use(func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			handler.ServeHTTP(w, r)
			d := time.Since(start)

			hr.logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"remoteAddr": r.RemoteAddr,
				"durationMs": d.Milliseconds(),
				"duration":   d.String(),
			}).Debug("Request")
		})
	})

	router.Handle("/metrics", hr.metricsHandler())
	router.HandleFunc("/", hr.homepageHandler()).Methods(http.MethodGet)
	router.HandleFunc("/api/menu", hr.menusHandler()).Methods(http.MethodGet)
	router.HandleFunc("/api/menu/{slug}", hr.menuHandler()).Methods(http.MethodGet)
	router.HandleFunc("/api/status", hr.statusHandler()).Methods(http.MethodGet)
	router.HandleFunc("/api/events", hr.eventsHandler()).Methods(http.MethodGet)

	return router
}

// StartServer serves router on port until ctx is done,
// then the server is gracefully stopped
func StartServer(ctx context.Context, router *mux.Router, port int, logger *logrus.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("Server started on port %d", port)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("could not start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server exited properly")
	return nil
}
