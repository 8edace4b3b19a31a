package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"blunderboard/internal/puzzles"
	"blunderboard/internal/telemetry"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

// PuzzleRoutes serves a local puzzles file the same way the hosted collection is served.
func PuzzleRoutes(file string) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Get("/puzzles.json", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, req, file)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	return r
}

// Serve checks that file decodes and serves it on addr until ctx is done.
func Serve(ctx context.Context, addr, file string, logger *telemetry.JSONLogger) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	set, err := puzzles.Decode(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	srv := &http.Server{Addr: addr, Handler: PuzzleRoutes(file), ReadHeaderTimeout: 5 * time.Second}
	logger.Info("serve.start", map[string]any{"addr": addr, "file": file, "puzzles": len(puzzles.Prepare(set))})

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err = eg.Wait()
	logger.Info("serve.stop", map[string]any{"addr": addr})
	return err
}
