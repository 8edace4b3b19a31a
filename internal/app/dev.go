package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"blunderboard/internal/chessrules"
	"blunderboard/internal/widget"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func (a *App) devRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Get("/__dev/ready", a.handleDevReady)
	r.Post("/__dev/demo", a.handleDevDemo)
	return r
}

func (a *App) handleDevReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.getDevState())
}

func (a *App) handleDevDemo(w http.ResponseWriter, r *http.Request) {
	var req demoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid json"})
		return
	}
	req.Demo = strings.TrimSpace(req.Demo)
	if req.Demo == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "demo is required"})
		return
	}
	a.logger.Info("dev.demo.request", map[string]any{"demo": req.Demo, "request_id": chimiddleware.GetReqID(r.Context())})

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	resolved, err := a.runDemoScenario(ctx, req.Demo, 10*time.Second)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error(), "state": resolved})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "state": resolved, "requested": req.Demo})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (a *App) startDevHTTP() error {
	a.devServer = &http.Server{Addr: a.cfg.DevHTTP, Handler: a.devRoutes()}
	a.setDevState("latest", a.cfg.DemoScenario)
	go func() {
		if err := a.devServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("dev_http.listen_failed", map[string]any{"error": err.Error(), "addr": a.cfg.DevHTTP})
		}
	}()
	return nil
}

func (a *App) applyDemoScenario(ctx context.Context, requested string, timeout time.Duration) error {
	s := a.demo.Resolve(requested)
	a.logger.Info("dev.demo.apply.begin", map[string]any{"requested": requested, "resolved": s.Name})

	switch {
	case s.Reload:
		return a.loadCollection(ctx, true)
	case s.Another:
		a.ctrl.SelectAnother()
	case s.Solve:
		a.ctrl.ShowSolution()
	case s.Wrong:
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := a.waitForPhase(waitCtx, widget.PhaseAwaitingMove); err != nil {
			return err
		}
		return a.playWrongMove()
	default:
		a.ctrl.DisplayPuzzle(0)
	}
	a.logger.Info("dev.demo.apply.ready", map[string]any{"requested": requested, "resolved": s.Name})
	return nil
}

func (a *App) runDemoScenario(ctx context.Context, requested string, timeout time.Duration) (string, error) {
	resolved := a.demo.Resolve(requested).Name
	a.setDevPending(resolved, requested)

	a.demoMu.Lock()
	defer a.demoMu.Unlock()

	cacheDir := filepath.Join(a.cfg.DataDir, "cache")
	if err := a.applyDemoScenario(ctx, requested, timeout); err != nil {
		a.logger.Error("dev.demo.apply_failed", map[string]any{"requested": requested, "resolved": resolved, "error": err.Error()})
		a.setDevError(resolved, requested, err.Error())
		_ = a.demo.SetState(ctx, cacheDir, resolved, false)
		return resolved, err
	}
	a.setDevState(resolved, requested)
	if err := a.demo.SetState(ctx, cacheDir, resolved, true); err != nil {
		a.logger.Error("dev_state.write_failed", map[string]any{"state": resolved, "error": err.Error()})
	}
	return resolved, nil
}

func (a *App) setDevState(state, demo string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = true
	a.devState.Pending = false
	a.devState.Error = ""
	a.devState.RenderSeq++
}

func (a *App) setDevPending(state, demo string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = false
	a.devState.Pending = true
	a.devState.Error = ""
	a.devState.RenderSeq++
}

func (a *App) setDevError(state, demo, errText string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = false
	a.devState.Pending = false
	a.devState.Error = errText
	a.devState.RenderSeq++
}

func (a *App) getDevState() DevState {
	snap := a.ctrl.Snapshot()
	a.devMu.Lock()
	defer a.devMu.Unlock()
	out := a.devState
	out.OK = true
	out.Phase = string(snap.Phase)
	out.Index = snap.Index
	out.Total = snap.Total
	return out
}

// wrongMove returns the first legal move in fen that differs from solution.
func wrongMove(fen, solution string) (string, string, error) {
	eng, err := chessrules.New(fen)
	if err != nil {
		return "", "", err
	}
	for _, uci := range eng.LegalMoves() {
		if len(solution) >= 4 && uci[:4] == solution[:4] {
			continue
		}
		return uci[:2], uci[2:4], nil
	}
	return "", "", fmt.Errorf("no wrong move available in %q", fen)
}
