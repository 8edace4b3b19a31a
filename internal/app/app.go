package app

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"blunderboard/internal/devtools"
	"blunderboard/internal/puzzles"
	"blunderboard/internal/state"
	"blunderboard/internal/telemetry"
	"blunderboard/internal/ui"
	"blunderboard/internal/widget"

	"github.com/google/uuid"
)

const settingStyle = "ui.style"

type App struct {
	cfg Config

	logger   *telemetry.JSONLogger
	store    state.Store
	source   puzzles.Source
	demo     *devtools.Manager
	recorder *progressRecorder

	view ui.View
	ctrl PuzzleController

	sessionID string

	mu      sync.Mutex
	baseCtx context.Context
	style   string

	devMu     sync.Mutex
	devServer *http.Server
	demoMu    sync.Mutex
	devState  DevState
}

func New(cfg Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	logger, err := telemetry.NewJSONLogger(cfg.LogPath)
	if err != nil {
		return nil, err
	}

	store, err := state.NewSQLite(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}

	style := cfg.UI.StyleVariant
	if settings, err := store.LoadSettings(context.Background()); err == nil && settings[settingStyle] != "" {
		style = settings[settingStyle]
	} else if err != nil {
		logger.Error("settings.load_failed", map[string]any{"error": err.Error()})
	}

	source := newSource(cfg)
	sessionID := uuid.NewString()
	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		Debug:        cfg.DebugLayout,
		StyleVariant: style,
		MotionLevel:  cfg.UI.MotionLevel,
	})
	recorder := newProgressRecorder(store, logger, sessionID, source.Location())

	seed := cfg.Puzzles.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	ctrl := widget.New(widget.Options{
		Source:   source,
		Renderer: view,
		Logger:   logger,
		Observer: recorder,
		Timing:   cfg.widgetTiming(),
		Rand:     rand.New(rand.NewSource(seed)),
	})

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		source:    source,
		demo:      devtools.NewManager(),
		recorder:  recorder,
		view:      view,
		ctrl:      ctrl,
		sessionID: sessionID,
		baseCtx:   context.Background(),
		style:     style,
	}
	view.SetController(a)
	return a, nil
}

func newSource(cfg Config) puzzles.Source {
	if strings.TrimSpace(cfg.Puzzles.Location) == "" {
		return devtools.SampleSource{}
	}
	return puzzles.NewSource(cfg.Puzzles.Location, &http.Client{Timeout: cfg.fetchTimeout()})
}

func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	a.baseCtx = ctx
	a.mu.Unlock()
	a.logger.Info("app.start", map[string]any{"session": a.sessionID, "source": a.source.Location(), "style": a.style})

	if a.cfg.Dev {
		if err := a.startDevHTTP(); err != nil {
			return err
		}
	}

	go func() {
		if err := a.loadCollection(ctx, false); err != nil {
			return
		}
		if a.cfg.Dev && a.cfg.DemoScenario != "" {
			if _, err := a.runDemoScenario(ctx, a.cfg.DemoScenario, 30*time.Second); err != nil {
				a.logger.Error("dev.demo.initial_failed", map[string]any{"demo": a.cfg.DemoScenario, "error": err.Error()})
			}
		}
	}()

	return a.view.Run()
}

func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.devServer != nil {
		_ = a.devServer.Shutdown(ctx)
	}
	_ = a.store.Close()
	_ = a.logger.Close()
}

func (a *App) context() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.baseCtx
}

func (a *App) loadCollection(ctx context.Context, refresh bool) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.fetchTimeout())
	defer cancel()
	var err error
	if refresh {
		err = a.ctrl.Reload(ctx)
	} else {
		err = a.ctrl.LoadCollection(ctx)
	}
	if err != nil {
		a.logger.Error("app.load_failed", map[string]any{"refresh": refresh, "error": err.Error()})
	}
	return err
}

func (a *App) OnMoveAttempt(from, to string) bool {
	return a.ctrl.OnMoveAttempt(from, to)
}

func (a *App) OnAnimationSettled() {
	a.ctrl.OnAnimationSettled()
}

func (a *App) OnShowSolution() {
	a.ctrl.ShowSolution()
}

func (a *App) OnTryAnother() {
	a.ctrl.SelectAnother()
}

func (a *App) OnReload() {
	if err := a.loadCollection(a.context(), true); err != nil {
		a.view.FlashStatus("Reload failed")
	}
}

func (a *App) OnOpenStats() {
	set, list := a.ctrl.Collection()
	stats, err := buildStats(a.context(), a.store, set, list)
	if err != nil {
		a.logger.Error("stats.load_failed", map[string]any{"error": err.Error()})
		a.view.FlashStatus("Failed to load stats")
		return
	}
	a.view.SetStats(stats)
	a.view.SetStatsOpen(true)
}

func (a *App) OnCycleTheme() {
	a.mu.Lock()
	a.style = ui.NextStyleVariant(a.style)
	style := a.style
	a.mu.Unlock()

	a.view.SetStyleVariant(style)
	if err := a.store.SaveSettings(a.context(), map[string]string{settingStyle: style}); err != nil {
		a.logger.Error("settings.save_failed", map[string]any{"key": settingStyle, "error": err.Error()})
	}
	a.view.FlashStatus("Theme: " + style)
}

func (a *App) OnQuit() {
	a.view.Stop()
}

// playWrongMove drops the first legal move that is not the solution.
func (a *App) playWrongMove() error {
	snap := a.ctrl.Snapshot()
	from, to, err := wrongMove(snap.FEN, a.solutionFor(snap))
	if err != nil {
		return err
	}
	if !a.ctrl.OnMoveAttempt(from, to) {
		return fmt.Errorf("move %s%s was rejected", from, to)
	}
	return nil
}

func (a *App) solutionFor(snap widget.Snapshot) string {
	_, list := a.ctrl.Collection()
	if snap.Index < 0 || snap.Index >= len(list) {
		return ""
	}
	uci, _ := list[snap.Index].FirstSolution()
	return uci
}

// waitForPhase polls the controller until it reaches phase or the context ends.
func (a *App) waitForPhase(ctx context.Context, phase widget.Phase) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		if a.ctrl.Snapshot().Phase == phase {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", phase, ctx.Err())
		case <-ticker.C:
		}
	}
}
