package devtools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"blunderboard/internal/puzzles"
)

// PlaceholderMessage is shown when a collection has no real blunders yet.
const PlaceholderMessage = "No blunders found in recent games. This is a placeholder puzzle."

type Scenario struct {
	Name    string
	Another bool
	Solve   bool
	Wrong   bool
	Reload  bool
}

type Manager struct{}

func NewManager() *Manager { return &Manager{} }

func (m *Manager) Resolve(name string) Scenario {
	switch strings.TrimSpace(name) {
	case "another", "try_another":
		return Scenario{Name: "another", Another: true}
	case "solved", "reveal":
		return Scenario{Name: "solved", Solve: true}
	case "failed", "wrong":
		return Scenario{Name: "failed", Wrong: true}
	case "reload", "refresh":
		return Scenario{Name: "reload", Reload: true}
	default:
		return Scenario{Name: "latest"}
	}
}

// SampleSet is the collection used when no puzzles file is configured.
func SampleSet() puzzles.Set {
	set, err := puzzles.Decode(strings.NewReader(sampleJSON))
	if err != nil {
		panic("devtools: sample collection does not decode: " + err.Error())
	}
	return set
}

// SampleSource serves SampleSet.
type SampleSource struct{}

func (SampleSource) Location() string { return "builtin:sample" }

func (SampleSource) Load(ctx context.Context, _ puzzles.LoadOptions) (puzzles.Set, error) {
	if err := ctx.Err(); err != nil {
		return puzzles.Set{}, err
	}
	return SampleSet(), nil
}

func (m *Manager) SetState(ctx context.Context, cacheDir string, state string, rendered bool) error {
	_ = ctx
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		cacheDir = filepath.Join(home, ".cache", "blunderboard")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	payload := map[string]any{
		"state":    strings.TrimSpace(state),
		"rendered": rendered,
	}
	b, _ := json.Marshal(payload)
	return os.WriteFile(filepath.Join(cacheDir, "dev_state.json"), b, 0o644)
}

const sampleJSON = `{
	"platform": "lichess",
	"username": "sample",
	"generated_at": "2025-03-01T00:00:00",
	"is_placeholder": true,
	"message": "` + PlaceholderMessage + `",
	"count": 1,
	"puzzles": [
		{
			"fen": "r1bqkbnr/pppp1ppp/8/4p3/2BnP3/5Q2/PPPP1PPP/RNB1K1NR w KQkq - 4 4",
			"pre_blunder_fen": "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5Q2/PPPP1PPP/RNB1K1NR b KQkq - 3 3",
			"blundered_move": "Nd4",
			"blundered_move_uci": "c6d4",
			"player_color": "white",
			"eval_change": 900,
			"difficulty": 2,
			"difficulty_label": "Easy",
			"solution": ["f3f7"],
			"correct_move": "d8f6",
			"move_number": 3,
			"blunder_type": "blunder",
			"game_url": "https://lichess.org/learn#/4",
			"timestamp": "2025-03-01T00:00:00",
			"is_placeholder": true
		}
	]
}`
