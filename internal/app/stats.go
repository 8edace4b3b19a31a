package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"blunderboard/internal/puzzles"
	"blunderboard/internal/state"
	"blunderboard/internal/ui"
)

var difficultyOrder = []string{"Very Easy", "Easy", "Intermediate", "Challenging", "Advanced"}

func buildStats(ctx context.Context, store state.Store, set puzzles.Set, list []puzzles.Puzzle) (ui.StatsState, error) {
	sum, err := store.GetSummary(ctx)
	if err != nil {
		return ui.StatsState{}, err
	}
	progress, err := store.GetPuzzleProgressMap(ctx)
	if err != nil {
		return ui.StatsState{}, err
	}
	last, err := store.GetLastRun(ctx)
	if err != nil {
		return ui.StatsState{}, err
	}
	return ui.StatsState{
		Markdown:  statsMarkdown(set, list, sum, progress, last),
		Solved:    sum.Solved,
		Attempted: sum.PuzzleRuns,
	}, nil
}

func statsMarkdown(set puzzles.Set, list []puzzles.Puzzle, sum state.Summary, progress map[string]state.PuzzleProgress, last *state.LastRun) string {
	st := puzzles.Summarize(set, list)
	var b strings.Builder

	b.WriteString("# Collection\n\n")
	if set.Username != "" {
		fmt.Fprintf(&b, "Blunders from **%s** on %s.\n\n", set.Username, platformName(set.Platform))
	}
	if st.Placeholder {
		b.WriteString("_Placeholder collection._\n\n")
	}
	fmt.Fprintf(&b, "- Puzzles: %d\n", st.Count)
	if st.Count > 0 {
		fmt.Fprintf(&b, "- Average eval swing: %s\n", puzzles.FormatEvalChange(int(st.AvgEvalChange)))
		fmt.Fprintf(&b, "- Largest eval swing: %s\n", puzzles.FormatEvalChange(st.MaxEvalChange))
		b.WriteString("\n| Difficulty | Puzzles |\n| --- | --- |\n")
		for _, label := range difficultyOrder {
			if n := st.ByDifficulty[label]; n > 0 {
				fmt.Fprintf(&b, "| %s | %d |\n", label, n)
			}
		}
	}

	solvedHere := 0
	for _, p := range list {
		if progress[p.Key()].SolvedCount > 0 {
			solvedHere++
		}
	}

	b.WriteString("\n# Progress\n\n")
	fmt.Fprintf(&b, "- Puzzles attempted: %d\n", sum.PuzzleRuns)
	fmt.Fprintf(&b, "- Moves played: %d\n", sum.Attempts)
	fmt.Fprintf(&b, "- Solved: %d\n", sum.Solved)
	fmt.Fprintf(&b, "- Solutions revealed: %d\n", sum.Revealed)
	fmt.Fprintf(&b, "- Best score: %d\n", sum.BestScore)
	if len(list) > 0 {
		fmt.Fprintf(&b, "- Collection solved: %d of %d\n", solvedHere, len(list))
	}
	if last != nil {
		fmt.Fprintf(&b, "- Last puzzle: %s after %d %s\n", runOutcome(last), last.Attempts, plural(last.Attempts, "move", "moves"))
	}
	return b.String()
}

func runOutcome(r *state.LastRun) string {
	switch {
	case r.Revealed:
		return "revealed"
	case r.Solved:
		return "solved"
	default:
		return "unsolved"
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func platformName(p string) string {
	switch strings.ToLower(p) {
	case "lichess":
		return "Lichess"
	case "chess.com", "chesscom":
		return "Chess.com"
	case "":
		return "an unknown site"
	default:
		return p
	}
}

// Stats loads the configured collection and stored progress and renders them as markdown.
func Stats(ctx context.Context, cfg Config) (string, error) {
	store, err := state.NewSQLite(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		return "", err
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		return "", err
	}

	loadCtx, cancel := context.WithTimeout(ctx, cfg.fetchTimeout())
	defer cancel()
	set, err := newSource(cfg).Load(loadCtx, puzzles.LoadOptions{})
	if err != nil {
		return "", fmt.Errorf("load puzzles: %w", err)
	}
	st, err := buildStats(ctx, store, set, puzzles.Prepare(set))
	if err != nil {
		return "", err
	}
	return st.Markdown, nil
}
