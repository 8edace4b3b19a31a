package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// observer writes arrive from timer goroutines; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS puzzle_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			puzzle_key TEXT NOT NULL,
			puzzle_index INTEGER NOT NULL DEFAULT 0,
			start_ts TEXT NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			solved INTEGER NOT NULL DEFAULT 0,
			revealed INTEGER NOT NULL DEFAULT 0,
			score INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS move_attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL,
			attempt_ts TEXT NOT NULL DEFAULT (datetime('now')),
			played_uci TEXT NOT NULL,
			played_san TEXT NOT NULL DEFAULT '',
			correct INTEGER NOT NULL,
			FOREIGN KEY(run_id) REFERENCES puzzle_runs(id)
		);`,
		`CREATE TABLE IF NOT EXISTS puzzle_progress (
			puzzle_key TEXT PRIMARY KEY,
			solved_count INTEGER NOT NULL DEFAULT 0,
			best_score INTEGER NOT NULL DEFAULT 0,
			last_played_ts TEXT NOT NULL DEFAULT '',
			last_solved_ts TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	// Backfill state files written before puzzle_runs.source existed.
	if _, err := s.db.ExecContext(ctx, `ALTER TABLE puzzle_runs ADD COLUMN source TEXT NOT NULL DEFAULT ''`); err != nil {
		msg := strings.ToLower(err.Error())
		if !strings.Contains(msg, "duplicate column name") {
			return fmt.Errorf("ensure schema alter puzzle_runs.source: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) StartPuzzleRun(ctx context.Context, run PuzzleRun) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO puzzle_runs(session_id, puzzle_key, puzzle_index, source, start_ts) VALUES(?,?,?,?,?)`,
		run.SessionID,
		run.PuzzleKey,
		run.PuzzleIndex,
		strings.TrimSpace(run.Source),
		run.StartTS.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) RecordMoveAttempt(ctx context.Context, runID int64, attempt MoveAttempt) error {
	at := attempt.At
	if at.IsZero() {
		at = time.Now()
	}
	correct := ifThen(attempt.Correct, 1, 0)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO move_attempts(run_id, attempt_ts, played_uci, played_san, correct) VALUES(?, ?, ?, ?, ?)`,
		runID, at.UTC().Format(timeLayout), attempt.PlayedUCI, attempt.PlayedSAN, correct,
	); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE puzzle_runs SET
			attempts = attempts + 1,
			solved = CASE WHEN ? = 1 THEN 1 ELSE solved END,
			score = CASE WHEN ? = 1 AND revealed = 0 THEN ? ELSE score END
		WHERE id = ?
	`, correct, correct, max(0, attempt.Score), runID); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) MarkRevealed(ctx context.Context, runID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE puzzle_runs SET revealed = 1 WHERE id = ?`, runID)
	return err
}

func (s *SQLiteStore) UpsertPuzzleProgress(ctx context.Context, update PuzzleProgressUpdate) error {
	key := strings.TrimSpace(update.PuzzleKey)
	if key == "" {
		return nil
	}
	playTS := update.LastPlayedTS
	if playTS.IsZero() {
		playTS = time.Now().UTC()
	}
	solvedTS := ""
	if update.Solved {
		solvedTS = playTS.UTC().Format(timeLayout)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO puzzle_progress(puzzle_key, solved_count, best_score, last_played_ts, last_solved_ts)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(puzzle_key) DO UPDATE SET
			solved_count = puzzle_progress.solved_count + excluded.solved_count,
			best_score = CASE
				WHEN excluded.best_score > puzzle_progress.best_score THEN excluded.best_score
				ELSE puzzle_progress.best_score
			END,
			last_played_ts = excluded.last_played_ts,
			last_solved_ts = CASE
				WHEN excluded.last_solved_ts <> '' THEN excluded.last_solved_ts
				ELSE puzzle_progress.last_solved_ts
			END
	`,
		key,
		ifThen(update.Solved, 1, 0),
		max(0, update.Score),
		playTS.UTC().Format(timeLayout),
		solvedTS,
	)
	return err
}

func (s *SQLiteStore) GetPuzzleProgressMap(ctx context.Context) (map[string]PuzzleProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT puzzle_key, solved_count, best_score, last_played_ts, last_solved_ts
		FROM puzzle_progress
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]PuzzleProgress{}
	for rows.Next() {
		var (
			p          PuzzleProgress
			lastPlayed string
			lastSolved string
		)
		if err := rows.Scan(&p.PuzzleKey, &p.SolvedCount, &p.BestScore, &lastPlayed, &lastSolved); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timeLayout, lastPlayed); err == nil {
			p.LastPlayedTS = t
		}
		if t, err := time.Parse(timeLayout, lastSolved); err == nil {
			p.LastSolvedTS = t
		}
		out[p.PuzzleKey] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context) (Summary, error) {
	var out Summary
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) as puzzle_runs,
			COALESCE(SUM(attempts),0) as attempts,
			COALESCE(SUM(solved),0) as solved,
			COALESCE(SUM(revealed),0) as revealed,
			COALESCE(MAX(score),0) as best_score
		FROM puzzle_runs
	`)
	if err := row.Scan(&out.PuzzleRuns, &out.Attempts, &out.Solved, &out.Revealed, &out.BestScore); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *SQLiteStore) GetLastRun(ctx context.Context) (*LastRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT puzzle_key, puzzle_index, start_ts, solved, revealed, attempts
		FROM puzzle_runs
		ORDER BY id DESC
		LIMIT 1
	`)
	var (
		out        LastRun
		startTSRaw string
		solved     int
		revealed   int
	)
	if err := row.Scan(&out.PuzzleKey, &out.PuzzleIndex, &startTSRaw, &solved, &revealed, &out.Attempts); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if t, err := time.Parse(timeLayout, startTSRaw); err == nil {
		out.StartTS = t
	}
	out.Solved = solved == 1
	out.Revealed = revealed == 1
	return &out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func ifThen(cond bool, yes, no int) int {
	if cond {
		return yes
	}
	return no
}
