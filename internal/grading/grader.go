package grading

import "fmt"

// Grade compares the played UCI move against the first solution move. The comparison is
// case-exact, so an under-promotion never matches a queen promotion.
func Grade(solution []string, played string) Verdict {
	v := Verdict{Kind: ResultKind, SchemaVersion: SchemaVersion, Played: played}
	if len(solution) == 0 {
		return v
	}
	v.Expected = solution[0]
	v.Correct = played != "" && played == v.Expected
	return v
}

// Annotation is the headline shown on the solution panel.
func Annotation(v Verdict) string {
	if v.Correct {
		return "Correct! That's the best move."
	}
	return "Incorrect. Try again."
}

// Detail is the secondary line for an incorrect verdict naming the expected move.
func Detail(v Verdict, expectedSAN string) string {
	if v.Correct {
		return ""
	}
	move := expectedSAN
	if move == "" {
		move = v.Expected
	}
	if move == "" {
		return ""
	}
	return fmt.Sprintf("The correct move was %s.", move)
}

// ScoreRun awards points for a solved run. Revealed or unsolved runs score zero.
func ScoreRun(req RunRequest) Score {
	base := defaultInt(req.BasePoints, 1000)
	grace := defaultInt(req.TimeGraceSeconds, 30)
	timePenaltyPerSec := defaultInt(req.TimePenaltyPerSecond, 2)
	attemptPenalty := defaultInt(req.AttemptPenaltyPoints, 150)

	if !req.Solved || req.Revealed {
		return Score{BasePoints: base, TimeGraceSeconds: grace}
	}

	durationSec := 0
	if !req.StartedAt.IsZero() && req.FinishedAt.After(req.StartedAt) {
		durationSec = int(req.FinishedAt.Sub(req.StartedAt).Seconds())
	}
	timePenaltyPoints := 0
	if durationSec > grace {
		timePenaltyPoints = (durationSec - grace) * timePenaltyPerSec
	}
	attemptPenaltyPoints := max(0, req.FailedAttempts) * attemptPenalty

	total := base - timePenaltyPoints - attemptPenaltyPoints
	if total < 0 {
		total = 0
	}
	return Score{
		BasePoints:           base,
		TimeGraceSeconds:     grace,
		TimePenaltyPoints:    timePenaltyPoints,
		AttemptPenaltyPoints: attemptPenaltyPoints,
		TotalPoints:          total,
		Breakdown: []ScoreDelta{
			{Kind: "time", Points: -timePenaltyPoints, Description: "Time penalty after grace"},
			{Kind: "attempt", Points: -attemptPenaltyPoints, Description: "Wrong moves before solving"},
		},
	}
}

func defaultInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
