// Package elo computes Elo rating updates for two-sided games where the
// final score margin scales the update.
//
// The package is pure: it never stores ratings, it transforms snapshots.
// Callers hold the live ratings and persist whatever Apply, Reverse, and
// Reapply return.
package elo

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultK is the update factor used when none is configured.
	DefaultK = 32

	// DefaultRating is the rating new players start with.
	DefaultRating = 1000

	// spread is the rating difference at which the stronger side is
	// expected to win ten times as often.
	spread = 400

	marginDivisor = 20

	// MaxScore is the highest score a side can record. It keeps the margin
	// multiplier, and so any single delta, within K * 50.
	MaxScore = 999
)

var (
	// ErrNegativeScore is returned when a game has a score below zero.
	ErrNegativeScore = errors.New("scores must be non-negative")

	// ErrScoreTooLarge is returned when a game has a score above MaxScore.
	ErrScoreTooLarge = fmt.Errorf("scores must be at most %d", MaxScore)
)

// Result is the outcome of a game from player 1's point of view.
type Result string

const (
	ResultPlayer1Win Result = "player1win"
	ResultPlayer2Win Result = "player2win"
	ResultDraw       Result = "draw"
)

// Valid reports whether r is one of the three known results.
func (r Result) Valid() bool {
	switch r {
	case ResultPlayer1Win, ResultPlayer2Win, ResultDraw:
		return true
	default:
		return false
	}
}

// Scan reads a stored result, rejecting unknown values.
func (r *Result) Scan(src interface{}) error {
	var str string
	switch src := src.(type) {
	case string:
		str = src
	case []byte:
		str = string(src)
	default:
		return fmt.Errorf("expected string or []byte, got %T", src)
	}

	if !Result(str).Valid() {
		return fmt.Errorf("unknown result %q", str)
	}

	*r = Result(str)

	return nil
}

func (r Result) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown result %q", string(r))
	}

	return string(r), nil
}

// Outcome holds a classified result and the actual score of each side,
// 1 for a win, 0 for a loss, and 0.5 each for a draw.
type Outcome struct {
	Result           Result
	Actual1, Actual2 float64
}

// Expected returns the probability that a player rated ratingA beats a
// player rated ratingB. Expected(b, a) is always 1 - Expected(a, b).
func Expected(ratingA, ratingB int) float64 {
	return 1 / (1 + math.Pow(10, float64(ratingB-ratingA)/spread))
}

// Classify turns a pair of scores into an Outcome.
func Classify(score1, score2 int) (Outcome, error) {
	if score1 < 0 || score2 < 0 {
		return Outcome{}, ErrNegativeScore
	}
	if score1 > MaxScore || score2 > MaxScore {
		return Outcome{}, ErrScoreTooLarge
	}

	switch {
	case score1 > score2:
		return Outcome{ResultPlayer1Win, 1, 0}, nil
	case score2 > score1:
		return Outcome{ResultPlayer2Win, 0, 1}, nil
	default:
		return Outcome{ResultDraw, 0.5, 0.5}, nil
	}
}

// MarginMultiplier scales an update by how decisive the game was.
// A draw yields 0.05 and a 19 point margin yields exactly 1. The margin is
// taken in float64 so that out of range scores cannot wrap around.
func MarginMultiplier(score1, score2 int) float64 {
	return (math.Abs(float64(score1)-float64(score2)) + 1) / marginDivisor
}
