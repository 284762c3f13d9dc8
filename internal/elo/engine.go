package elo

// Pair holds one integer value per side of a game, player 1 first.
type Pair struct {
	Player1, Player2 int
}

func (p Pair) add(o Pair) Pair {
	return Pair{p.Player1 + o.Player1, p.Player2 + o.Player2}
}

func (p Pair) sub(o Pair) Pair {
	return Pair{p.Player1 - o.Player1, p.Player2 - o.Player2}
}

// Record is what must be stored alongside a game for its rating effect to
// be undone later.
type Record struct {
	Score1, Score2 int
	Result         Result

	// Prior are the live ratings observed when the record was applied.
	// They are informational, Reverse never reads them.
	Prior Pair

	// Change is the delta that was added to each side.
	Change Pair
}

// New returns the ratings right after the record was applied.
func (r Record) New() Pair {
	return r.Prior.add(r.Change)
}

// Engine applies rating updates with a fixed K factor.
type Engine struct {
	K float64
}

// New returns an Engine using k, or DefaultK if k is not positive.
func New(k float64) Engine {
	if k <= 0 {
		k = DefaultK
	}

	return Engine{K: k}
}

// Compute returns the rating delta of each side for the given scores.
// Each delta is truncated toward zero independently so the two are not
// forced to cancel out.
func (e Engine) Compute(ratings Pair, score1, score2 int) (Pair, Outcome, error) {
	outcome, err := Classify(score1, score2)
	if err != nil {
		return Pair{}, Outcome{}, err
	}

	k := e.K
	if k <= 0 {
		k = DefaultK
	}

	margin := MarginMultiplier(score1, score2)
	expected1 := Expected(ratings.Player1, ratings.Player2)
	expected2 := 1 - expected1

	return Pair{
		Player1: int(k * margin * (outcome.Actual1 - expected1)),
		Player2: int(k * margin * (outcome.Actual2 - expected2)),
	}, outcome, nil
}

// Apply computes a game against the live ratings and returns the record to
// store and the new live ratings.
func (e Engine) Apply(live Pair, score1, score2 int) (Record, Pair, error) {
	change, outcome, err := e.Compute(live, score1, score2)
	if err != nil {
		return Record{}, live, err
	}

	rec := Record{
		Score1: score1,
		Score2: score2,
		Result: outcome.Result,
		Prior:  live,
		Change: change,
	}

	return rec, live.add(change), nil
}

// Reverse removes the stored contribution of rec from the live ratings.
// It always subtracts the stored change from the current ratings, whatever
// happened since rec was applied.
func Reverse(live Pair, rec Record) Pair {
	return live.sub(rec.Change)
}

// Reapply reverses rec then applies the new scores against the resulting
// ratings. The returned record replaces rec entirely. On error the live
// ratings are returned untouched.
func (e Engine) Reapply(live Pair, rec Record, score1, score2 int) (Record, Pair, error) {
	if _, err := Classify(score1, score2); err != nil {
		return rec, live, err
	}

	return e.Apply(Reverse(live, rec), score1, score2)
}
