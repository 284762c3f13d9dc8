package elo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpected(t *testing.T) {
	assert.Equal(t, 0.5, Expected(1000, 1000))
	assert.Equal(t, 0.5, Expected(1523, 1523))

	pairs := [][2]int{
		{1000, 1000}, {1200, 1000}, {1000, 1200}, {400, 2400}, {1, 3000}, {-200, 50},
	}

	for _, v := range pairs {
		a, b := Expected(v[0], v[1]), Expected(v[1], v[0])
		assert.InDelta(t, 1, a+b, 1e-12, "%v", v)
		assert.Greater(t, a, 0.0)
		assert.Less(t, a, 1.0)
	}

	// 400 points is ten to one.
	assert.InDelta(t, 10.0/11.0, Expected(1400, 1000), 1e-12)
	assert.Greater(t, Expected(1200, 1000), Expected(1100, 1000))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		s1, s2   int
		expected Outcome
	}{
		{11, 5, Outcome{ResultPlayer1Win, 1, 0}},
		{3, 11, Outcome{ResultPlayer2Win, 0, 1}},
		{5, 5, Outcome{ResultDraw, 0.5, 0.5}},
		{0, 0, Outcome{ResultDraw, 0.5, 0.5}},
		{1, 0, Outcome{ResultPlayer1Win, 1, 0}},
	}

	for k, v := range cases {
		actual, err := Classify(v.s1, v.s2)
		require.NoError(t, err, "case #%d", k)
		assert.Equal(t, v.expected, actual, "case #%d", k)
	}

	for _, v := range [][2]int{{-1, 0}, {0, -1}, {-3, -3}} {
		_, err := Classify(v[0], v[1])
		assert.ErrorIs(t, err, ErrNegativeScore, "%v", v)
	}

	for _, v := range [][2]int{{MaxScore + 1, 0}, {0, MaxScore + 1}, {math.MaxInt, 0}} {
		_, err := Classify(v[0], v[1])
		assert.ErrorIs(t, err, ErrScoreTooLarge, "%v", v)
	}

	_, err := Classify(MaxScore, 0)
	assert.NoError(t, err)
}

func TestMarginMultiplier(t *testing.T) {
	assert.InDelta(t, 0.05, MarginMultiplier(5, 5), 1e-12)
	assert.InDelta(t, 0.35, MarginMultiplier(11, 5), 1e-12)
	assert.InDelta(t, 0.35, MarginMultiplier(5, 11), 1e-12)
	assert.InDelta(t, 1.0, MarginMultiplier(19, 0), 1e-12)
	assert.InDelta(t, 1.1, MarginMultiplier(21, 0), 1e-12)
	assert.InDelta(t, 50.0, MarginMultiplier(MaxScore, 0), 1e-12)

	// Never wraps, even for scores Classify rejects.
	assert.Positive(t, MarginMultiplier(math.MaxInt, 0))
	assert.Positive(t, MarginMultiplier(0, math.MaxInt))
}

func TestResultValid(t *testing.T) {
	assert.True(t, ResultPlayer1Win.Valid())
	assert.True(t, ResultPlayer2Win.Valid())
	assert.True(t, ResultDraw.Valid())
	assert.False(t, Result("player3win").Valid())
	assert.False(t, Result("").Valid())
}

func TestResultScanValue(t *testing.T) {
	var r Result
	require.NoError(t, r.Scan("draw"))
	assert.Equal(t, ResultDraw, r)
	require.NoError(t, r.Scan([]byte("player2win")))
	assert.Equal(t, ResultPlayer2Win, r)

	assert.Error(t, r.Scan("player3win"))
	assert.Error(t, r.Scan(42))
	assert.Equal(t, ResultPlayer2Win, r)

	v, err := ResultPlayer1Win.Value()
	require.NoError(t, err)
	assert.Equal(t, "player1win", v)

	_, err = Result("").Value()
	assert.Error(t, err)
}
