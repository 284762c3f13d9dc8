package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		input, expected string
	}{
		{"Ruto", "Ruto"},
		{"  Ruto  ", "Ruto"},
		{"Our  Lord\tand\nSavior ZFG", "Our Lord and Savior ZFG"},
		{"Ébène", "Ébène"},
	}

	for k, v := range cases {
		actual, err := NormalizeName(v.input)
		require.NoError(t, err, "case #%d", k)
		assert.Equal(t, v.expected, actual, "case #%d", k)
	}

	for _, v := range []string{"", "   ", strings.Repeat("a", MaxNameLength+1), "a\x00b"} {
		_, err := NormalizeName(v)
		assert.ErrorIs(t, err, ErrPublic(""), "%q", v)
	}

	_, err := NormalizeName(strings.Repeat("é", MaxNameLength))
	assert.NoError(t, err)
}

func TestErrPublic(t *testing.T) {
	err := fmt.Errorf("creating player: %w", ErrPublic("name: required"))
	assert.True(t, errors.Is(err, ErrPublic("")))

	msg, ok := PublicMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "name: required", msg)

	_, ok = PublicMessage(errors.New("disk I/O error"))
	assert.False(t, ok)
}

func TestConcatErrors(t *testing.T) {
	assert.NoError(t, ConcatErrors(nil))
	assert.NoError(t, ConcatErrors([]error{nil, nil}))
	assert.EqualError(t, ConcatErrors([]error{errors.New("a"), nil, errors.New("b")}), "a; b")
}

func TestUUIDAsBlob(t *testing.T) {
	id := NewUUIDAsBlob()
	assert.False(t, id.IsZero())
	assert.True(t, UUIDAsBlob{}.IsZero())

	parsed, err := ParseUUIDAsBlob(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseUUIDAsBlob("nope")
	assert.ErrorIs(t, err, ErrPublic(""))

	value, err := id.Value()
	require.NoError(t, err)

	var scanned UUIDAsBlob
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, id, scanned)
	assert.Error(t, scanned.Scan("not bytes"))
	assert.Error(t, scanned.Scan([]byte{1, 2, 3}))

	encoded, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(encoded))

	var decoded UUIDAsBlob
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, id, decoded)
	assert.Error(t, json.Unmarshal([]byte(`12`), &decoded))
}

func TestTimeAsTimestamp(t *testing.T) {
	ts := TimeAsTimestamp(time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC))

	value, err := ts.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(1710009000), value)

	var scanned TimeAsTimestamp
	require.NoError(t, scanned.Scan(int64(1710009000)))
	assert.True(t, ts.Time().Equal(scanned.Time()))
	require.NoError(t, scanned.Scan([]byte("1710009000")))
	assert.True(t, ts.Time().Equal(scanned.Time()))
	assert.Error(t, scanned.Scan(3.5))

	encoded, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-09T18:30:00Z"`, string(encoded))

	var decoded TimeAsTimestamp
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.True(t, ts.Time().Equal(decoded.Time()))
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &decoded))
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		30 * time.Second:                 "30s",
		5 * time.Minute:                  "5m",
		80 * time.Minute:                 "1h20m",
		time.Hour:                        "1h",
		26*time.Hour + 12*time.Minute:    "1d2h",
		90*time.Second + time.Nanosecond: "1m30s",
	}

	for input, expected := range cases {
		assert.Equal(t, expected, FormatDuration(input), input.String())
	}
}
