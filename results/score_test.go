package results

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreArithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Score
		want Score
	}{
		{"add", NewScore(75).Add(NewScore(37.5)), NewScore(112.5)},
		{"add missing", NewScore(75).Add(Missing), Missing},
		{"sub", NewScore(265.5).Sub(NewScore(262.25)), NewScore(3.25)},
		{"sub missing", Missing.Sub(NewScore(1)), Missing},
		{"sum", Sum(NewScore(75), NewScore(76), NewScore(74), NewScore(38)), NewScore(263)},
		{"sum with missing", Sum(NewScore(75), Missing, NewScore(74)), Missing},
		{"sum of nothing", Sum(), Missing},
		{"mean", Mean([]Score{NewScore(74), NewScore(75)}), NewScore(74.5)},
		{"mean with missing", Mean([]Score{NewScore(74), Missing}), Missing},
		{"mean of nothing", Mean(nil), Missing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(tt.got), "want %s, got %s", tt.want, tt.got)
		})
	}
}

func TestScoreJSON(t *testing.T) {
	data, err := json.Marshal([]Score{NewScore(37.5), Missing})
	require.NoError(t, err)
	assert.JSONEq(t, `[37.5, null]`, string(data))

	var decoded []Score
	require.NoError(t, json.Unmarshal([]byte(`[76, null, 37.25]`), &decoded))
	require.Len(t, decoded, 3)
	assert.True(t, decoded[0].Equal(NewScore(76)))
	assert.False(t, decoded[1].Valid())
	assert.True(t, decoded[2].Equal(NewScore(37.25)))

	assert.Error(t, json.Unmarshal([]byte(`["high"]`), &decoded))
}

func TestScoreScanValue(t *testing.T) {
	tests := []struct {
		name string
		src  interface{}
		want Score
	}{
		{"null", nil, Missing},
		{"float", 75.5, NewScore(75.5)},
		{"int", int64(76), NewScore(76)},
		{"numeric bytes", []byte("37.25"), NewScore(37.25)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Score
			require.NoError(t, s.Scan(tt.src))
			assert.True(t, tt.want.Equal(s))

			v, err := s.Value()
			require.NoError(t, err)
			if tt.want.Valid() {
				assert.Equal(t, tt.want.value, v)
			} else {
				assert.Nil(t, v)
			}
		})
	}

	var s Score
	assert.Error(t, s.Scan(true))
}

func TestSideText(t *testing.T) {
	side, err := ParseSide("Negative")
	require.NoError(t, err)
	assert.Equal(t, Neg, side)

	_, err = ParseSide("opp")
	assert.ErrorIs(t, err, ErrInvalidSide)

	data, err := json.Marshal(map[string]Side{"winner": Aff})
	require.NoError(t, err)
	assert.JSONEq(t, `{"winner":"aff"}`, string(data))
}

func TestSheet(t *testing.T) {
	sheet := NewSheet(Adjudicator{ID: 1, Role: RoleChair})
	for _, side := range Sides {
		speakers := testSpeakers(side)
		for _, pos := range Positions {
			require.NoError(t, sheet.SetSpeaker(side, pos, speakers[pos.index()]))
			require.NoError(t, sheet.SetScore(side, pos, NewScore(75)))
		}
	}
	require.NoError(t, sheet.SetScore(Neg, Reply, NewScore(38)))

	assert.True(t, sheet.Total(Aff).Equal(NewScore(300)))
	assert.True(t, sheet.Total(Neg).Equal(NewScore(263)))
	w, ok := sheet.Winner()
	require.True(t, ok)
	assert.Equal(t, Aff, w)
	assert.NoError(t, sheet.Validate())

	require.NoError(t, sheet.SetSpeaker(Neg, Reply, Speaker{ID: 500}))
	assert.ErrorIs(t, sheet.Validate(), ErrReplySpeaker)

	require.NoError(t, sheet.SetScore(Aff, SecondSpeaker, Missing))
	assert.ErrorIs(t, sheet.Validate(), ErrIncompleteBallot)
	assert.False(t, sheet.Total(Aff).Valid())
	_, ok = sheet.Winner()
	assert.False(t, ok)

	assert.ErrorIs(t, sheet.SetScore(Aff, Position(7), NewScore(1)), ErrInvalidPosition)
	assert.False(t, sheet.Score(Aff, Position(7)).Valid())
	assert.False(t, sheet.Total(Side(-1)).Valid())
}
