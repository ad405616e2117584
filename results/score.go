package results

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"strconv"

	"github.com/montanaflynn/stats"
)

// Score is a speaker score that may be unset. The zero value is Missing.
// Arithmetic on scores is lifted: any missing operand yields Missing.
type Score struct {
	value float64
	valid bool
}

// Missing is the unset score.
var Missing = Score{}

func NewScore(v float64) Score {
	return Score{value: v, valid: true}
}

// ScoreFromPtr maps nil to Missing.
func ScoreFromPtr(v *float64) Score {
	if v == nil {
		return Missing
	}
	return NewScore(*v)
}

func (s Score) Valid() bool { return s.valid }

func (s Score) Float64() (float64, bool) { return s.value, s.valid }

// Ptr returns nil for a missing score.
func (s Score) Ptr() *float64 {
	if !s.valid {
		return nil
	}
	v := s.value
	return &v
}

func (s Score) Add(o Score) Score {
	if !s.valid || !o.valid {
		return Missing
	}
	return NewScore(s.value + o.value)
}

func (s Score) Sub(o Score) Score {
	if !s.valid || !o.valid {
		return Missing
	}
	return NewScore(s.value - o.value)
}

// Equal reports whether both scores are missing or both hold the same value.
func (s Score) Equal(o Score) bool {
	if s.valid != o.valid {
		return false
	}
	return !s.valid || s.value == o.value
}

func (s Score) String() string {
	if !s.valid {
		return "-"
	}
	return strconv.FormatFloat(s.value, 'f', -1, 64)
}

// Sum adds all scores; the result is Missing if any score is missing or none are given.
func Sum(scores ...Score) Score {
	if len(scores) == 0 {
		return Missing
	}
	total := NewScore(0)
	for _, s := range scores {
		total = total.Add(s)
	}
	return total
}

// Mean is the arithmetic mean of scores, Missing if any score is missing or none are given.
func Mean(scores []Score) Score {
	values := make([]float64, 0, len(scores))
	for _, s := range scores {
		if !s.valid {
			return Missing
		}
		values = append(values, s.value)
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return Missing
	}
	return NewScore(mean)
}

func (s Score) MarshalJSON() ([]byte, error) {
	if !s.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(s.value, 'f', -1, 64)), nil
}

func (s *Score) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Missing
		return nil
	}
	v, err := strconv.ParseFloat(string(bytes.TrimSpace(data)), 64)
	if err != nil {
		return fmt.Errorf("invalid score %s: %w", data, err)
	}
	*s = NewScore(v)
	return nil
}

// Scan implements sql.Scanner; NULL scans as Missing.
func (s *Score) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = Missing
	case float64:
		*s = NewScore(v)
	case float32:
		*s = NewScore(float64(v))
	case int64:
		*s = NewScore(float64(v))
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return fmt.Errorf("scan score %q: %w", v, err)
		}
		*s = NewScore(f)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("scan score %q: %w", v, err)
		}
		*s = NewScore(f)
	default:
		return fmt.Errorf("scan score: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer; Missing is stored as NULL.
func (s Score) Value() (driver.Value, error) {
	if !s.valid {
		return nil, nil
	}
	return s.value, nil
}
