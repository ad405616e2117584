package results

import (
	"fmt"
	"strings"
)

// Side is the bench a team speaks on. Aff and Neg double as indexes 0 and 1.
type Side int

const (
	Aff Side = iota
	Neg
)

// Sides lists both sides in speaking order.
var Sides = [2]Side{Aff, Neg}

func (s Side) Valid() bool { return s == Aff || s == Neg }

func (s Side) Opposite() Side {
	if s == Aff {
		return Neg
	}
	return Aff
}

func (s Side) String() string {
	switch s {
	case Aff:
		return "aff"
	case Neg:
		return "neg"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// ParseSide accepts "aff"/"neg" and the long forms used on debate team records.
func ParseSide(v string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "aff", "affirmative", "a":
		return Aff, nil
	case "neg", "negative", "n":
		return Neg, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSide, v)
	}
}

func (s Side) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSide, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	parsed, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Position is a speaking slot: 1-3 are substantive speeches, 4 is the reply.
type Position int

const (
	FirstSpeaker Position = iota + 1
	SecondSpeaker
	ThirdSpeaker
	Reply

	NumPositions = 4
)

// Positions lists every slot in speaking order.
var Positions = [NumPositions]Position{FirstSpeaker, SecondSpeaker, ThirdSpeaker, Reply}

func (p Position) Valid() bool { return p >= FirstSpeaker && p <= Reply }

// Name is the label shown on ballots: "1", "2", "3" or "Reply".
func (p Position) Name() string {
	if p == Reply {
		return "Reply"
	}
	return fmt.Sprintf("%d", int(p))
}

func (p Position) index() int { return int(p) - 1 }

func checkSlot(side Side, pos Position) error {
	if !side.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSide, int(side))
	}
	if !pos.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPosition, int(pos))
	}
	return nil
}
