package results

import "fmt"

// Role is an adjudicator's seat on a debate panel.
type Role string

const (
	RoleChair    Role = "chair"
	RolePanelist Role = "panelist"
	RoleTrainee  Role = "trainee"
)

// Scores reports whether adjudicators in this role submit a score sheet.
func (r Role) Scores() bool { return r == RoleChair || r == RolePanelist }

type Adjudicator struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Speaker identifies who spoke in a slot. The zero value means unassigned.
type Speaker struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (s Speaker) Assigned() bool { return s.ID != 0 }

// Sheet is one adjudicator's scores for a debate.
type Sheet struct {
	adjudicator Adjudicator
	scores      [2][NumPositions]Score
	speakers    [2][NumPositions]Speaker
}

func NewSheet(adj Adjudicator) *Sheet {
	return &Sheet{adjudicator: adj}
}

func (s *Sheet) Adjudicator() Adjudicator { return s.adjudicator }

func (s *Sheet) SetScore(side Side, pos Position, score Score) error {
	if err := checkSlot(side, pos); err != nil {
		return err
	}
	s.scores[side][pos.index()] = score
	return nil
}

// SetSpeaker records who spoke in a slot. The reply rule is checked by Validate.
func (s *Sheet) SetSpeaker(side Side, pos Position, speaker Speaker) error {
	if err := checkSlot(side, pos); err != nil {
		return err
	}
	s.speakers[side][pos.index()] = speaker
	return nil
}

// Score returns Missing for unset or out-of-range slots.
func (s *Sheet) Score(side Side, pos Position) Score {
	if checkSlot(side, pos) != nil {
		return Missing
	}
	return s.scores[side][pos.index()]
}

func (s *Sheet) Speaker(side Side, pos Position) Speaker {
	if checkSlot(side, pos) != nil {
		return Speaker{}
	}
	return s.speakers[side][pos.index()]
}

// Total is the sum of a side's four scores, Missing if any of them is.
func (s *Sheet) Total(side Side) Score {
	if !side.Valid() {
		return Missing
	}
	return Sum(s.scores[side][:]...)
}

// Winner returns the side with the strictly higher total. ok is false when
// either total is missing or the totals are level.
func (s *Sheet) Winner() (winner Side, ok bool) {
	return winnerOf(s.Total(Aff), s.Total(Neg))
}

// Validate checks that all eight scores and speakers are present and that
// each reply speaker gave a substantive speech.
func (s *Sheet) Validate() error {
	for _, side := range Sides {
		for _, pos := range Positions {
			if !s.scores[side][pos.index()].Valid() {
				return fmt.Errorf("%w: adjudicator %d has no score for %s %s",
					ErrIncompleteBallot, s.adjudicator.ID, side, pos.Name())
			}
		}
		if err := validateSpeakers(side, s.speakers[side]); err != nil {
			return err
		}
	}
	return nil
}

func validateSpeakers(side Side, speakers [NumPositions]Speaker) error {
	for _, pos := range Positions {
		if !speakers[pos.index()].Assigned() {
			return fmt.Errorf("%w: no speaker for %s %s", ErrIncompleteBallot, side, pos.Name())
		}
	}
	reply := speakers[Reply.index()]
	for _, pos := range Positions[:Reply.index()] {
		if speakers[pos.index()].ID == reply.ID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s reply speaker %d", ErrReplySpeaker, side, reply.ID)
}

func winnerOf(aff, neg Score) (Side, bool) {
	a, okA := aff.Float64()
	n, okN := neg.Float64()
	switch {
	case !okA || !okN:
		return 0, false
	case a > n:
		return Aff, true
	case n > a:
		return Neg, true
	default:
		return 0, false
	}
}
