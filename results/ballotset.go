// Package results computes debate results from adjudicator score sheets:
// per-adjudicator totals and winners, and the majority decision of the panel.
package results

import (
	"context"
	"fmt"
)

type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Debate is the read-only context a ballot is scored against.
type Debate struct {
	ID    int
	Teams [2]Team // indexed by Side
	Panel []Adjudicator
}

// Store persists a validated ballot. Implementations must write the whole
// ballot, including its confirmed flag, atomically.
type Store interface {
	SaveBallot(ctx context.Context, b *BallotSet) error
}

// BallotSet holds every scoring adjudicator's sheet for one ballot submission.
type BallotSet struct {
	SubmissionID int

	debate    Debate
	sheets    []*Sheet
	byAdj     map[int]*Sheet
	speakers  [2][NumPositions]Speaker
	confirmed bool
	locked    bool
}

// New builds an empty draft ballot for the debate. Trainees on the panel get no sheet.
func New(debate Debate) (*BallotSet, error) {
	b := &BallotSet{
		debate: debate,
		byAdj:  make(map[int]*Sheet, len(debate.Panel)),
	}
	for _, adj := range debate.Panel {
		if !adj.Role.Scores() {
			continue
		}
		if _, dup := b.byAdj[adj.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateMember, adj.ID)
		}
		sheet := NewSheet(adj)
		b.sheets = append(b.sheets, sheet)
		b.byAdj[adj.ID] = sheet
	}
	if len(b.sheets) == 0 {
		return nil, fmt.Errorf("%w: debate %d", ErrEmptyPanel, debate.ID)
	}
	return b, nil
}

func (b *BallotSet) Debate() Debate { return b.debate }

func (b *BallotSet) Team(side Side) Team {
	if !side.Valid() {
		return Team{}
	}
	return b.debate.Teams[side]
}

// SideOf resolves a team in this debate to the side it speaks on.
func (b *BallotSet) SideOf(teamID int) (Side, error) {
	for _, side := range Sides {
		if b.debate.Teams[side].ID == teamID {
			return side, nil
		}
	}
	return 0, fmt.Errorf("%w: team %d, debate %d", ErrTeamNotInDebate, teamID, b.debate.ID)
}

// Sheets returns the scoring adjudicators' sheets in panel order.
func (b *BallotSet) Sheets() []*Sheet {
	out := make([]*Sheet, len(b.sheets))
	copy(out, b.sheets)
	return out
}

func (b *BallotSet) Sheet(adjudicatorID int) (*Sheet, bool) {
	s, ok := b.byAdj[adjudicatorID]
	return s, ok
}

func (b *BallotSet) SetScore(adjudicatorID int, side Side, pos Position, score Score) error {
	if b.locked {
		return ErrBallotConfirmed
	}
	sheet, ok := b.byAdj[adjudicatorID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownAdjudicator, adjudicatorID)
	}
	return sheet.SetScore(side, pos, score)
}

// SetSpeaker assigns a speaker to a slot on every sheet; speaker order belongs
// to the ballot rather than to a single adjudicator.
func (b *BallotSet) SetSpeaker(side Side, pos Position, speaker Speaker) error {
	if b.locked {
		return ErrBallotConfirmed
	}
	if err := checkSlot(side, pos); err != nil {
		return err
	}
	b.speakers[side][pos.index()] = speaker
	for _, sheet := range b.sheets {
		if err := sheet.SetSpeaker(side, pos, speaker); err != nil {
			return err
		}
	}
	return nil
}

func (b *BallotSet) Speaker(side Side, pos Position) Speaker {
	if checkSlot(side, pos) != nil {
		return Speaker{}
	}
	return b.speakers[side][pos.index()]
}

// Score returns Missing if the adjudicator has no sheet on this ballot.
func (b *BallotSet) Score(adjudicatorID int, side Side, pos Position) Score {
	sheet, ok := b.byAdj[adjudicatorID]
	if !ok {
		return Missing
	}
	return sheet.Score(side, pos)
}

// Votes counts the sheets won by each side. Sheets without a winner count for neither.
func (b *BallotSet) Votes() (aff, neg int) {
	for _, sheet := range b.sheets {
		if w, ok := sheet.Winner(); ok {
			if w == Aff {
				aff++
			} else {
				neg++
			}
		}
	}
	return aff, neg
}

// MajorityAdjudicators returns the sheets that agree with the panel's
// majority. When a sheet has no winner or the votes are level there is no
// majority to agree with, and every scoring sheet is returned.
func (b *BallotSet) MajorityAdjudicators() []*Sheet {
	aff, neg := b.Votes()
	if aff+neg != len(b.sheets) || aff == neg {
		return b.Sheets()
	}
	majority := Aff
	if neg > aff {
		majority = Neg
	}
	out := make([]*Sheet, 0, len(b.sheets))
	for _, sheet := range b.sheets {
		if w, _ := sheet.Winner(); w == majority {
			out = append(out, sheet)
		}
	}
	return out
}

// AvgScore is the majority score for a slot: the mean over the majority
// adjudicators, Missing if any of them left it unset.
func (b *BallotSet) AvgScore(side Side, pos Position) Score {
	return meanScore(b.MajorityAdjudicators(), side, pos)
}

// PanelAvgScore is the mean score for a slot over every scoring adjudicator.
func (b *BallotSet) PanelAvgScore(side Side, pos Position) Score {
	return meanScore(b.sheets, side, pos)
}

// Total is the majority total for a side: the mean of the majority
// adjudicators' own totals.
func (b *BallotSet) Total(side Side) Score {
	majority := b.MajorityAdjudicators()
	totals := make([]Score, len(majority))
	for i, sheet := range majority {
		totals[i] = sheet.Total(side)
	}
	return Mean(totals)
}

// Winner is the side with the higher majority total; ok is false when a
// total is missing or the totals are level.
func (b *BallotSet) Winner() (winner Side, ok bool) {
	return winnerOf(b.Total(Aff), b.Total(Neg))
}

// Margin is the side's majority total minus its opponent's.
func (b *BallotSet) Margin(side Side) Score {
	if !side.Valid() {
		return Missing
	}
	return b.Total(side).Sub(b.Total(side.Opposite()))
}

// Points awards 1 to the winning side and 0 to the loser; ok is false without a winner.
func (b *BallotSet) Points(side Side) (points int, ok bool) {
	w, ok := b.Winner()
	if !ok {
		return 0, false
	}
	if w == side {
		return 1, true
	}
	return 0, true
}

// Validate checks every sheet for missing scores and the ballot's speaker order.
func (b *BallotSet) Validate() error {
	for _, side := range Sides {
		if err := validateSpeakers(side, b.speakers[side]); err != nil {
			return err
		}
	}
	for _, sheet := range b.sheets {
		if err := sheet.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (b *BallotSet) Confirmed() bool { return b.confirmed }

// SetConfirmed marks whether Save should record the ballot as the debate's result.
func (b *BallotSet) SetConfirmed(confirmed bool) error {
	if b.locked {
		return ErrBallotConfirmed
	}
	b.confirmed = confirmed
	return nil
}

// Lock freezes a confirmed ballot loaded from storage.
func (b *BallotSet) Lock() {
	if b.confirmed {
		b.locked = true
	}
}

// Save validates the ballot and hands it to the store. An incomplete ballot
// is never passed on. A saved confirmed ballot can no longer be changed.
func (b *BallotSet) Save(ctx context.Context, store Store) error {
	if b.locked {
		return ErrBallotConfirmed
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if err := store.SaveBallot(ctx, b); err != nil {
		return err
	}
	b.Lock()
	return nil
}

func meanScore(sheets []*Sheet, side Side, pos Position) Score {
	if checkSlot(side, pos) != nil {
		return Missing
	}
	scores := make([]Score, len(sheets))
	for i, sheet := range sheets {
		scores[i] = sheet.Score(side, pos)
	}
	return Mean(scores)
}
