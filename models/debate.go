package models

import "time"

type DebatePosition string

const (
	PositionAffirmative DebatePosition = "aff"
	PositionNegative    DebatePosition = "neg"
)

type DebateAdjudicatorType string

const (
	AdjudicatorChair   DebateAdjudicatorType = "chair"
	AdjudicatorPanel   DebateAdjudicatorType = "panel"
	AdjudicatorTrainee DebateAdjudicatorType = "trainee"
)

type Debate struct {
	ID           int       `json:"id" db:"id"`
	RoundID      int       `json:"round_id" db:"round_id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	RoundSeq     int       `json:"round_seq" db:"round_seq"`
	Venue        *string   `json:"venue,omitempty" db:"venue"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// DebateTeam places a team on one side of a debate.
type DebateTeam struct {
	ID       int            `json:"id" db:"id"`
	DebateID int            `json:"debate_id" db:"debate_id"`
	TeamID   int            `json:"team_id" db:"team_id"`
	Position DebatePosition `json:"position" db:"position"`
	TeamName string         `json:"team_name" db:"team_name"`
}

// DebateAdjudicator seats an adjudicator on a debate's panel.
type DebateAdjudicator struct {
	ID              int                   `json:"id" db:"id"`
	DebateID        int                   `json:"debate_id" db:"debate_id"`
	AdjudicatorID   int                   `json:"adjudicator_id" db:"adjudicator_id"`
	Type            DebateAdjudicatorType `json:"type" db:"type"`
	AdjudicatorName string                `json:"adjudicator_name" db:"adjudicator_name"`
}
