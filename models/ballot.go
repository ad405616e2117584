package models

import "time"

type SubmitterType string

const (
	SubmitterTabroom SubmitterType = "tabroom"
	SubmitterPublic  SubmitterType = "public"
)

// BallotSubmission is one version of a debate's ballot. At most one
// submission per debate is confirmed.
type BallotSubmission struct {
	ID            int           `json:"id" db:"id"`
	DebateID      int           `json:"debate_id" db:"debate_id"`
	Version       int           `json:"version" db:"version"`
	SubmitterType SubmitterType `json:"submitter_type" db:"submitter_type"`
	Confirmed     bool          `json:"confirmed" db:"confirmed"`
	ConfirmedAt   *time.Time    `json:"confirmed_at,omitempty" db:"confirmed_at"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

type SpeakerScoreByAdj struct {
	BallotSubmissionID  int     `db:"ballot_submission_id"`
	DebateAdjudicatorID int     `db:"debate_adjudicator_id"`
	DebateTeamID        int     `db:"debate_team_id"`
	Position            int     `db:"position"`
	Score               float64 `db:"score"`
}

// SpeakerScore is the majority score for a speaker in a position.
type SpeakerScore struct {
	BallotSubmissionID int     `db:"ballot_submission_id"`
	DebateTeamID       int     `db:"debate_team_id"`
	SpeakerID          int     `db:"speaker_id"`
	Position           int     `db:"position"`
	Score              float64 `db:"score"`
}

type TeamScore struct {
	BallotSubmissionID int      `db:"ballot_submission_id"`
	DebateTeamID       int      `db:"debate_team_id"`
	Score              *float64 `db:"score"`
	Margin             *float64 `db:"margin"`
	Points             *int     `db:"points"`
	Win                *bool    `db:"win"`
}
