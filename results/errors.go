package results

import "errors"

var (
	ErrInvalidSide        = errors.New("invalid side")
	ErrInvalidPosition    = errors.New("invalid speaker position")
	ErrUnknownAdjudicator = errors.New("adjudicator is not scoring this debate")
	ErrTeamNotInDebate    = errors.New("team is not in this debate")
	ErrEmptyPanel         = errors.New("debate has no scoring adjudicators")
	ErrDuplicateMember    = errors.New("adjudicator appears on the panel more than once")

	// ErrIncompleteBallot is returned when a ballot missing a score or speaker is saved.
	ErrIncompleteBallot = errors.New("ballot is incomplete")
	ErrReplySpeaker     = errors.New("reply speaker must be one of the first three speakers")
	ErrBallotConfirmed  = errors.New("ballot is confirmed and cannot be changed")
)
