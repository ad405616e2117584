package services

import "errors"

var (
	ErrValidationFailed      = errors.New("validation failed")
	ErrSpeakerNotInTeam      = errors.New("speaker does not belong to the team on that side")
	ErrAdjudicatorNotOnPanel = errors.New("adjudicator is not a scoring member of the panel")

	ErrDebateNotFound    = errors.New("debate not found")
	ErrBallotNotFound    = errors.New("ballot submission not found")
	ErrNoConfirmedBallot = errors.New("debate has no confirmed ballot")

	ErrBallotAlreadyConfirmed = errors.New("ballot submission is already confirmed")
	ErrBallotConfirmConflict  = errors.New("another ballot for this debate was confirmed concurrently")
	ErrBallotVersionConflict  = errors.New("another ballot for this debate was submitted concurrently; retry")
)
