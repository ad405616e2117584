package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/repositories"
	"github.com/Dosada05/debate-tab/results"
)

// sqlBallotStore writes a ballot into the submission and score tables
// through one transaction.
type sqlBallotStore struct {
	exec       repositories.SQLExecutor
	ballotRepo repositories.BallotRepository
	scoreRepo  repositories.ScoreRepository
	dc         *debateContext
	sub        *models.BallotSubmission
	now        time.Time
}

func (s *sqlBallotStore) SaveBallot(ctx context.Context, b *results.BallotSet) error {
	debateID := s.dc.debate.ID

	switch {
	case s.sub.ID == 0:
		if b.Confirmed() {
			if err := s.ballotRepo.UnconfirmOthers(ctx, s.exec, debateID, 0); err != nil {
				return fmt.Errorf("failed to unconfirm previous ballots for debate %d: %w", debateID, err)
			}
			s.sub.Confirmed = true
			s.sub.ConfirmedAt = &s.now
		}
		if err := s.ballotRepo.Create(ctx, s.exec, s.sub); err != nil {
			return err
		}
	case b.Confirmed() && !s.sub.Confirmed:
		if err := s.ballotRepo.UnconfirmOthers(ctx, s.exec, debateID, s.sub.ID); err != nil {
			return fmt.Errorf("failed to unconfirm previous ballots for debate %d: %w", debateID, err)
		}
		if err := s.ballotRepo.Confirm(ctx, s.exec, s.sub.ID, s.now); err != nil {
			return err
		}
		s.sub.Confirmed = true
		s.sub.ConfirmedAt = &s.now
	}

	b.SubmissionID = s.sub.ID
	return s.scoreRepo.ReplaceForSubmission(ctx, s.exec, s.sub.ID, scoreRows(s.sub.ID, b, s.dc))
}

// scoreRows flattens a validated ballot into table rows: every adjudicator's
// scores, the majority score per speaker, and each team's result.
func scoreRows(submissionID int, b *results.BallotSet, dc *debateContext) repositories.ScoreRows {
	var rows repositories.ScoreRows

	for _, sheet := range b.Sheets() {
		adj := dc.panel[sheet.Adjudicator().ID]
		for _, side := range results.Sides {
			for _, pos := range results.Positions {
				v, ok := sheet.Score(side, pos).Float64()
				if !ok {
					continue
				}
				rows.ByAdjudicator = append(rows.ByAdjudicator, models.SpeakerScoreByAdj{
					BallotSubmissionID:  submissionID,
					DebateAdjudicatorID: adj.ID,
					DebateTeamID:        dc.teams[side].ID,
					Position:            int(pos),
					Score:               v,
				})
			}
		}
	}

	for _, side := range results.Sides {
		for _, pos := range results.Positions {
			speaker := b.Speaker(side, pos)
			v, ok := b.AvgScore(side, pos).Float64()
			if !ok || !speaker.Assigned() {
				continue
			}
			rows.Speakers = append(rows.Speakers, models.SpeakerScore{
				BallotSubmissionID: submissionID,
				DebateTeamID:       dc.teams[side].ID,
				SpeakerID:          speaker.ID,
				Position:           int(pos),
				Score:              v,
			})
		}

		ts := models.TeamScore{
			BallotSubmissionID: submissionID,
			DebateTeamID:       dc.teams[side].ID,
			Score:              b.Total(side).Ptr(),
			Margin:             b.Margin(side).Ptr(),
		}
		if points, ok := b.Points(side); ok {
			win := points == 1
			ts.Points = &points
			ts.Win = &win
		}
		rows.Teams = append(rows.Teams, ts)
	}
	return rows
}

// restoreBallot rebuilds a saved submission's ballot from its score rows.
// Confirmed ballots come back locked.
func restoreBallot(sub *models.BallotSubmission, dc *debateContext, rows *repositories.ScoreRows) (*results.BallotSet, error) {
	b, err := results.New(dc.debate)
	if err != nil {
		return nil, err
	}
	b.SubmissionID = sub.ID

	for _, row := range rows.Speakers {
		side, ok := dc.sideOfDebateTeam(row.DebateTeamID)
		if !ok {
			return nil, fmt.Errorf("submission %d: speaker score for unknown debate team %d", sub.ID, row.DebateTeamID)
		}
		sp := dc.speakers[row.SpeakerID]
		if err := b.SetSpeaker(side, results.Position(row.Position), results.Speaker{ID: row.SpeakerID, Name: sp.Name}); err != nil {
			return nil, fmt.Errorf("submission %d: %w", sub.ID, err)
		}
	}

	for _, row := range rows.ByAdjudicator {
		side, ok := dc.sideOfDebateTeam(row.DebateTeamID)
		if !ok {
			return nil, fmt.Errorf("submission %d: score for unknown debate team %d", sub.ID, row.DebateTeamID)
		}
		adjID, ok := dc.adjByRow[row.DebateAdjudicatorID]
		if !ok {
			return nil, fmt.Errorf("submission %d: score from adjudicator %d no longer on the panel", sub.ID, row.DebateAdjudicatorID)
		}
		if err := b.SetScore(adjID, side, results.Position(row.Position), results.NewScore(row.Score)); err != nil {
			return nil, fmt.Errorf("submission %d: %w", sub.ID, err)
		}
	}

	if err := b.SetConfirmed(sub.Confirmed); err != nil {
		return nil, err
	}
	b.Lock()
	return b, nil
}
