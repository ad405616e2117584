package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/repositories"
	"github.com/Dosada05/debate-tab/results"
	"golang.org/x/sync/errgroup"
)

// debateContext is everything a ballot for one debate is scored against,
// plus the lookups needed to move between domain ids and table rows.
type debateContext struct {
	debate   results.Debate
	teams    [2]models.DebateTeam             // indexed by results.Side
	speakers map[int]models.Speaker           // by speaker id
	panel    map[int]models.DebateAdjudicator // by adjudicator id
	adjByRow map[int]int                      // debate_adjudicators.id -> adjudicator id
}

func (dc *debateContext) sideOfDebateTeam(debateTeamID int) (results.Side, bool) {
	for _, side := range results.Sides {
		if dc.teams[side].ID == debateTeamID {
			return side, true
		}
	}
	return 0, false
}

func loadDebateContext(ctx context.Context, repo repositories.DebateRepository, debateID int) (*debateContext, error) {
	var (
		teams []models.DebateTeam
		panel []models.DebateAdjudicator
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := repo.GetByID(gCtx, debateID)
		return handleRepositoryError(err)
	})
	g.Go(func() error {
		t, err := repo.ListTeams(gCtx, debateID)
		if err != nil {
			return fmt.Errorf("failed to list teams for debate %d: %w", debateID, err)
		}
		teams = t
		return nil
	})
	g.Go(func() error {
		p, err := repo.ListAdjudicators(gCtx, debateID)
		if err != nil {
			return fmt.Errorf("failed to list adjudicators for debate %d: %w", debateID, err)
		}
		panel = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dc := &debateContext{
		speakers: make(map[int]models.Speaker),
		panel:    make(map[int]models.DebateAdjudicator, len(panel)),
		adjByRow: make(map[int]int, len(panel)),
	}
	dc.debate.ID = debateID

	var seen [2]bool
	for _, dt := range teams {
		side, err := results.ParseSide(string(dt.Position))
		if err != nil {
			return nil, fmt.Errorf("debate %d: team %d: %w", debateID, dt.TeamID, err)
		}
		dc.teams[side] = dt
		dc.debate.Teams[side] = results.Team{ID: dt.TeamID, Name: dt.TeamName}
		seen[side] = true
	}
	if !seen[results.Aff] || !seen[results.Neg] {
		return nil, fmt.Errorf("%w: debate %d does not have a team on each side", ErrValidationFailed, debateID)
	}

	teamIDs := []int{dc.teams[results.Aff].TeamID, dc.teams[results.Neg].TeamID}
	speakers, err := repo.ListSpeakers(ctx, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list speakers for debate %d: %w", debateID, err)
	}
	for _, sp := range speakers {
		dc.speakers[sp.ID] = sp
	}

	for _, da := range panel {
		dc.panel[da.AdjudicatorID] = da
		dc.adjByRow[da.ID] = da.AdjudicatorID
		dc.debate.Panel = append(dc.debate.Panel, results.Adjudicator{
			ID:   da.AdjudicatorID,
			Name: da.AdjudicatorName,
			Role: roleOf(da.Type),
		})
	}
	return dc, nil
}

func roleOf(t models.DebateAdjudicatorType) results.Role {
	switch t {
	case models.AdjudicatorChair:
		return results.RoleChair
	case models.AdjudicatorPanel:
		return results.RolePanelist
	default:
		return results.RoleTrainee
	}
}
