package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/debate-tab/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrDebateNotFound = errors.New("debate not found")

// DebateRepository reads the allocated debate context a ballot is scored against.
type DebateRepository interface {
	GetByID(ctx context.Context, id int) (*models.Debate, error)
	ListTeams(ctx context.Context, debateID int) ([]models.DebateTeam, error)
	ListSpeakers(ctx context.Context, teamIDs []int) ([]models.Speaker, error)
	ListAdjudicators(ctx context.Context, debateID int) ([]models.DebateAdjudicator, error)
}

type postgresDebateRepository struct {
	db *sqlx.DB
}

func NewPostgresDebateRepository(db *sqlx.DB) DebateRepository {
	return &postgresDebateRepository{db: db}
}

func (r *postgresDebateRepository) GetByID(ctx context.Context, id int) (*models.Debate, error) {
	query := `
		SELECT d.id, d.round_id, r.tournament_id, r.seq AS round_seq, d.venue, d.created_at
		FROM debates d
		JOIN rounds r ON r.id = d.round_id
		WHERE d.id = $1`

	var debate models.Debate
	if err := sqlx.GetContext(ctx, r.db, &debate, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDebateNotFound
		}
		return nil, err
	}
	return &debate, nil
}

func (r *postgresDebateRepository) ListTeams(ctx context.Context, debateID int) ([]models.DebateTeam, error) {
	query := `
		SELECT dt.id, dt.debate_id, dt.team_id, dt.position, t.reference AS team_name
		FROM debate_teams dt
		JOIN teams t ON t.id = dt.team_id
		WHERE dt.debate_id = $1
		ORDER BY dt.position ASC`

	teams := make([]models.DebateTeam, 0, 2)
	if err := sqlx.SelectContext(ctx, r.db, &teams, query, debateID); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresDebateRepository) ListSpeakers(ctx context.Context, teamIDs []int) ([]models.Speaker, error) {
	speakers := make([]models.Speaker, 0)
	if len(teamIDs) == 0 {
		return speakers, nil
	}
	ids := make([]int64, len(teamIDs))
	for i, id := range teamIDs {
		ids[i] = int64(id)
	}

	query := `
		SELECT id, team_id, name
		FROM speakers
		WHERE team_id = ANY($1)
		ORDER BY team_id ASC, id ASC`
	if err := sqlx.SelectContext(ctx, r.db, &speakers, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	return speakers, nil
}

// ListAdjudicators returns the panel with the chair first.
func (r *postgresDebateRepository) ListAdjudicators(ctx context.Context, debateID int) ([]models.DebateAdjudicator, error) {
	query := `
		SELECT da.id, da.debate_id, da.adjudicator_id, da.type, a.name AS adjudicator_name
		FROM debate_adjudicators da
		JOIN adjudicators a ON a.id = da.adjudicator_id
		WHERE da.debate_id = $1
		ORDER BY CASE da.type WHEN 'chair' THEN 0 WHEN 'panel' THEN 1 ELSE 2 END, da.id ASC`

	panel := make([]models.DebateAdjudicator, 0, 3)
	if err := sqlx.SelectContext(ctx, r.db, &panel, query, debateID); err != nil {
		return nil, err
	}
	return panel, nil
}
