package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/debate-tab/models"
	"github.com/jmoiron/sqlx"
)

// ScoreRepository stores the score rows written when a ballot is saved.
type ScoreRepository interface {
	ReplaceForSubmission(ctx context.Context, exec SQLExecutor, submissionID int, rows ScoreRows) error
	ListForSubmission(ctx context.Context, exec SQLExecutor, submissionID int) (*ScoreRows, error)
}

// ScoreRows are all score records belonging to one ballot submission.
type ScoreRows struct {
	ByAdjudicator []models.SpeakerScoreByAdj
	Speakers      []models.SpeakerScore
	Teams         []models.TeamScore
}

type postgresScoreRepository struct {
	db *sqlx.DB
}

func NewPostgresScoreRepository(db *sqlx.DB) ScoreRepository {
	return &postgresScoreRepository{db: db}
}

func (r *postgresScoreRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresScoreRepository) ReplaceForSubmission(ctx context.Context, exec SQLExecutor, submissionID int, rows ScoreRows) error {
	executor := r.getExecutor(exec)

	for _, table := range []string{"speaker_scores_by_adj", "speaker_scores", "team_scores"} {
		if _, err := executor.ExecContext(ctx, `DELETE FROM `+table+` WHERE ballot_submission_id = $1`, submissionID); err != nil {
			return fmt.Errorf("failed to clear %s for submission %d: %w", table, submissionID, err)
		}
	}

	if len(rows.ByAdjudicator) > 0 {
		query := `
			INSERT INTO speaker_scores_by_adj (ballot_submission_id, debate_adjudicator_id, debate_team_id, position, score)
			VALUES (:ballot_submission_id, :debate_adjudicator_id, :debate_team_id, :position, :score)`
		if _, err := sqlx.NamedExecContext(ctx, executor, query, rows.ByAdjudicator); err != nil {
			return fmt.Errorf("failed to insert adjudicator scores for submission %d: %w", submissionID, err)
		}
	}
	if len(rows.Speakers) > 0 {
		query := `
			INSERT INTO speaker_scores (ballot_submission_id, debate_team_id, speaker_id, position, score)
			VALUES (:ballot_submission_id, :debate_team_id, :speaker_id, :position, :score)`
		if _, err := sqlx.NamedExecContext(ctx, executor, query, rows.Speakers); err != nil {
			return fmt.Errorf("failed to insert speaker scores for submission %d: %w", submissionID, err)
		}
	}
	if len(rows.Teams) > 0 {
		query := `
			INSERT INTO team_scores (ballot_submission_id, debate_team_id, score, margin, points, win)
			VALUES (:ballot_submission_id, :debate_team_id, :score, :margin, :points, :win)`
		if _, err := sqlx.NamedExecContext(ctx, executor, query, rows.Teams); err != nil {
			return fmt.Errorf("failed to insert team scores for submission %d: %w", submissionID, err)
		}
	}
	return nil
}

func (r *postgresScoreRepository) ListForSubmission(ctx context.Context, exec SQLExecutor, submissionID int) (*ScoreRows, error) {
	executor := r.getExecutor(exec)
	rows := &ScoreRows{
		ByAdjudicator: make([]models.SpeakerScoreByAdj, 0),
		Speakers:      make([]models.SpeakerScore, 0),
		Teams:         make([]models.TeamScore, 0),
	}

	if err := sqlx.SelectContext(ctx, executor, &rows.ByAdjudicator, `
		SELECT ballot_submission_id, debate_adjudicator_id, debate_team_id, position, score
		FROM speaker_scores_by_adj
		WHERE ballot_submission_id = $1
		ORDER BY debate_adjudicator_id, debate_team_id, position`, submissionID); err != nil {
		return nil, fmt.Errorf("failed to list adjudicator scores for submission %d: %w", submissionID, err)
	}
	if err := sqlx.SelectContext(ctx, executor, &rows.Speakers, `
		SELECT ballot_submission_id, debate_team_id, speaker_id, position, score
		FROM speaker_scores
		WHERE ballot_submission_id = $1
		ORDER BY debate_team_id, position`, submissionID); err != nil {
		return nil, fmt.Errorf("failed to list speaker scores for submission %d: %w", submissionID, err)
	}
	if err := sqlx.SelectContext(ctx, executor, &rows.Teams, `
		SELECT ballot_submission_id, debate_team_id, score, margin, points, win
		FROM team_scores
		WHERE ballot_submission_id = $1
		ORDER BY debate_team_id`, submissionID); err != nil {
		return nil, fmt.Errorf("failed to list team scores for submission %d: %w", submissionID, err)
	}
	return rows, nil
}
