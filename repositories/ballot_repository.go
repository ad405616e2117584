package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Dosada05/debate-tab/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrBallotNotFound          = errors.New("ballot submission not found")
	ErrBallotDebateInvalid     = errors.New("ballot submission debate conflict or invalid")
	ErrBallotConfirmedConflict = errors.New("debate already has a confirmed ballot")
	ErrBallotVersionConflict   = errors.New("ballot submission version already exists")
)

const ballotColumns = `id, debate_id, version, submitter_type, confirmed, confirmed_at, created_at`

type BallotRepository interface {
	// Create inserts the submission with the next version number for its debate.
	Create(ctx context.Context, exec SQLExecutor, sub *models.BallotSubmission) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.BallotSubmission, error)
	GetConfirmedByDebate(ctx context.Context, exec SQLExecutor, debateID int) (*models.BallotSubmission, error)
	ListByDebate(ctx context.Context, exec SQLExecutor, debateID int) ([]*models.BallotSubmission, error)
	Confirm(ctx context.Context, exec SQLExecutor, id int, at time.Time) error
	// UnconfirmOthers clears the confirmed flag on every other submission for the debate.
	UnconfirmOthers(ctx context.Context, exec SQLExecutor, debateID, exceptID int) error
}

type postgresBallotRepository struct {
	db *sqlx.DB
}

func NewPostgresBallotRepository(db *sqlx.DB) BallotRepository {
	return &postgresBallotRepository{db: db}
}

func (r *postgresBallotRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresBallotRepository) Create(ctx context.Context, exec SQLExecutor, sub *models.BallotSubmission) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO ballot_submissions (debate_id, version, submitter_type, confirmed, confirmed_at)
		VALUES ($1, (SELECT COALESCE(MAX(version), 0) + 1 FROM ballot_submissions WHERE debate_id = $1), $2, $3, $4)
		RETURNING id, version, created_at`

	err := executor.QueryRowxContext(ctx, query,
		sub.DebateID,
		sub.SubmitterType,
		sub.Confirmed,
		sub.ConfirmedAt,
	).Scan(&sub.ID, &sub.Version, &sub.CreatedAt)

	return r.handleBallotError(err)
}

func (r *postgresBallotRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.BallotSubmission, error) {
	query := `SELECT ` + ballotColumns + ` FROM ballot_submissions WHERE id = $1`
	return r.getOne(ctx, r.getExecutor(exec), query, id)
}

func (r *postgresBallotRepository) GetConfirmedByDebate(ctx context.Context, exec SQLExecutor, debateID int) (*models.BallotSubmission, error) {
	query := `SELECT ` + ballotColumns + ` FROM ballot_submissions WHERE debate_id = $1 AND confirmed`
	return r.getOne(ctx, r.getExecutor(exec), query, debateID)
}

func (r *postgresBallotRepository) getOne(ctx context.Context, executor SQLExecutor, query string, arg int) (*models.BallotSubmission, error) {
	var sub models.BallotSubmission
	if err := sqlx.GetContext(ctx, executor, &sub, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBallotNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *postgresBallotRepository) ListByDebate(ctx context.Context, exec SQLExecutor, debateID int) ([]*models.BallotSubmission, error) {
	query := `SELECT ` + ballotColumns + ` FROM ballot_submissions WHERE debate_id = $1 ORDER BY version ASC`

	subs := make([]*models.BallotSubmission, 0)
	if err := sqlx.SelectContext(ctx, r.getExecutor(exec), &subs, query, debateID); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *postgresBallotRepository) Confirm(ctx context.Context, exec SQLExecutor, id int, at time.Time) error {
	query := `UPDATE ballot_submissions SET confirmed = TRUE, confirmed_at = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, at, id)
	if err != nil {
		return r.handleBallotError(err)
	}
	return checkAffectedRows(result, ErrBallotNotFound)
}

func (r *postgresBallotRepository) UnconfirmOthers(ctx context.Context, exec SQLExecutor, debateID, exceptID int) error {
	query := `
		UPDATE ballot_submissions
		SET confirmed = FALSE, confirmed_at = NULL
		WHERE debate_id = $1 AND id <> $2 AND confirmed`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, debateID, exceptID)
	return err
}

func (r *postgresBallotRepository) handleBallotError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503": // foreign_key_violation
			return ErrBallotDebateInvalid
		case "23505": // unique_violation
			switch pqErr.Constraint {
			case "ballot_submissions_one_confirmed":
				return ErrBallotConfirmedConflict
			case "ballot_submissions_debate_id_version_key":
				return ErrBallotVersionConflict
			}
		}
	}
	return err
}
