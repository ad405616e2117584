package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/debate-tab/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
)

// withTx runs fn in a transaction, committing when it returns nil and
// rolling back otherwise.
func withTx(ctx context.Context, db *sqlx.DB, logger *slog.Logger, fn func(tx *sqlx.Tx) error) (txErr error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.ErrorContext(ctx, "Rollback failed", slog.Any("error", rbErr), slog.Any("cause", txErr))
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	txErr = fn(tx)
	return txErr
}

// handleRepositoryError translates repository sentinels into service errors.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrDebateNotFound), errors.Is(err, repositories.ErrBallotDebateInvalid):
		return fmt.Errorf("%w: %v", ErrDebateNotFound, err)
	case errors.Is(err, repositories.ErrBallotNotFound):
		return fmt.Errorf("%w: %v", ErrBallotNotFound, err)
	case errors.Is(err, repositories.ErrBallotConfirmedConflict):
		return fmt.Errorf("%w: %v", ErrBallotConfirmConflict, err)
	case errors.Is(err, repositories.ErrBallotVersionConflict):
		return fmt.Errorf("%w: %v", ErrBallotVersionConflict, err)
	default:
		return err
	}
}

// validationError flattens validator errors into one ErrValidationFailed.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: field %s failed on '%s'", ErrValidationFailed, fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("%w: %v", ErrValidationFailed, err)
}
