package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/debate-tab/export"
	"github.com/Dosada05/debate-tab/live"
	"github.com/Dosada05/debate-tab/metrics"
	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/repositories"
	"github.com/Dosada05/debate-tab/results"
	"github.com/Dosada05/debate-tab/storage"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SubmitBallotInput is a complete ballot as entered by the tab room or an adjudicator.
type SubmitBallotInput struct {
	SubmitterType models.SubmitterType `json:"submitter_type" validate:"omitempty,oneof=tabroom public"`
	Confirmed     bool                 `json:"confirmed"`
	Speakers      []SpeakerInput       `json:"speakers" validate:"dive"`
	Sheets        []SheetInput         `json:"sheets" validate:"dive"`
}

// SpeakerInput puts a speaker in a slot. The slot's side is given directly
// or through the team speaking on it.
type SpeakerInput struct {
	Side      string `json:"side,omitempty" validate:"required_without=TeamID"`
	TeamID    int    `json:"team_id,omitempty"`
	Position  int    `json:"position" validate:"required,min=1,max=4"`
	SpeakerID int    `json:"speaker_id" validate:"required,gt=0"`
}

type SheetInput struct {
	AdjudicatorID int          `json:"adjudicator_id" validate:"required,gt=0"`
	Scores        []ScoreInput `json:"scores" validate:"dive"`
}

// ScoreInput is one adjudicator's score for a slot. A null score leaves the slot unset.
type ScoreInput struct {
	Side     string   `json:"side,omitempty" validate:"required_without=TeamID"`
	TeamID   int      `json:"team_id,omitempty"`
	Position int      `json:"position" validate:"required,min=1,max=4"`
	Score    *float64 `json:"score"`
}

type BallotView struct {
	Submission *models.BallotSubmission `json:"submission"`
	Result     results.Result           `json:"result"`
}

type BallotExport struct {
	Filename    string
	ContentType string
	Data        []byte
}

type BallotService interface {
	SubmitBallot(ctx context.Context, debateID int, input SubmitBallotInput) (*BallotView, error)
	ConfirmBallot(ctx context.Context, ballotID int) (*BallotView, error)
	GetBallot(ctx context.Context, ballotID int) (*BallotView, error)
	GetDebateResult(ctx context.Context, debateID int) (*BallotView, error)
	ListDebateBallots(ctx context.Context, debateID int) ([]*models.BallotSubmission, error)
	ExportBallot(ctx context.Context, ballotID int) (*BallotExport, error)
}

// ResultPublisher delivers ballot events to clients following a debate.
type ResultPublisher interface {
	BroadcastToRoom(roomID string, message interface{})
}

type ballotService struct {
	db         *sqlx.DB
	debateRepo repositories.DebateRepository
	ballotRepo repositories.BallotRepository
	scoreRepo  repositories.ScoreRepository
	publisher  ResultPublisher
	archive    storage.FileUploader
	metrics    *metrics.Metrics
	logger     *slog.Logger
	validate   *validator.Validate
	tracer     trace.Tracer
	now        func() time.Time
}

// NewBallotService wires the ballot workflow. publisher and archive may be nil.
func NewBallotService(
	db *sqlx.DB,
	debateRepo repositories.DebateRepository,
	ballotRepo repositories.BallotRepository,
	scoreRepo repositories.ScoreRepository,
	publisher ResultPublisher,
	archive storage.FileUploader,
	m *metrics.Metrics,
	logger *slog.Logger,
) BallotService {
	return &ballotService{
		db:         db,
		debateRepo: debateRepo,
		ballotRepo: ballotRepo,
		scoreRepo:  scoreRepo,
		publisher:  publisher,
		archive:    archive,
		metrics:    m,
		logger:     logger,
		validate:   validator.New(),
		tracer:     otel.Tracer("github.com/Dosada05/debate-tab/services"),
		now:        time.Now,
	}
}

func (s *ballotService) SubmitBallot(ctx context.Context, debateID int, input SubmitBallotInput) (*BallotView, error) {
	ctx, span := s.tracer.Start(ctx, "BallotService.SubmitBallot",
		trace.WithAttributes(
			attribute.Int("debate.id", debateID),
			attribute.Bool("ballot.confirmed", input.Confirmed),
		),
	)
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		s.metrics.BallotRejected("invalid_input")
		return nil, validationError(err)
	}
	if input.SubmitterType == "" {
		input.SubmitterType = models.SubmitterTabroom
	}

	dc, err := loadDebateContext(ctx, s.debateRepo, debateID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	ballot, err := results.New(dc.debate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if err := applyInput(ballot, dc, input); err != nil {
		s.metrics.BallotRejected("invalid_input")
		return nil, err
	}
	if err := ballot.SetConfirmed(input.Confirmed); err != nil {
		return nil, err
	}

	sub := &models.BallotSubmission{
		DebateID:      debateID,
		SubmitterType: input.SubmitterType,
	}
	superseded, err := s.save(ctx, "submit", ballot, dc, sub)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.metrics.BallotSubmitted(string(sub.SubmitterType))
	s.logger.InfoContext(ctx, "Ballot submitted",
		slog.Int("debate_id", debateID),
		slog.Int("ballot_id", sub.ID),
		slog.Int("version", sub.Version),
		slog.Bool("confirmed", sub.Confirmed),
	)

	view := &BallotView{Submission: sub, Result: ballot.Result()}
	s.publish(ctx, view, superseded)
	return view, nil
}

func (s *ballotService) ConfirmBallot(ctx context.Context, ballotID int) (*BallotView, error) {
	ctx, span := s.tracer.Start(ctx, "BallotService.ConfirmBallot",
		trace.WithAttributes(attribute.Int("ballot.id", ballotID)))
	defer span.End()

	sub, err := s.ballotRepo.GetByID(ctx, nil, ballotID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if sub.Confirmed {
		return nil, fmt.Errorf("%w: ballot %d", ErrBallotAlreadyConfirmed, ballotID)
	}

	dc, ballot, err := s.load(ctx, sub)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := ballot.SetConfirmed(true); err != nil {
		return nil, err
	}
	superseded, err := s.save(ctx, "confirm", ballot, dc, sub)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Ballot confirmed", slog.Int("debate_id", sub.DebateID), slog.Int("ballot_id", sub.ID))
	view := &BallotView{Submission: sub, Result: ballot.Result()}
	s.publish(ctx, view, superseded)
	return view, nil
}

func (s *ballotService) GetBallot(ctx context.Context, ballotID int) (*BallotView, error) {
	sub, err := s.ballotRepo.GetByID(ctx, nil, ballotID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	_, ballot, err := s.load(ctx, sub)
	if err != nil {
		return nil, err
	}
	return &BallotView{Submission: sub, Result: ballot.Result()}, nil
}

func (s *ballotService) GetDebateResult(ctx context.Context, debateID int) (*BallotView, error) {
	if _, err := s.debateRepo.GetByID(ctx, debateID); err != nil {
		return nil, handleRepositoryError(err)
	}
	sub, err := s.ballotRepo.GetConfirmedByDebate(ctx, nil, debateID)
	if err != nil {
		if errors.Is(err, repositories.ErrBallotNotFound) {
			return nil, fmt.Errorf("%w: debate %d", ErrNoConfirmedBallot, debateID)
		}
		return nil, err
	}
	_, ballot, err := s.load(ctx, sub)
	if err != nil {
		return nil, err
	}
	return &BallotView{Submission: sub, Result: ballot.Result()}, nil
}

func (s *ballotService) ListDebateBallots(ctx context.Context, debateID int) ([]*models.BallotSubmission, error) {
	if _, err := s.debateRepo.GetByID(ctx, debateID); err != nil {
		return nil, handleRepositoryError(err)
	}
	subs, err := s.ballotRepo.ListByDebate(ctx, nil, debateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ballots for debate %d: %w", debateID, err)
	}
	return subs, nil
}

func (s *ballotService) ExportBallot(ctx context.Context, ballotID int) (*BallotExport, error) {
	view, err := s.GetBallot(ctx, ballotID)
	if err != nil {
		return nil, err
	}
	data, err := export.Workbook(view.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to export ballot %d: %w", ballotID, err)
	}
	return &BallotExport{
		Filename:    fmt.Sprintf("debate-%d-ballot-v%d.xlsx", view.Submission.DebateID, view.Submission.Version),
		ContentType: export.ContentType,
		Data:        data,
	}, nil
}

func (s *ballotService) load(ctx context.Context, sub *models.BallotSubmission) (*debateContext, *results.BallotSet, error) {
	dc, err := loadDebateContext(ctx, s.debateRepo, sub.DebateID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.scoreRepo.ListForSubmission(ctx, nil, sub.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load scores for ballot %d: %w", sub.ID, err)
	}
	ballot, err := restoreBallot(sub, dc, rows)
	if err != nil {
		return nil, nil, err
	}
	return dc, ballot, nil
}

// save validates and persists the ballot in one transaction. Nothing is
// written when validation fails.
// When the ballot is confirmed it also returns the submission it replaces as
// the debate's result, if any.
func (s *ballotService) save(ctx context.Context, operation string, ballot *results.BallotSet, dc *debateContext, sub *models.BallotSubmission) (*models.BallotSubmission, error) {
	start := s.now()
	var superseded *models.BallotSubmission
	err := withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		if ballot.Confirmed() {
			prev, err := s.ballotRepo.GetConfirmedByDebate(ctx, tx, sub.DebateID)
			switch {
			case errors.Is(err, repositories.ErrBallotNotFound):
			case err != nil:
				return fmt.Errorf("failed to load confirmed ballot for debate %d: %w", sub.DebateID, err)
			case prev.ID != sub.ID:
				superseded = prev
			}
		}
		return ballot.Save(ctx, &sqlBallotStore{
			exec:       tx,
			ballotRepo: s.ballotRepo,
			scoreRepo:  s.scoreRepo,
			dc:         dc,
			sub:        sub,
			now:        start.UTC(),
		})
	})
	if err != nil {
		if errors.Is(err, results.ErrIncompleteBallot) || errors.Is(err, results.ErrReplySpeaker) {
			s.metrics.BallotRejected("incomplete")
			return nil, err
		}
		return nil, handleRepositoryError(err)
	}
	s.metrics.ObserveSave(operation, time.Since(start))
	if sub.Confirmed {
		s.metrics.BallotConfirmed()
	}
	return superseded, nil
}

// publish notifies followers of the debate and archives confirmed ballots,
// removing the archive of the confirmed ballot they replace. Failures are
// logged; the ballot is already committed.
func (s *ballotService) publish(ctx context.Context, view *BallotView, superseded *models.BallotSubmission) {
	sub := view.Submission
	msgType := live.MessageBallotSubmitted
	if sub.Confirmed {
		msgType = live.MessageBallotConfirmed
	}
	if s.publisher != nil {
		room := live.DebateRoom(sub.DebateID)
		s.publisher.BroadcastToRoom(room, live.Message{Type: msgType, Payload: view, RoomID: room})
	}

	if !sub.Confirmed || s.archive == nil {
		return
	}
	key := storage.BallotArchiveKey(sub.DebateID, sub.Version)
	res, err := storage.UploadJSON(ctx, s.archive, key, view)
	if err != nil {
		s.metrics.ArchiveFailed()
		s.logger.ErrorContext(ctx, "Failed to archive confirmed ballot",
			slog.Int("ballot_id", sub.ID), slog.String("key", key), slog.Any("error", err))
		return
	}
	s.logger.InfoContext(ctx, "Ballot archived", slog.Int("ballot_id", sub.ID), slog.String("location", res.Location))

	if superseded == nil {
		return
	}
	oldKey := storage.BallotArchiveKey(superseded.DebateID, superseded.Version)
	if err := s.archive.Delete(ctx, oldKey); err != nil {
		s.metrics.ArchiveFailed()
		s.logger.ErrorContext(ctx, "Failed to remove superseded ballot archive",
			slog.Int("ballot_id", superseded.ID), slog.String("key", oldKey), slog.Any("error", err))
	}
}

// applyInput copies speakers and scores from the request onto the ballot.
func applyInput(b *results.BallotSet, dc *debateContext, input SubmitBallotInput) error {
	for _, in := range input.Speakers {
		side, err := resolveSide(b, in.Side, in.TeamID)
		if err != nil {
			return err
		}
		sp, ok := dc.speakers[in.SpeakerID]
		if !ok || sp.TeamID != dc.teams[side].TeamID {
			return fmt.Errorf("%w: speaker %d, %s", ErrSpeakerNotInTeam, in.SpeakerID, side)
		}
		if err := b.SetSpeaker(side, results.Position(in.Position), results.Speaker{ID: sp.ID, Name: sp.Name}); err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
	}

	for _, sheet := range input.Sheets {
		if _, ok := b.Sheet(sheet.AdjudicatorID); !ok {
			return fmt.Errorf("%w: %d", ErrAdjudicatorNotOnPanel, sheet.AdjudicatorID)
		}
		for _, in := range sheet.Scores {
			side, err := resolveSide(b, in.Side, in.TeamID)
			if err != nil {
				return err
			}
			if err := b.SetScore(sheet.AdjudicatorID, side, results.Position(in.Position), results.ScoreFromPtr(in.Score)); err != nil {
				return fmt.Errorf("%w: %v", ErrValidationFailed, err)
			}
		}
	}
	return nil
}

func resolveSide(b *results.BallotSet, sideName string, teamID int) (results.Side, error) {
	if sideName == "" {
		side, err := b.SideOf(teamID)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		return side, nil
	}
	side, err := results.ParseSide(sideName)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if teamID != 0 && b.Team(side).ID != teamID {
		return 0, fmt.Errorf("%w: team %d is not on the %s side", ErrValidationFailed, teamID, side)
	}
	return side, nil
}
