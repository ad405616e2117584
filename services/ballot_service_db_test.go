package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/Dosada05/debate-tab/live"
	"github.com/Dosada05/debate-tab/metrics"
	"github.com/Dosada05/debate-tab/repositories"
	"github.com/Dosada05/debate-tab/results"
	"github.com/Dosada05/debate-tab/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureInput(f testutil.Fixture, confirmed bool) SubmitBallotInput {
	input := SubmitBallotInput{Confirmed: confirmed}
	for pos := 1; pos <= 4; pos++ {
		idx := pos - 1
		if pos == 4 {
			idx = 0
		}
		input.Speakers = append(input.Speakers,
			SpeakerInput{Side: "aff", Position: pos, SpeakerID: f.AffSpeakerIDs[idx]},
			SpeakerInput{TeamID: f.NegTeamID, Position: pos, SpeakerID: f.NegSpeakerIDs[idx]},
		)
	}
	for i, adj := range f.AdjudicatorIDs[:3] {
		sheet := SheetInput{AdjudicatorID: adj}
		aff, neg := 75.0, 74.0
		if i == 2 {
			aff, neg = 73, 76
		}
		for pos := 1; pos <= 4; pos++ {
			a, n := aff, neg
			if pos == 4 {
				a, n = a/2, n/2
			}
			sheet.Scores = append(sheet.Scores,
				ScoreInput{Side: "aff", Position: pos, Score: fptr(a)},
				ScoreInput{Side: "neg", Position: pos, Score: fptr(n)},
			)
		}
		input.Sheets = append(input.Sheets, sheet)
	}
	return input
}

func TestBallotServiceWorkflow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.SeedDebate(t, db)
	ctx := context.Background()

	pub := &recordingPublisher{}
	archive := &memoryArchive{}
	svc := NewBallotService(db,
		repositories.NewPostgresDebateRepository(db),
		repositories.NewPostgresBallotRepository(db),
		repositories.NewPostgresScoreRepository(db),
		pub, archive,
		metrics.New(prometheus.NewRegistry()),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	incomplete := fixtureInput(f, true)
	incomplete.Sheets[1].Scores[5].Score = nil
	_, err := svc.SubmitBallot(ctx, f.DebateID, incomplete)
	assert.ErrorIs(t, err, results.ErrIncompleteBallot)

	subs, err := svc.ListDebateBallots(ctx, f.DebateID)
	require.NoError(t, err)
	assert.Empty(t, subs, "an incomplete ballot writes nothing")

	first, err := svc.SubmitBallot(ctx, f.DebateID, fixtureInput(f, false))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Submission.Version)
	assert.False(t, first.Submission.Confirmed)
	require.NotNil(t, first.Result.Winner)
	assert.Equal(t, results.Aff, *first.Result.Winner)
	assert.Empty(t, archive.keys, "provisional ballots are not archived")

	_, err = svc.GetDebateResult(ctx, f.DebateID)
	assert.ErrorIs(t, err, ErrNoConfirmedBallot)

	confirmed, err := svc.ConfirmBallot(ctx, first.Submission.ID)
	require.NoError(t, err)
	assert.True(t, confirmed.Submission.Confirmed)
	assert.Equal(t, first.Result.Aff.Total, confirmed.Result.Aff.Total)
	assert.Len(t, archive.keys, 1)

	_, err = svc.ConfirmBallot(ctx, first.Submission.ID)
	assert.ErrorIs(t, err, ErrBallotAlreadyConfirmed)

	second, err := svc.SubmitBallot(ctx, f.DebateID, fixtureInput(f, true))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Submission.Version)

	result, err := svc.GetDebateResult(ctx, f.DebateID)
	require.NoError(t, err)
	assert.Equal(t, second.Submission.ID, result.Submission.ID)
	assert.True(t, result.Result.Confirmed)
	assert.True(t, result.Result.Aff.Total.Equal(results.NewScore(75*3+37.5)))

	assert.Equal(t, []string{
		fmt.Sprintf("ballots/debate-%d/v1.json", f.DebateID),
		fmt.Sprintf("ballots/debate-%d/v2.json", f.DebateID),
	}, archive.keys)
	assert.Equal(t, []string{fmt.Sprintf("ballots/debate-%d/v1.json", f.DebateID)}, archive.deleted,
		"the replaced confirmed version is removed from the archive")

	previous, err := svc.GetBallot(ctx, first.Submission.ID)
	require.NoError(t, err)
	assert.False(t, previous.Submission.Confirmed, "confirming a new version supersedes the old one")

	exported, err := svc.ExportBallot(ctx, second.Submission.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("debate-%d-ballot-v2.xlsx", f.DebateID), exported.Filename)
	assert.NotEmpty(t, exported.Data)

	_, err = svc.GetBallot(ctx, second.Submission.ID+100)
	assert.ErrorIs(t, err, ErrBallotNotFound)
	_, err = svc.ListDebateBallots(ctx, f.DebateID+100)
	assert.ErrorIs(t, err, ErrDebateNotFound)

	require.Len(t, pub.messages, 3)
	room := live.DebateRoom(f.DebateID)
	assert.Equal(t, []string{room, room, room}, pub.rooms)
	assert.Equal(t, live.MessageBallotSubmitted, pub.messages[0].(live.Message).Type)
	assert.Equal(t, live.MessageBallotConfirmed, pub.messages[1].(live.Message).Type)
	assert.Equal(t, live.MessageBallotConfirmed, pub.messages[2].(live.Message).Type)
}

func TestBallotServiceArchiveFailureKeepsBallot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	f := testutil.SeedDebate(t, db)
	ctx := context.Background()

	svc := NewBallotService(db,
		repositories.NewPostgresDebateRepository(db),
		repositories.NewPostgresBallotRepository(db),
		repositories.NewPostgresScoreRepository(db),
		nil, &memoryArchive{fail: true},
		metrics.New(prometheus.NewRegistry()),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	view, err := svc.SubmitBallot(ctx, f.DebateID, fixtureInput(f, true))
	require.NoError(t, err)

	result, err := svc.GetDebateResult(ctx, f.DebateID)
	require.NoError(t, err)
	assert.Equal(t, view.Submission.ID, result.Submission.ID)
}
