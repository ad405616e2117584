package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/results"
	"github.com/Dosada05/debate-tab/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBallotService struct {
	mock.Mock
}

func (m *mockBallotService) SubmitBallot(ctx context.Context, debateID int, input services.SubmitBallotInput) (*services.BallotView, error) {
	args := m.Called(ctx, debateID, input)
	view, _ := args.Get(0).(*services.BallotView)
	return view, args.Error(1)
}

func (m *mockBallotService) ConfirmBallot(ctx context.Context, ballotID int) (*services.BallotView, error) {
	args := m.Called(ctx, ballotID)
	view, _ := args.Get(0).(*services.BallotView)
	return view, args.Error(1)
}

func (m *mockBallotService) GetBallot(ctx context.Context, ballotID int) (*services.BallotView, error) {
	args := m.Called(ctx, ballotID)
	view, _ := args.Get(0).(*services.BallotView)
	return view, args.Error(1)
}

func (m *mockBallotService) GetDebateResult(ctx context.Context, debateID int) (*services.BallotView, error) {
	args := m.Called(ctx, debateID)
	view, _ := args.Get(0).(*services.BallotView)
	return view, args.Error(1)
}

func (m *mockBallotService) ListDebateBallots(ctx context.Context, debateID int) ([]*models.BallotSubmission, error) {
	args := m.Called(ctx, debateID)
	subs, _ := args.Get(0).([]*models.BallotSubmission)
	return subs, args.Error(1)
}

func (m *mockBallotService) ExportBallot(ctx context.Context, ballotID int) (*services.BallotExport, error) {
	args := m.Called(ctx, ballotID)
	exp, _ := args.Get(0).(*services.BallotExport)
	return exp, args.Error(1)
}

func newTestRouter(svc services.BallotService) http.Handler {
	h := NewBallotHandler(svc)
	r := chi.NewRouter()
	r.Post("/debates/{debateID}/ballots", h.SubmitBallot)
	r.Get("/debates/{debateID}/ballots", h.ListDebateBallots)
	r.Get("/debates/{debateID}/result", h.GetDebateResult)
	r.Get("/ballots/{ballotID}", h.GetBallot)
	r.Post("/ballots/{ballotID}/confirm", h.ConfirmBallot)
	r.Get("/ballots/{ballotID}/export", h.ExportBallot)
	return r
}

func sampleView(id int, confirmed bool) *services.BallotView {
	aff := results.Aff
	return &services.BallotView{
		Submission: &models.BallotSubmission{ID: id, DebateID: 5, Version: 1, SubmitterType: models.SubmitterTabroom, Confirmed: confirmed},
		Result: results.Result{
			DebateID:     5,
			SubmissionID: id,
			Confirmed:    confirmed,
			Aff:          results.SideResult{Team: results.Team{ID: 1, Name: "Alpha"}, Total: results.NewScore(262.5)},
			Neg:          results.SideResult{Team: results.Team{ID: 2, Name: "Bravo"}, Total: results.Missing},
			Winner:       &aff,
		},
	}
}

func TestSubmitBallotHandler(t *testing.T) {
	svc := new(mockBallotService)
	router := newTestRouter(svc)

	body := `{
		"confirmed": true,
		"speakers": [{"side": "aff", "position": 1, "speaker_id": 101}],
		"sheets": [{"adjudicator_id": 1, "scores": [{"team_id": 2, "position": 4, "score": 37.5}]}]
	}`
	score := 37.5
	want := services.SubmitBallotInput{
		Confirmed: true,
		Speakers:  []services.SpeakerInput{{Side: "aff", Position: 1, SpeakerID: 101}},
		Sheets: []services.SheetInput{{AdjudicatorID: 1, Scores: []services.ScoreInput{
			{TeamID: 2, Position: 4, Score: &score},
		}}},
	}
	svc.On("SubmitBallot", mock.Anything, 5, want).Return(sampleView(9, true), nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debates/5/ballots", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/ballots/9", rec.Header().Get("Location"))

	var resp struct {
		Ballot struct {
			Submission models.BallotSubmission `json:"submission"`
			Result     struct {
				Winner string `json:"winner"`
				Aff    struct {
					Total *float64 `json:"total"`
				} `json:"aff"`
				Neg struct {
					Total *float64 `json:"total"`
				} `json:"neg"`
			} `json:"result"`
		} `json:"ballot"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 9, resp.Ballot.Submission.ID)
	assert.Equal(t, "aff", resp.Ballot.Result.Winner)
	require.NotNil(t, resp.Ballot.Result.Aff.Total)
	assert.Equal(t, 262.5, *resp.Ballot.Result.Aff.Total)
	assert.Nil(t, resp.Ballot.Result.Neg.Total, "missing totals serialise as null")
	svc.AssertExpectations(t)
}

func TestSubmitBallotHandlerBadRequests(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed json", "/debates/5/ballots", `{"sheets": [`},
		{"unknown field", "/debates/5/ballots", `{"winner": "aff"}`},
		{"empty body", "/debates/5/ballots", ``},
		{"bad debate id", "/debates/abc/ballots", `{}`},
		{"non-positive debate id", "/debates/0/ballots", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockBallotService)
			rec := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			svc.AssertNotCalled(t, "SubmitBallot", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"incomplete ballot", fmt.Errorf("%w: no speaker for neg Reply", results.ErrIncompleteBallot), http.StatusUnprocessableEntity},
		{"reply speaker", results.ErrReplySpeaker, http.StatusUnprocessableEntity},
		{"debate missing", services.ErrDebateNotFound, http.StatusNotFound},
		{"no confirmed ballot", services.ErrNoConfirmedBallot, http.StatusNotFound},
		{"already confirmed", services.ErrBallotAlreadyConfirmed, http.StatusConflict},
		{"confirm race", services.ErrBallotConfirmConflict, http.StatusConflict},
		{"version race", services.ErrBallotVersionConflict, http.StatusConflict},
		{"locked ballot", results.ErrBallotConfirmed, http.StatusConflict},
		{"speaker not in team", services.ErrSpeakerNotInTeam, http.StatusBadRequest},
		{"validation", services.ErrValidationFailed, http.StatusBadRequest},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockBallotService)
			svc.On("GetDebateResult", mock.Anything, 5).Return(nil, tt.err)

			rec := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debates/5/result", nil))

			assert.Equal(t, tt.want, rec.Code)
			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp, "error")
		})
	}
}

func TestBallotReadHandlers(t *testing.T) {
	svc := new(mockBallotService)
	svc.On("GetBallot", mock.Anything, 9).Return(sampleView(9, false), nil)
	svc.On("ConfirmBallot", mock.Anything, 9).Return(sampleView(9, true), nil)
	svc.On("ListDebateBallots", mock.Anything, 5).Return([]*models.BallotSubmission{
		{ID: 8, DebateID: 5, Version: 1},
		{ID: 9, DebateID: 5, Version: 2, Confirmed: true},
	}, nil)
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ballots/9", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"submission_id": 9`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ballots/9/confirm", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"confirmed": true`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debates/5/ballots", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Ballots []models.BallotSubmission `json:"ballots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Ballots, 2)
	assert.True(t, list.Ballots[1].Confirmed)

	svc.AssertExpectations(t)
}

func TestExportBallotHandler(t *testing.T) {
	svc := new(mockBallotService)
	svc.On("ExportBallot", mock.Anything, 9).Return(&services.BallotExport{
		Filename:    "debate-5-ballot-v1.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        []byte("PK\x03\x04"),
	}, nil)
	svc.On("ExportBallot", mock.Anything, 10).Return(nil, services.ErrBallotNotFound)
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ballots/9/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="debate-5-ballot-v1.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
	assert.Equal(t, []byte("PK\x03\x04"), rec.Body.Bytes())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ballots/10/export", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestExportBallotHandlerLogsWriteFailure(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	svc := new(mockBallotService)
	svc.On("ExportBallot", mock.Anything, 9).Return(&services.BallotExport{
		Filename:    "debate-5-ballot-v1.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        []byte("PK\x03\x04"),
	}, nil)

	w := brokenWriter{httptest.NewRecorder()}
	newTestRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ballots/9/export", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logs.String(), "Failed to write ballot export")
	assert.Contains(t, logs.String(), "ballot_id=9")
	assert.Contains(t, logs.String(), "connection reset")
}
