package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dosada05/debate-tab/services"
)

type BallotHandler struct {
	ballotService services.BallotService
}

func NewBallotHandler(ballotService services.BallotService) *BallotHandler {
	return &BallotHandler{ballotService: ballotService}
}

func (h *BallotHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	debateID, err := getIDFromURL(r, "debateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubmitBallotInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.ballotService.SubmitBallot(r.Context(), debateID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/ballots/"+strconv.Itoa(view.Submission.ID))
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"ballot": view}, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BallotHandler) ListDebateBallots(w http.ResponseWriter, r *http.Request) {
	debateID, err := getIDFromURL(r, "debateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ballots, err := h.ballotService.ListDebateBallots(r.Context(), debateID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ballots": ballots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BallotHandler) GetDebateResult(w http.ResponseWriter, r *http.Request) {
	debateID, err := getIDFromURL(r, "debateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.ballotService.GetDebateResult(r.Context(), debateID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ballot": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BallotHandler) GetBallot(w http.ResponseWriter, r *http.Request) {
	ballotID, err := getIDFromURL(r, "ballotID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.ballotService.GetBallot(r.Context(), ballotID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ballot": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BallotHandler) ConfirmBallot(w http.ResponseWriter, r *http.Request) {
	ballotID, err := getIDFromURL(r, "ballotID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.ballotService.ConfirmBallot(r.Context(), ballotID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ballot": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ExportBallot streams the ballot as an xlsx attachment.
func (h *BallotHandler) ExportBallot(w http.ResponseWriter, r *http.Request) {
	ballotID, err := getIDFromURL(r, "ballotID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	exp, err := h.ballotService.ExportBallot(r.Context(), ballotID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+exp.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(exp.Data); err != nil {
		// Headers are already sent; nothing more can reach the client.
		slog.ErrorContext(r.Context(), "Failed to write ballot export",
			slog.Int("ballot_id", ballotID), slog.Any("error", err))
	}
}
