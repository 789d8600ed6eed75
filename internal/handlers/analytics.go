package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"slackmirror/internal/analytics"
	"slackmirror/internal/corpus"
)

type AnalyticsHandler struct {
	root     string
	pipeline *analytics.Pipeline
}

type AnalyticsResponse struct {
	Kind          analytics.Kind               `json:"kind"`
	Problems      []corpus.FileProblem         `json:"problems,omitempty"`
	Sentiments    []analytics.SentimentPoint   `json:"sentiments,omitempty"`
	Readabilities []analytics.ReadabilityPoint `json:"readabilities,omitempty"`
	Words         []analytics.WordCount        `json:"words,omitempty"`
	Times         []analytics.TimePoint        `json:"times,omitempty"`
	Relationships []analytics.Relationship     `json:"relationships,omitempty"`
}

func NewAnalyticsHandler(root string, pipeline *analytics.Pipeline) *AnalyticsHandler {
	return &AnalyticsHandler{root: root, pipeline: pipeline}
}

func (h *AnalyticsHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	kind := analytics.Kind(mux.Vars(r)["kind"])
	if !validKind(kind) {
		writeError(w, http.StatusNotFound, "unknown analytics kind")
		return
	}

	c, err := corpus.Load(h.root)
	if err != nil {
		if errors.Is(err, corpus.ErrFolderMissing) {
			writeError(w, http.StatusNotFound, "archive folder does not exist")
			return
		}
		slog.Error("Corpus load failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "corpus load failed")
		return
	}

	response := AnalyticsResponse{Kind: kind, Problems: c.Problems}
	for completion := range h.pipeline.Dispatch(r.Context(), c, []analytics.Kind{kind}) {
		response.Sentiments = completion.Sentiments
		response.Readabilities = completion.Readabilities
		response.Words = completion.Words
		response.Times = completion.Times
		response.Relationships = completion.Relationships
	}

	writeJSON(w, http.StatusOK, response)
}

func validKind(kind analytics.Kind) bool {
	for _, k := range analytics.AllKinds {
		if k == kind {
			return true
		}
	}
	return false
}
