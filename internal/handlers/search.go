package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"slackmirror/internal/corpus"
	"slackmirror/internal/search"
)

type SearchHandler struct {
	searcher *search.Searcher
}

type SearchRequest struct {
	Query string `json:"query"`
}

type SearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

func NewSearchHandler(searcher *search.Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query cannot be empty")
		return
	}

	results, err := h.searcher.Search(req.Query)
	if err != nil {
		if errors.Is(err, corpus.ErrFolderMissing) {
			writeError(w, http.StatusNotFound, "archive folder does not exist")
			return
		}
		slog.Error("Search failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{Query: req.Query, Results: results})
}
