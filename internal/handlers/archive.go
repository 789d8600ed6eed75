package handlers

import (
	"log/slog"
	"net/http"

	"slackmirror/internal/archiver"
)

type ArchiveHandler struct {
	archiver *archiver.Archiver
}

func NewArchiveHandler(a *archiver.Archiver) *ArchiveHandler {
	return &ArchiveHandler{archiver: a}
}

// HandleArchive runs one synchronous fetch-and-merge pass. Archive runs can
// take a while on a large workspace; the caller holds the connection open.
func (h *ArchiveHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		writeError(w, http.StatusServiceUnavailable, "no Slack token configured")
		return
	}

	report, err := h.archiver.Run(r.Context())
	if err != nil {
		slog.Error("Archive run failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "archive run failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleListFiles lists the local user's uploads with retention verdicts.
func (h *ArchiveHandler) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		writeError(w, http.StatusServiceUnavailable, "no Slack token configured")
		return
	}

	files, err := h.archiver.ListFiles(r.Context())
	if err != nil {
		slog.Error("File listing failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "file listing failed")
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// HandleDeleteFiles deletes everything currently flagged stale.
func (h *ArchiveHandler) HandleDeleteFiles(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		writeError(w, http.StatusServiceUnavailable, "no Slack token configured")
		return
	}

	files, err := h.archiver.ListFiles(r.Context())
	if err != nil {
		slog.Error("File listing failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "file listing failed")
		return
	}
	deleted, err := h.archiver.DeleteFiles(r.Context(), files)
	if err != nil {
		slog.Error("File deletion failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "file deletion failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
