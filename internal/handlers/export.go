package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"slackmirror/internal/corpus"
	"slackmirror/internal/export"
)

type ExportHandler struct {
	root string
}

type ExportRequest struct {
	TeamFolder string `json:"team_folder"`
	File       string `json:"file"`

	// Timestamps selects the messages to export. Empty means the whole
	// conversation.
	Timestamps []string `json:"timestamps,omitempty"`
}

type ExportResponse struct {
	Markdown string `json:"markdown"`
	Messages int    `json:"messages"`
}

func NewExportHandler(root string) *ExportHandler {
	return &ExportHandler{root: root}
}

func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TeamFolder == "" || req.File == "" {
		writeError(w, http.StatusBadRequest, "team_folder and file are required")
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

	conversation := findConversation(c, req.TeamFolder, req.File)
	if conversation == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	selected := selectMessages(conversation, req.Timestamps)
	writeJSON(w, http.StatusOK, ExportResponse{
		Markdown: export.Markdown(conversation, selected, nil),
		Messages: len(selected),
	})
}

func findConversation(c *corpus.Corpus, folder, file string) *corpus.Conversation {
	for _, team := range c.Teams {
		if team.Folder != folder {
			continue
		}
		for _, conversation := range team.Conversations {
			if conversation.FileName == file {
				return conversation
			}
		}
	}
	return nil
}

func selectMessages(conversation *corpus.Conversation, timestamps []string) []*corpus.Message {
	if len(timestamps) == 0 {
		return conversation.Messages
	}
	wanted := make(map[string]bool, len(timestamps))
	for _, ts := range timestamps {
		wanted[ts] = true
	}
	var selected []*corpus.Message
	for _, m := range conversation.Messages {
		if wanted[string(m.TS)] {
			selected = append(selected, m)
		}
	}
	return selected
}
