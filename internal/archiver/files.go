package archiver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/slack-go/slack"
)

const filePageSize = 200

// StaleFile is one uploaded file with the retention verdict applied. Stale
// files are older than the configured retention window and not pinned
// anywhere.
type StaleFile struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	Pinned  bool      `json:"pinned"`
	Stale   bool      `json:"stale"`
}

// ListFiles lists every file the local user has uploaded and flags the ones
// past the retention window. Pinned files are never flagged; the pin status
// comes from pins.list per channel the file is shared into, since files.list
// itself does not expose it.
func (a *Archiver) ListFiles(ctx context.Context) ([]StaleFile, error) {
	auth, err := a.authTest(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -a.cfg.FileRetentionDays)

	var files []slack.File
	page := 1
	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		batch, paging, err := a.client.GetFilesContext(ctx, slack.GetFilesParameters{
			User:  auth.UserID,
			Count: filePageSize,
			Page:  page,
		})
		a.countCall("files.list", err)
		if err != nil {
			return nil, fmt.Errorf("listing files: %w", err)
		}
		files = append(files, batch...)
		if paging == nil || page >= paging.Pages {
			break
		}
		page++
	}

	pinned, err := a.pinnedFileIDs(ctx, files)
	if err != nil {
		return nil, err
	}

	out := make([]StaleFile, 0, len(files))
	for _, f := range files {
		created := f.Created.Time()
		out = append(out, StaleFile{
			ID:      f.ID,
			Name:    f.Name,
			Created: created,
			Pinned:  pinned[f.ID],
			Stale:   !pinned[f.ID] && !created.After(cutoff),
		})
	}
	return out, nil
}

// pinnedFileIDs collects the IDs of pinned files across every channel the
// given files are shared into. When a channel's pins cannot be listed, all
// of that channel's files count as pinned: deletion must err toward keeping.
func (a *Archiver) pinnedFileIDs(ctx context.Context, files []slack.File) (map[string]bool, error) {
	channelFiles := make(map[string][]string)
	for _, f := range files {
		for _, channels := range [][]string{f.Channels, f.Groups, f.IMs} {
			for _, ch := range channels {
				channelFiles[ch] = append(channelFiles[ch], f.ID)
			}
		}
	}

	pinned := make(map[string]bool)
	for ch, fileIDs := range channelFiles {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		items, _, err := a.client.ListPinsContext(ctx, ch)
		a.countCall("pins.list", err)
		if err != nil {
			slog.Warn("Failed to list pins, keeping channel's files",
				slog.String("channel", ch),
				slog.String("error", err.Error()))
			for _, id := range fileIDs {
				pinned[id] = true
			}
			continue
		}
		for _, item := range items {
			if item.File != nil {
				pinned[item.File.ID] = true
			}
		}
	}
	return pinned, nil
}

// DeleteFiles deletes every file flagged stale, reporting how many were
// removed. A file that fails to delete is logged and left in place.
func (a *Archiver) DeleteFiles(ctx context.Context, files []StaleFile) (int, error) {
	deleted := 0
	for _, f := range files {
		if !f.Stale {
			continue
		}
		if err := a.limiter.Wait(ctx); err != nil {
			return deleted, err
		}
		err := a.client.DeleteFileContext(ctx, f.ID)
		a.countCall("files.delete", err)
		if err != nil {
			slog.Warn("Failed to delete file",
				slog.String("file", f.ID),
				slog.String("error", err.Error()))
			continue
		}
		deleted++
	}
	return deleted, nil
}
