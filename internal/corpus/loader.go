package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"slackmirror/internal/archive"
	"slackmirror/internal/metrics"
)

// ErrFolderMissing reports that the archive root does not exist. Callers get
// this before any enumeration is attempted.
var ErrFolderMissing = errors.New("archive folder not found")

// Load materializes the full multi-team corpus from the archive root. Loading
// is read-only and idempotent: as long as the files are unchanged, repeated
// loads produce equivalent corpora.
func Load(root string) (*Corpus, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFolderMissing, root)
		}
		return nil, fmt.Errorf("failed to stat archive folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrFolderMissing, root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate archive folder: %w", err)
	}

	corpus := &Corpus{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		team := loadTeam(corpus, filepath.Join(root, entry.Name()), entry.Name())
		if team != nil {
			corpus.Teams = append(corpus.Teams, team)
		}
	}

	messages := 0
	conversations := 0
	for _, team := range corpus.Teams {
		conversations += len(team.Conversations)
		for _, c := range team.Conversations {
			messages += len(c.Messages)
		}
	}
	metrics.CorpusLoads.Inc()
	metrics.CorpusMessages.Set(float64(messages))
	slog.Info("Loaded corpus",
		slog.Int("teams", len(corpus.Teams)),
		slog.Int("conversations", conversations),
		slog.Int("messages", messages),
		slog.Int("problems", len(corpus.Problems)))
	return corpus, nil
}

func loadTeam(corpus *Corpus, dir, folder string) *Team {
	team := &Team{
		Folder: folder,
		Users:  make(map[string]*archive.User),
	}

	localPath := filepath.Join(dir, archive.LocalUserFile)
	if err := readJSONFile(localPath, &team.Info); err != nil {
		corpus.report(localPath, err.Error())
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		corpus.report(dir, err.Error())
		return nil
	}

	// Profiles first: the user table must be complete before any
	// conversation is annotated.
	var conversationFiles []string
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case entry.IsDir() || name == archive.LocalUserFile || name == slackbotFile:
			continue
		case strings.HasPrefix(name, archive.UserFilePrefix):
			path := filepath.Join(dir, name)
			var user archive.User
			if err := readJSONFile(path, &user); err != nil {
				corpus.report(path, err.Error())
				continue
			}
			// Deleted users stay in the table; their old messages still
			// need an author.
			if user.ID == "" {
				continue
			}
			team.Users[user.ID] = &user
		default:
			conversationFiles = append(conversationFiles, name)
		}
	}

	for _, name := range conversationFiles {
		kind, display, ok := ParseConversationFileName(name)
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		messages, err := archive.ReadMessages(path)
		if err != nil {
			corpus.report(path, err.Error())
			continue
		}
		conversation := &Conversation{
			Team:        team,
			Path:        path,
			FileName:    name,
			Kind:        kind,
			DisplayName: display,
		}
		annotate(conversation, team, messages)
		team.Conversations = append(team.Conversations, conversation)
	}
	return team
}

// annotate resolves authorship for every message and, for direct messages,
// the conversation counterpart. Messages come out ascending by timestamp,
// which is the display order downstream consumers rely on.
func annotate(c *Conversation, team *Team, messages []archive.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].TS.Before(messages[j].TS)
	})

	others := make(map[string]bool)
	c.Messages = make([]*Message, 0, len(messages))
	for i := range messages {
		m := &Message{Message: messages[i]}
		authorID := m.AuthorID()
		if authorID != "" {
			if user, ok := team.Users[authorID]; ok {
				m.Author = user
			} else {
				m.Author = team.Unknown()
			}
			m.IsLocalUser = authorID == team.Info.UserID
			if !m.IsLocalUser {
				others[authorID] = true
			}
		} else {
			m.Author = team.Unknown()
		}
		c.Messages = append(c.Messages, m)
	}

	if c.Kind != archive.KindIM || len(others) != 1 {
		return
	}
	for id := range others {
		// Zero or multiple candidates never reach here; an unresolvable
		// single candidate still means no counterpart rather than a guess.
		c.Counterpart = team.Users[id]
	}
}

func (c *Corpus) report(path, reason string) {
	slog.Warn("Excluding file from corpus", slog.String("path", path), slog.String("reason", reason))
	c.Problems = append(c.Problems, FileProblem{Path: path, Reason: reason})
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
