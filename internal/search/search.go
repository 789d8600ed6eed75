package search

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"slackmirror/internal/archive"
	"slackmirror/internal/corpus"
	"slackmirror/internal/metrics"
)

// MinQueryLength guards against pathological broad matches: anything shorter
// produces an empty result set without touching disk.
const MinQueryLength = 3

// Span is a half-open [Start, End) character range within a message text.
// Spans are non-overlapping and ascending.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Run is one piece of a message text split around its matched spans, for
// highlighted rendering. Runs alternate between plain and matched.
type Run struct {
	Text    string `json:"text"`
	Matched bool   `json:"matched"`
}

// Result is one search hit with enough conversation and author context to
// render it without another disk read.
type Result struct {
	Message     archive.Message          `json:"message"`
	Author      *archive.User            `json:"author"`
	UserSent    bool                     `json:"user_sent"`
	TeamID      string                   `json:"team_id"`
	TeamFolder  string                   `json:"team_folder"`
	File        string                   `json:"file"`
	Kind        archive.ConversationKind `json:"kind"`
	DisplayName string                   `json:"display_name"`

	// Score orders results: lower is better.
	Score float64 `json:"score"`
	Spans []Span  `json:"spans"`
}

// Runs splits the message text into alternating plain/matched runs.
func (r *Result) Runs() []Run {
	return SplitRuns(r.Message.Text, r.Spans)
}

// Searcher is the fuzzy full-text view over an archive root. It keeps no
// index: every query refreshes the file listing and re-reads conversation
// files on demand, which is the right tradeoff for a personal archive of at
// most a few thousand files.
type Searcher struct {
	root string
}

func New(root string) *Searcher {
	return &Searcher{root: root}
}

type conversationFile struct {
	path        string
	file        string
	kind        archive.ConversationKind
	displayName string
	team        *teamContext
}

type teamContext struct {
	info    archive.LocalUser
	folder  string
	users   map[string]*archive.User
	unknown *archive.User
}

// Search runs the query across every archived conversation. Results are
// ordered best match first; ties go to the most recent message.
func (s *Searcher) Search(query string) ([]Result, error) {
	if utf8.RuneCountInString(query) < MinQueryLength {
		metrics.SearchQueries.WithLabelValues("guarded").Inc()
		return []Result{}, nil
	}

	start := time.Now()
	files, err := s.listFiles()
	if err != nil {
		metrics.SearchQueries.WithLabelValues("error").Inc()
		return nil, err
	}

	var results []Result
	for _, f := range files {
		messages, err := archive.ReadMessages(f.path)
		if err != nil {
			// One unreadable file must not take down the whole search.
			slog.Warn("Skipping unsearchable file", slog.String("path", f.path), slog.String("error", err.Error()))
			continue
		}
		results = append(results, matchConversation(query, f, messages)...)
	}

	sortResults(results)

	metrics.SearchQueries.WithLabelValues("ok").Inc()
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	slog.Debug("Search completed",
		slog.String("query", query),
		slog.Int("files", len(files)),
		slog.Int("hits", len(results)),
		slog.Duration("duration", time.Since(start)))
	return results, nil
}

// listFiles walks the archive root cheaply: team descriptors and profiles are
// parsed, conversation files are only listed.
func (s *Searcher) listFiles() ([]conversationFile, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", corpus.ErrFolderMissing, s.root)
		}
		return nil, fmt.Errorf("failed to stat archive folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", corpus.ErrFolderMissing, s.root)
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate archive folder: %w", err)
	}

	var files []conversationFile
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.root, entry.Name())
		team := &teamContext{
			folder:  entry.Name(),
			users:   make(map[string]*archive.User),
			unknown: archive.UnknownUser(),
		}
		teamEntries, err := os.ReadDir(dir)
		if err != nil {
			slog.Warn("Skipping unreadable team folder", slog.String("path", dir), slog.String("error", err.Error()))
			continue
		}
		var conversations []conversationFile
		for _, te := range teamEntries {
			name := te.Name()
			path := filepath.Join(dir, name)
			switch {
			case te.IsDir():
			case name == archive.LocalUserFile:
				if err := readJSON(path, &team.info); err != nil {
					slog.Warn("Skipping bad team descriptor", slog.String("path", path), slog.String("error", err.Error()))
				}
			case strings.HasPrefix(name, archive.UserFilePrefix):
				var user archive.User
				if err := readJSON(path, &user); err != nil || user.ID == "" {
					continue
				}
				team.users[user.ID] = &user
			default:
				kind, displayName, ok := corpus.ParseConversationFileName(name)
				if !ok {
					continue
				}
				conversations = append(conversations, conversationFile{
					path:        path,
					file:        name,
					kind:        kind,
					displayName: displayName,
					team:        team,
				})
			}
		}
		files = append(files, conversations...)
	}
	return files, nil
}

func matchConversation(query string, f conversationFile, messages []archive.Message) []Result {
	texts := make([]string, len(messages))
	for i := range messages {
		texts[i] = messages[i].Text
	}

	matches := fuzzy.Find(query, texts)
	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		msg := messages[m.Index]
		authorID := msg.AuthorID()
		author := f.team.unknown
		if u, ok := f.team.users[authorID]; ok {
			author = u
		}
		results = append(results, Result{
			Message:     msg,
			Author:      author,
			UserSent:    authorID != "" && authorID == f.team.info.UserID,
			TeamID:      f.team.info.TeamID,
			TeamFolder:  f.team.folder,
			File:        f.file,
			Kind:        f.kind,
			DisplayName: f.displayName,
			// The matcher scores higher-is-better; negate so that lower
			// is better and ranking stays a plain ascending sort.
			Score: -float64(m.Score),
			Spans: coalesceSpans(runeIndexes(msg.Text, m.MatchedIndexes)),
		})
	}
	return results
}

// sortResults orders hits by score ascending (best match first), breaking
// ties by message timestamp descending (most recent first).
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return results[j].Message.TS.Before(results[i].Message.TS)
	})
}

// runeIndexes maps the matcher's byte offsets onto rune positions. Spans are
// consumed as rune indexes by SplitRuns, so any multi-byte text ahead of the
// match would otherwise shift the highlight.
func runeIndexes(text string, byteIndexes []int) []int {
	if len(byteIndexes) == 0 {
		return nil
	}
	byteToRune := make(map[int]int, len(text))
	pos := 0
	for i := range text {
		byteToRune[i] = pos
		pos++
	}
	indexes := make([]int, 0, len(byteIndexes))
	for _, b := range byteIndexes {
		if r, ok := byteToRune[b]; ok {
			indexes = append(indexes, r)
		}
	}
	return indexes
}

// coalesceSpans folds the matcher's per-character indexes into half-open
// spans of consecutive characters.
func coalesceSpans(indexes []int) []Span {
	if len(indexes) == 0 {
		return nil
	}
	sorted := make([]int, len(indexes))
	copy(sorted, indexes)
	sort.Ints(sorted)

	var spans []Span
	start, prev := sorted[0], sorted[0]
	for _, idx := range sorted[1:] {
		if idx == prev+1 {
			prev = idx
			continue
		}
		spans = append(spans, Span{Start: start, End: prev + 1})
		start, prev = idx, idx
	}
	return append(spans, Span{Start: start, End: prev + 1})
}

// SplitRuns cuts text into alternating plain/matched runs around spans.
// Spans must be non-overlapping and ascending, as produced by Search.
func SplitRuns(text string, spans []Span) []Run {
	runes := []rune(text)
	var runs []Run
	pos := 0
	for _, span := range spans {
		if span.Start > len(runes) {
			break
		}
		end := span.End
		if end > len(runes) {
			end = len(runes)
		}
		if span.Start > pos {
			runs = append(runs, Run{Text: string(runes[pos:span.Start])})
		}
		runs = append(runs, Run{Text: string(runes[span.Start:end]), Matched: true})
		pos = end
	}
	if pos < len(runes) {
		runs = append(runs, Run{Text: string(runes[pos:])})
	}
	return runs
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
