package analytics

import (
	"regexp"
	"strings"
	"time"

	"slackmirror/internal/archive"
	"slackmirror/internal/corpus"
)

// Options select whose messages a derivation looks at and how series points
// are decorated.
type Options struct {
	// UserID is the target user. Empty means the local user of each team.
	UserID string

	// Comparative selects the length-normalized sentiment value instead of
	// the raw score.
	Comparative bool

	// CounterpartColor colors direct-message points with the counterpart's
	// color instead of the author's.
	CounterpartColor bool

	// TZOffset is the host timezone offset east of UTC, used by the
	// time-of-day derivation. Zero means UTC.
	TZOffset time.Duration
}

// maxLeadingGap is the idle-gap threshold: when the earliest points of a
// series are more than this far ahead of the third point, they are dropped
// one at a time so a long dead period does not dominate a time axis.
const maxLeadingGap float64 = 30 * 24 * 60 * 60

// Point carries the display fields shared by the time-series derivations.
type Point struct {
	TS     float64 `json:"ts"`
	Time   string  `json:"time"`
	Text   string  `json:"text"`
	File   string  `json:"file"`
	Color  string  `json:"color"`
	ToUser string  `json:"to_user"`
	Words  int     `json:"words"`
	Value  float64 `json:"value"`
}

// timeDisplayFormat matches the timestamp captions of the original charts.
const timeDisplayFormat = "Monday, Jan 2, 2006, 3:04 PM"

// wordSplitPattern is the fixed punctuation/whitespace class every word count
// in this package tokenizes on.
var wordSplitPattern = regexp.MustCompile("[ `~!@#$%^&*()\\-=_+\\[\\]{}\\\\|;:\",./<>?\\n\\t]+")

// sentenceSplitPattern splits message text into sentences.
var sentenceSplitPattern = regexp.MustCompile(`[.;:?!]+`)

// splitWords tokenizes text on the fixed punctuation class, dropping empty
// tokens.
func splitWords(text string) []string {
	parts := wordSplitPattern.Split(text, -1)
	words := parts[:0]
	for _, p := range parts {
		if p != "" {
			words = append(words, p)
		}
	}
	return words
}

func countWords(text string) int {
	return len(splitWords(text))
}

func countSentences(text string) int {
	n := 0
	for _, s := range sentenceSplitPattern.Split(text, -1) {
		if s != "" {
			n++
		}
	}
	return n
}

// qualifies reports whether the message belongs to the derivation target:
// the local user when no explicit target is set.
func qualifies(m *corpus.Message, userID string) bool {
	if userID == "" {
		return m.IsLocalUser
	}
	return m.AuthorID() == userID
}

func basePoint(m *corpus.Message, c *corpus.Conversation, opts Options) Point {
	ts := m.TS.Float64()
	return Point{
		TS:     ts,
		Time:   time.Unix(int64(ts), 0).UTC().Format(timeDisplayFormat),
		Text:   m.Text,
		File:   c.Path,
		Color:  pointColor(m, c, opts),
		ToUser: toUserName(m, c),
		Words:  countWords(m.Text),
	}
}

func pointColor(m *corpus.Message, c *corpus.Conversation, opts Options) string {
	if opts.CounterpartColor && c.Counterpart != nil && c.Counterpart.Color != "" {
		return c.Counterpart.Color
	}
	if m.Author != nil && m.Author.Color != "" {
		return m.Author.Color
	}
	return archive.DefaultColor
}

// toUserName names the other side of the point: the counterpart of a direct
// message when known, otherwise the author.
func toUserName(m *corpus.Message, c *corpus.Conversation) string {
	if c.Counterpart != nil {
		return c.Counterpart.DisplayName()
	}
	if m.Author != nil {
		return m.Author.DisplayName()
	}
	return "Unknown User"
}

// ColorFromString derives a stable arbitrary six-hex-digit color from any
// string, for entities that have no Slack-assigned color (team names).
func ColorFromString(s string) string {
	var hash int32
	for _, r := range s {
		hash = hash<<5 - hash + int32(r)
	}
	hash &= 0xFFFFFF
	hex := strings.ToLower(padHex(uint32(hash)))
	return hex
}

func padHex(v uint32) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 6)
	for i := 5; i >= 0; i-- {
		out[i] = digits[v&0xF]
		v >>= 4
	}
	return string(out)
}
