package analytics

import (
	"sort"

	"github.com/jonreiter/govader"

	"slackmirror/internal/corpus"
)

// SentimentPoint is one scored message. Score is the raw lexicon score and
// Comparative its length-normalized form; Value holds whichever of the two
// the options selected.
type SentimentPoint struct {
	Point
	Score       float64 `json:"score"`
	Comparative float64 `json:"comparative"`
}

// Sentiment scores every qualifying message with the VADER lexicon and
// returns a display-ready series ascending by timestamp. The compound
// polarity is normalized to [-1, 1]; the raw score scales it back by the
// message's word count.
func Sentiment(c *corpus.Corpus, opts Options) []SentimentPoint {
	analyzer := govader.NewSentimentIntensityAnalyzer()

	var points []SentimentPoint
	for _, team := range c.Teams {
		for _, conversation := range team.Conversations {
			for _, m := range conversation.Messages {
				if !qualifies(m, opts.UserID) {
					continue
				}
				p := SentimentPoint{Point: basePoint(m, conversation, opts)}
				scores := analyzer.PolarityScores(m.Text)
				p.Comparative = scores.Compound
				p.Score = scores.Compound * float64(p.Words)
				if opts.Comparative {
					p.Value = p.Comparative
				} else {
					p.Value = p.Score
				}
				points = append(points, p)
			}
		}
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].TS < points[j].TS })

	// Drop leading points separated from the rest by a long idle gap. The
	// loop needs at least three points to be meaningful.
	for len(points) >= 3 && points[2].TS-points[0].TS > maxLeadingGap {
		points = points[1:]
	}
	return points
}
