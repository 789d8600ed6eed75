package analytics

import (
	"sort"

	"github.com/mtso/syllables"

	"slackmirror/internal/corpus"
)

// ReadabilityPoint is one message's Flesch reading-ease score with the counts
// that produced it.
type ReadabilityPoint struct {
	Point
	Sentences int `json:"sentences"`
	Syllables int `json:"syllables"`
}

// Readability computes the Flesch reading ease of every qualifying message
// and returns a series ascending by timestamp.
func Readability(c *corpus.Corpus, opts Options) []ReadabilityPoint {
	var points []ReadabilityPoint
	for _, team := range c.Teams {
		for _, conversation := range team.Conversations {
			for _, m := range conversation.Messages {
				if !qualifies(m, opts.UserID) {
					continue
				}
				p := ReadabilityPoint{Point: basePoint(m, conversation, opts)}
				p.Sentences = countSentences(m.Text)
				p.Syllables = syllables.In(m.Text)
				p.Value = fleschReadingEase(p.Sentences, p.Words, p.Syllables)
				points = append(points, p)
			}
		}
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].TS < points[j].TS })

	for len(points) >= 3 && points[2].TS-points[0].TS > maxLeadingGap {
		points = points[1:]
	}
	return points
}

// fleschReadingEase is the standard Flesch formula over sentence, word and
// syllable counts. Zero counts yield zero instead of dividing by zero.
func fleschReadingEase(sentences, words, sylls int) float64 {
	if sentences == 0 || words == 0 {
		return 0
	}
	return 206.835 -
		1.015*(float64(words)/float64(sentences)) -
		84.6*(float64(sylls)/float64(words))
}
