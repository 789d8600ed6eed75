package analytics

import (
	"sort"
	"strings"

	"github.com/kljensen/snowball/english"

	"slackmirror/internal/corpus"
)

// WordCount aggregates one vocabulary stem across the target user's
// messages: how often it appeared and with which surface forms.
type WordCount struct {
	Stem     string   `json:"stem"`
	Count    int      `json:"count"`
	Examples []string `json:"examples"`
	Color    string   `json:"color"`
}

// Vocabulary tokenizes every qualifying message, expands common
// contractions, stems each token and counts stems not on the stop list.
// Output order is count descending so the heaviest vocabulary comes first.
func Vocabulary(c *corpus.Corpus, opts Options) []WordCount {
	counts := make(map[string]*WordCount)

	for _, team := range c.Teams {
		for _, conversation := range team.Conversations {
			for _, m := range conversation.Messages {
				if !qualifies(m, opts.UserID) {
					continue
				}
				color := pointColor(m, conversation, opts)
				for _, word := range expandContractions(splitWords(m.Text)) {
					stem := stemWord(word)
					if stopStems[stem] {
						continue
					}
					entry, ok := counts[stem]
					if !ok {
						entry = &WordCount{Stem: stem, Color: color}
						counts[stem] = entry
					}
					entry.Count++
					entry.Examples = append(entry.Examples, word)
				}
			}
		}
	}

	words := make([]WordCount, 0, len(counts))
	for _, entry := range counts {
		words = append(words, *entry)
	}
	sort.SliceStable(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Stem < words[j].Stem
	})
	return words
}

// expandContractions rewrites common English contractions so their hidden
// words are counted: "I'm" contributes both "I" and "am".
func expandContractions(words []string) []string {
	out := make([]string, 0, len(words))
	for _, word := range words {
		lower := strings.ToLower(word)
		switch lower {
		case "won't":
			out = append(out, "will", "not")
			continue
		case "can't":
			out = append(out, "can", "not")
			continue
		}
		switch {
		case strings.HasSuffix(lower, "n't"):
			out = append(out, lower[:len(lower)-3], "not")
		case strings.HasSuffix(lower, "'ve"):
			out = append(out, lower[:len(lower)-3], "have")
		case strings.HasSuffix(lower, "'re"):
			out = append(out, lower[:len(lower)-3], "are")
		case strings.HasSuffix(lower, "'ll"):
			out = append(out, lower[:len(lower)-3], "will")
		case strings.HasSuffix(lower, "'m"):
			out = append(out, lower[:len(lower)-2], "am")
		case strings.HasSuffix(lower, "'d"):
			// Ambiguous between "would" and "had"; "would" is the more
			// common reading in chat text.
			out = append(out, lower[:len(lower)-2], "would")
		default:
			out = append(out, word)
		}
	}
	return out
}

// stemWord stems a single token, trimming any apostrophes the stemmer leaves
// behind.
func stemWord(word string) string {
	stem := english.Stem(word, false)
	return strings.TrimRight(stem, "'")
}
