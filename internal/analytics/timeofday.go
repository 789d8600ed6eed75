package analytics

import (
	"math"
	"sort"

	"slackmirror/internal/corpus"
)

const secondsPerDay = 86400

// TimePoint locates one message within the local civil day: the day bucket
// it belongs to and the second-of-day it was posted.
type TimePoint struct {
	TS        float64 `json:"ts"`
	Day       float64 `json:"day"`
	TimeOfDay float64 `json:"time_of_day"`
	Words     int     `json:"words"`
	Text      string  `json:"text"`
	File      string  `json:"file"`
	Color     string  `json:"color"`
	ToUser    string  `json:"to_user"`
}

// TimesOfDay maps every qualifying message onto its local time-of-day and
// day bucket using the options' timezone offset. The series comes back
// ascending by timestamp with long leading day gaps trimmed.
func TimesOfDay(c *corpus.Corpus, opts Options) []TimePoint {
	offset := opts.TZOffset.Seconds()

	var points []TimePoint
	for _, team := range c.Teams {
		for _, conversation := range team.Conversations {
			for _, m := range conversation.Messages {
				if !qualifies(m, opts.UserID) {
					continue
				}
				ts := m.TS.Float64()
				local := ts + offset
				day := math.Trunc(local/secondsPerDay) * secondsPerDay
				points = append(points, TimePoint{
					TS:        ts,
					Day:       day,
					TimeOfDay: local - day,
					Words:     countWords(m.Text),
					Text:      m.Text,
					File:      conversation.Path,
					Color:     pointColor(m, conversation, opts),
					ToUser:    toUserName(m, conversation),
				})
			}
		}
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].TS < points[j].TS })

	for len(points) >= 3 && points[2].Day-points[0].Day >= maxLeadingGap {
		points = points[1:]
	}
	return points
}
