package analytics

import (
	"context"
	"log/slog"
	"time"

	"slackmirror/internal/corpus"
	"slackmirror/internal/metrics"
)

// Kind names one derivation.
type Kind string

const (
	KindSentiment    Kind = "sentiment"
	KindReadability  Kind = "readability"
	KindVocabulary   Kind = "vocabulary"
	KindTimeOfDay    Kind = "timeofday"
	KindRelationship Kind = "relationship"
)

// AllKinds lists every derivation in dispatch order.
var AllKinds = []Kind{KindSentiment, KindReadability, KindVocabulary, KindTimeOfDay, KindRelationship}

// Completion is the asynchronous notification that one derivation finished.
// Only the field matching Kind is populated.
type Completion struct {
	Kind     Kind
	Duration time.Duration

	Sentiments    []SentimentPoint
	Readabilities []ReadabilityPoint
	Words         []WordCount
	Times         []TimePoint
	Relationships []Relationship
}

// Pipeline runs derivations over a loaded corpus and reports each completion
// to the caller. Derivations never mutate the corpus, and they run one at a
// time: the concurrency here is interleaving with the caller, not
// parallelism.
type Pipeline struct {
	opts Options
}

func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{opts: opts}
}

// Dispatch runs the requested derivations in order on a single background
// goroutine, sending one Completion per derivation. The channel is closed
// when all requested derivations have completed or the context is cancelled.
func (p *Pipeline) Dispatch(ctx context.Context, c *corpus.Corpus, kinds []Kind) <-chan Completion {
	out := make(chan Completion, len(kinds))
	go func() {
		defer close(out)
		for _, kind := range kinds {
			select {
			case <-ctx.Done():
				slog.Info("Analytics dispatch cancelled", slog.String("kind", string(kind)))
				return
			default:
			}

			start := time.Now()
			completion := p.run(kind, c)
			completion.Duration = time.Since(start)

			metrics.AnalyticsRuns.WithLabelValues(string(kind), "ok").Inc()
			metrics.AnalyticsDuration.WithLabelValues(string(kind)).Observe(completion.Duration.Seconds())
			slog.Debug("Analytics derivation completed",
				slog.String("kind", string(kind)),
				slog.Duration("duration", completion.Duration))

			select {
			case out <- completion:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (p *Pipeline) run(kind Kind, c *corpus.Corpus) Completion {
	completion := Completion{Kind: kind}
	switch kind {
	case KindSentiment:
		completion.Sentiments = Sentiment(c, p.opts)
	case KindReadability:
		completion.Readabilities = Readability(c, p.opts)
	case KindVocabulary:
		completion.Words = Vocabulary(c, p.opts)
	case KindTimeOfDay:
		completion.Times = TimesOfDay(c, p.opts)
	case KindRelationship:
		completion.Relationships = Relationships(c)
	default:
		slog.Warn("Unknown analytics kind requested", slog.String("kind", string(kind)))
	}
	return completion
}
