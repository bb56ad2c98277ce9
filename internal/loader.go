package internal

import (
	"context"
	"iter"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// LoadedTranscript holds the normalized events of one transcript
type LoadedTranscript struct {
	Transcript  Transcript
	Events      []NormalizedEvent
	ParseErrors int
	FromCache   bool
}

// EventLoader decodes and normalizes transcripts, consulting an optional
// event cache first.
type EventLoader struct {
	normalizer *Normalizer
	cache      *EventCache
	workers    int
}

// NewEventLoader creates a loader. cache may be nil.
func NewEventLoader(normalizer *Normalizer, cache *EventCache) *EventLoader {
	if normalizer == nil {
		normalizer = NewNormalizer(nil)
	}
	return &EventLoader{
		normalizer: normalizer,
		cache:      cache,
		workers:    runtime.GOMAXPROCS(0),
	}
}

// SetWorkers bounds how many transcripts LoadAll reads at once
func (l *EventLoader) SetWorkers(n int) {
	if n > 0 {
		l.workers = n
	}
}

// Load returns the events of t in mode. Counters are added to stats.
func (l *EventLoader) Load(ctx context.Context, t Transcript, mode Mode, stats *RunStats) (*LoadedTranscript, error) {
	if l.cache != nil {
		cached, ok, err := l.cache.Load(t, mode)
		if err != nil {
			LogWarn("event cache unavailable: %v", err)
		} else if ok {
			LogDebug("cache hit for %s (%s)", t.ShortID, mode)
			if stats != nil {
				stats.Files++
				stats.ParseErrors += cached.ParseErrors
				stats.Events += len(cached.Events)
			}
			return &LoadedTranscript{
				Transcript:  t,
				Events:      cached.Events,
				ParseErrors: cached.ParseErrors,
				FromCache:   true,
			}, nil
		}
	}

	local := NewRunStats()
	var events []NormalizedEvent
	err := ReadTranscriptFile(ctx, t.Path, local, func(rec *RawRecord) error {
		events = append(events, l.normalizer.Normalize(rec, mode, local)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	stats.Merge(local)

	if l.cache != nil {
		if err := l.cache.Store(t, mode, events, local.ParseErrors); err != nil {
			LogWarn("failed to cache events for %s: %v", t.ShortID, err)
		}
	}

	return &LoadedTranscript{
		Transcript:  t,
		Events:      events,
		ParseErrors: local.ParseErrors,
	}, nil
}

// LoadAll loads transcripts concurrently and returns them in input order.
// Each worker keeps its own counters; they are merged into stats at the end.
func (l *EventLoader) LoadAll(ctx context.Context, transcripts []Transcript, mode Mode, stats *RunStats) ([]*LoadedTranscript, error) {
	results := make([]*LoadedTranscript, len(transcripts))
	perFile := make([]*RunStats, len(transcripts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, t := range transcripts {
		g.Go(func() error {
			local := NewRunStats()
			loaded, err := l.Load(gctx, t, mode, local)
			if err != nil {
				return err
			}
			results[i] = loaded
			perFile[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, s := range perFile {
		stats.Merge(s)
	}
	return results, nil
}

// SessionEvents streams loaded events in transcript order, numbering each
// event by its position within its transcript.
func SessionEvents(loaded []*LoadedTranscript) iter.Seq[SessionEvent] {
	return func(yield func(SessionEvent) bool) {
		for _, lt := range loaded {
			for pos, ev := range lt.Events {
				if !yield(SessionEvent{SessionID: lt.Transcript.ID, Position: pos, Event: ev}) {
					return
				}
			}
		}
	}
}

// Stream loads transcripts one at a time and yields their events, so a
// search never holds more than one transcript in memory. Transcripts that
// cannot be read are logged and skipped.
func (l *EventLoader) Stream(ctx context.Context, transcripts []Transcript, mode Mode, stats *RunStats) iter.Seq[SessionEvent] {
	return func(yield func(SessionEvent) bool) {
		for _, t := range transcripts {
			if ctx.Err() != nil {
				return
			}
			loaded, err := l.Load(ctx, t, mode, stats)
			if err != nil {
				LogWarn("skipping %s: %v", t.Path, err)
				continue
			}
			for pos, ev := range loaded.Events {
				if !yield(SessionEvent{SessionID: t.ID, Position: pos, Event: ev}) {
					return
				}
			}
		}
	}
}
