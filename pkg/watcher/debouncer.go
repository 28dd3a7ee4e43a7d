package watcher

import (
	"context"
	"time"

	"github.com/ritzau/dataflows/pkg/logging"
)

// Debouncer batches rapid file system events so an editor saving a scene
// several times in a row produces a single notification
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a debouncer. Accumulated events are flushed after
// quietPeriod without input, or maxWait after the first event at the latest.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func stopped(d time.Duration) *time.Timer {
	t := time.NewTimer(d)
	t.Stop()
	return t
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quiet       = stopped(d.quietPeriod)
		deadline    = stopped(d.maxWait)
		waiting     bool
		accumulated = make(map[ChangeType][]string)
		eventCount  int
	)

	// send prefers free buffer space and otherwise waits for a reader
	// until ctx is done. It reports whether the event was delivered.
	send := func(event ChangeEvent) bool {
		select {
		case d.output <- event:
			return true
		default:
		}
		select {
		case d.output <- event:
			return true
		case <-ctx.Done():
			logging.Debug("dropping debounced events on shutdown", "type", event.Type.String(), "files", len(event.Paths))
			return false
		}
	}

	// flush returns false once nobody will read the output any more
	flush := func() bool {
		quiet.Stop()
		deadline.Stop()
		waiting = false
		if eventCount == 0 {
			return true
		}

		logging.Debug("flushing accumulated events", "count", eventCount)

		// Writes before removals; the same file may show up in both
		for _, t := range []ChangeType{ChangeTypeWritten, ChangeTypeRemoved} {
			if paths := dedupe(accumulated[t]); len(paths) > 0 {
				if !send(ChangeEvent{Type: t, Paths: paths, Timestamp: time.Now()}) {
					return false
				}
			}
		}

		accumulated = make(map[ChangeType][]string)
		eventCount = 0
		return true
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			accumulated[event.Type] = append(accumulated[event.Type], event.Paths...)
			eventCount++

			quiet.Reset(d.quietPeriod)
			if !waiting {
				deadline.Reset(d.maxWait)
				waiting = true
			}

		case <-quiet.C:
			if !flush() {
				return
			}

		case <-deadline.C:
			if !flush() {
				return
			}
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
