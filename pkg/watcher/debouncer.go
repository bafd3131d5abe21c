package watcher

import (
	"context"
	"time"

	"github.com/ritzau/recgraph/pkg/logging"
)

// Debouncer merges bursts of change events (an exporter writing a large
// graph file emits many writes) into one event per quiet period
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 4),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		pending  *ChangeEvent
		quiet    <-chan time.Time
		deadline <-chan time.Time
	)

	flush := func() {
		if pending == nil {
			return
		}
		logging.Debug("flushing accumulated events", "path", pending.Path, "count", len(pending.Ops))
		select {
		case d.output <- *pending:
		case <-ctx.Done():
		}
		pending, quiet, deadline = nil, nil, nil
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}
			if pending == nil {
				pending = &ChangeEvent{Path: event.Path}
				deadline = time.After(d.maxWait)
			}
			pending.Ops = append(pending.Ops, event.Ops...)
			pending.Timestamp = event.Timestamp
			quiet = time.After(d.quietPeriod)

		case <-quiet:
			flush()

		case <-deadline:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
