package watcher

import (
	"context"
	"time"

	"github.com/depscope/depscope/pkg/logging"
)

// Debouncer batches rapid change events so a burst of file writes triggers
// one recomputation instead of many. An event is released after quietPeriod
// with no new input, or after maxWait from the first accumulated event,
// whichever comes first.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing.
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// Output returns the channel of debounced events.
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		quiet   = time.NewTimer(d.quietPeriod)
		maxWait = time.NewTimer(d.maxWait)
		paths   []string
	)
	quiet.Stop()
	maxWait.Stop()

	flush := func() {
		quiet.Stop()
		maxWait.Stop()
		if len(paths) == 0 {
			return
		}
		logging.Debug("flushing accumulated change events", "paths", len(paths))
		d.output <- ChangeEvent{Paths: paths, Timestamp: time.Now()}
		paths = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}
			if len(paths) == 0 {
				maxWait.Reset(d.maxWait)
			}
			paths = append(paths, event.Paths...)
			quiet.Reset(d.quietPeriod)

		case <-quiet.C:
			flush()

		case <-maxWait.C:
			flush()
		}
	}
}
