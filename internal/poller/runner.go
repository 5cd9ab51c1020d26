package poller

import (
	"context"
	"time"
)

// Run executes poll cycles until the context is canceled, or exactly once
// in one-shot mode. Cancellation during the inter-cycle sleep is a clean
// termination; the sink only ever sees complete records.
func (p *Poller) Run(ctx context.Context) error {
	for {
		rec := p.PollOnce()

		if err := p.sink.WriteRecord(rec.Line()); err != nil {
			return err
		}

		if p.cfg.Once {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.cfg.Interval):
		}
	}
}
