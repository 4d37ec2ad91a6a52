package realtime

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type backoff struct {
	min time.Duration
	max time.Duration
}

var feedBackoff = backoff{min: reconnectMinDelay, max: reconnectMaxDelay}

// run calls session until ctx is done, sleeping between attempts with an
// exponentially growing delay. A session calls connected once it is live,
// which resets the delay for the next drop.
func (b backoff) run(ctx context.Context, log *zap.Logger, channel string, session func(ctx context.Context, connected func()) error) {
	delay := b.min
	for {
		err := session(ctx, func() { delay = b.min })
		if ctx.Err() != nil {
			return
		}

		log.Warn("change feed connection lost, reconnecting",
			zap.String("channel", channel),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		delay *= 2
		if delay > b.max {
			delay = b.max
		}
	}
}
