package realtime

import (
	"context"

	"go.uber.org/zap"
)

type publisher interface {
	Publish(ctx context.Context, event Event) error
}

type source interface {
	Subscribe(ctx context.Context, filters ...Filter) (*Subscription, error)
}

// Relay copies every event from a source feed to a publisher, so that many
// service instances can share a single database LISTEN connection.
type Relay struct {
	source source
	target publisher
	log    *zap.Logger
}

func NewRelay(source source, target publisher, log *zap.Logger) *Relay {
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{source: source, target: target, log: log}
}

func (r *Relay) Run(ctx context.Context) error {
	sub, err := r.source.Subscribe(ctx, Any())
	if err != nil {
		return err
	}
	defer sub.Close()

	for event := range sub.Events() {
		if err := r.target.Publish(ctx, event); err != nil {
			r.log.Error("relay publish failed",
				zap.String("table", event.Table),
				zap.Error(err),
			)
		}
	}
	return nil
}
