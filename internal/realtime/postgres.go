package realtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	DefaultChannel    = "chat_changes"
	reconnectMinDelay = 500 * time.Millisecond
	reconnectMaxDelay = 30 * time.Second
)

// PostgresFeed holds one dedicated connection listening on the chat_changes
// channel and fans notifications out to subscriptions.
type PostgresFeed struct {
	*dispatcher
	connString string
	channel    string
}

func NewPostgresFeed(connString, channel string, log *zap.Logger) *PostgresFeed {
	if channel == "" {
		channel = DefaultChannel
	}
	return &PostgresFeed{
		dispatcher: newDispatcher(log),
		connString: connString,
		channel:    channel,
	}
}

// Run listens until ctx is done, reconnecting with backoff when the connection drops.
func (f *PostgresFeed) Run(ctx context.Context) error {
	defer f.closeAll()

	feedBackoff.run(ctx, f.log, f.channel, f.listen)
	return nil
}

func (f *PostgresFeed) listen(ctx context.Context, connected func()) error {
	conn, err := pgx.Connect(ctx, f.connString)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", f.channel, err)
	}
	f.log.Info("change feed listening", zap.String("channel", f.channel))
	connected()

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		f.dispatchPayload([]byte(notification.Payload))
	}
}
