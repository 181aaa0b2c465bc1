package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/OsbornePro/quickcopy/internal/events"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print a line whenever the quick copy window closes",
	Long: `Print a line whenever the quick copy window closes.

The main window uses this broadcast to clear its pinned state.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = cfg.NATS.URL
		}
		var opts []nats.Option
		if natsURL == "" {
			// the daemon's embedded server accepts the API token
			natsURL = "nats://" + cfg.NATS.Listen
			opts = append(opts, nats.Token(apiToken))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return watchClosed(ctx, cmd, natsURL, opts...)
	},
}

func init() {
	watchCmd.Flags().String("nats", "", "NATS URL (default from config)")
}

func watchClosed(ctx context.Context, cmd *cobra.Command, natsURL string, opts ...nats.Option) error {
	opts = append(opts,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logrus.WithError(err).Warn("nats: disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logrus.Info("nats: reconnected")
		}),
	)
	sub, err := events.NewNATSSubscriber(natsURL, opts...)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, unsubscribe, err := sub.Subscribe(events.TopicQuickCopyClosed)
	if err != nil {
		return err
	}
	defer unsubscribe()

	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			now := time.Now().Format(time.RFC3339)
			event := strings.TrimPrefix(events.TopicQuickCopyClosed, events.TopicPrefix)
			if jsonOutput {
				if err := printJSON(out, map[string]any{"event": event, "at": now, "payload": string(data)}); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintf(out, "%s %s: unpinned\n", now, event)
		}
	}
}
