package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"trialdeck/pkg/bus"
)

// Start attaches durable consumers that record session and sync lifecycle
// events in the service log. The returned closers drain the subscriptions.
func Start(ctx context.Context, b *bus.Bus) ([]io.Closer, error) {
	var closers []io.Closer
	for _, subject := range []string{bus.SubjectSessionCreated, bus.SubjectSyncCompleted} {
		closer, err := b.Subscribe(ctx, subject, durableName(subject), record(subject))
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
			return nil, fmt.Errorf("subscribe %s: %w", subject, err)
		}
		closers = append(closers, closer)
	}
	return closers, nil
}

// NATS durable names cannot contain dots.
func durableName(subject string) string {
	return "trialdeck-audit-" + strings.ReplaceAll(subject, ".", "-")
}

// record decodes one event payload and writes it to the audit log. A payload
// that fails to decode is returned as an error so the message is redelivered.
func record(subject string) func(context.Context, []byte) error {
	return func(_ context.Context, data []byte) error {
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("decode %s event: %w", subject, err)
		}
		log.Info().Str("subject", subject).Fields(fields).Msg("event recorded")
		return nil
	}
}
