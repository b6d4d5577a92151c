package handshake

import (
	"context"
	"log/slog"

	"keygate/oracle"
	"keygate/store"
)

// AlertSink receives every Suspicious transition. Implementations typically
// persist an alert record or notify an operator channel; the coordinator
// only guarantees the record passed in carries no session key.
type AlertSink interface {
	HandshakeFlagged(ctx context.Context, rec store.Record, verdict oracle.Verdict, reason string)
}

// LogAlerts is an AlertSink writing structured warnings to a slog.Logger.
type LogAlerts struct {
	Log *slog.Logger
}

func (a LogAlerts) HandshakeFlagged(_ context.Context, rec store.Record, verdict oracle.Verdict, reason string) {
	a.Log.Warn("suspicious handshake",
		slog.String("id", rec.ID),
		slog.String("owner", rec.Owner),
		slog.String("reason", reason),
		slog.Float64("score", verdict.Score),
		slog.String("verdict", verdict.Label),
		slog.Int("retries", rec.RetryCount),
	)
}

var _ AlertSink = LogAlerts{}
