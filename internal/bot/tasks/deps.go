// Package tasks implements the scheduled tasks run by the digest bot.
package tasks

import (
	"context"
	"log/slog"

	"github.com/edgard/teledigest/internal/config"
	"github.com/edgard/teledigest/internal/database"
	"github.com/edgard/teledigest/internal/summary"
)

// DigestDeliverer sends a finished digest to its destination chat.
type DigestDeliverer interface {
	SendDigest(ctx context.Context, text string) error
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger    *slog.Logger
	Store     database.Store
	Pipeline  *summary.Pipeline
	Deliverer DigestDeliverer
	Config    *config.Config
}
