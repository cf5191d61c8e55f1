package summary

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/edgard/teledigest/internal/config"
	"github.com/edgard/teledigest/internal/database"
)

// Summarizer generates a digest from a prepared prompt.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Result reports the outcome of one pipeline run.
type Result struct {
	// BacklogSize is the number of unprocessed messages in the snapshot.
	BacklogSize int
	// Processed is the number of messages flipped to processed. Zero when
	// the run failed or the backlog was empty.
	Processed int64
	// Summary is the generated digest text. Empty for a zero-work run.
	Summary string
}

// Pipeline runs one summarization cycle: snapshot the backlog, format it,
// call the summarizer, and commit the batch. A run-level mutex serializes
// overlapping invocations; a failed run mutates nothing, so the same backlog
// is picked up again next time.
type Pipeline struct {
	store      database.Store
	summarizer Summarizer
	logger     *slog.Logger
	cfg        config.SummaryConfig

	mu sync.Mutex
}

// NewPipeline creates a summarization pipeline.
func NewPipeline(store database.Store, summarizer Summarizer, logger *slog.Logger, cfg config.SummaryConfig) *Pipeline {
	return &Pipeline{
		store:      store,
		summarizer: summarizer,
		logger:     logger.With("component", "summary_pipeline"),
		cfg:        cfg,
	}
}

// Run executes one summarization cycle. An empty backlog is a zero-work
// success. On summarizer failure the backlog stays untouched and the error
// is returned together with the snapshot size that would have been covered.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	messages, err := p.store.GetUnprocessedMessages(ctx)
	if err != nil {
		return &Result{}, fmt.Errorf("failed to snapshot backlog: %w", err)
	}

	if len(messages) == 0 {
		p.logger.DebugContext(ctx, "No unprocessed messages, skipping summarization")
		return &Result{}, nil
	}

	prompt := FormatBacklog(messages, p.cfg.MaxMessageLength, p.cfg.MaxPromptLength)
	if prompt == "" {
		p.logger.DebugContext(ctx, "Formatted prompt is empty, skipping summarization")
		return &Result{BacklogSize: len(messages)}, nil
	}

	p.logger.InfoContext(ctx, "Summarizing backlog",
		"messages", len(messages), "prompt_length", len(prompt))

	digest, err := p.summarizer.Summarize(ctx, prompt)
	if err != nil {
		return &Result{BacklogSize: len(messages)},
			fmt.Errorf("summarization failed, %d messages remain unprocessed: %w", len(messages), err)
	}

	keys := make([]database.MessageKey, len(messages))
	for i, msg := range messages {
		keys[i] = msg.Key()
	}

	// Snapshot order is ascending, so the last message anchors the checkpoint.
	last := messages[len(messages)-1]
	cp := database.Checkpoint{
		LastProcessedAt:        last.Timestamp,
		LastProcessedMessageID: last.MessageID,
		LastProcessedChatID:    last.ChatID,
	}

	marked, err := p.store.CommitBatch(ctx, keys, cp)
	if err != nil {
		return &Result{BacklogSize: len(messages)},
			fmt.Errorf("failed to commit summarized batch: %w", err)
	}

	p.logger.InfoContext(ctx, "Summarization cycle complete",
		"messages", len(messages), "marked", marked, "summary_length", len(digest))

	return &Result{
		BacklogSize: len(messages),
		Processed:   marked,
		Summary:     digest,
	}, nil
}
