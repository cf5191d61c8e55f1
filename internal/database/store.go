package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/edgard/teledigest/internal/errors"
)

// Store defines the interface for data storage operations.
type Store interface {
	// Ping verifies the database connection is alive.
	Ping(ctx context.Context) error

	// InsertMessage persists a collected message. Re-inserting an existing
	// (message_id, chat_id) pair is a no-op; the stored row, including its
	// processed flag, is never modified. Returns true if a row was inserted.
	InsertMessage(ctx context.Context, msg *Message) (bool, error)

	// CountMessages returns the total number of stored messages.
	CountMessages(ctx context.Context) (int64, error)

	// CountMessagesInChat returns the number of stored messages for one chat.
	CountMessagesInChat(ctx context.Context, chatID int64) (int64, error)

	// GetUnprocessedMessages returns the current backlog in deterministic
	// order: timestamp, then message_id, then chat_id, all ascending.
	GetUnprocessedMessages(ctx context.Context) ([]*Message, error)

	// MarkMessagesAsProcessed sets processed=1 for exactly the given keys.
	// Keys already processed or absent are skipped. Returns the number of
	// rows actually flipped.
	MarkMessagesAsProcessed(ctx context.Context, keys []MessageKey) (int64, error)

	// CommitBatch marks the given keys processed and advances the checkpoint
	// in a single transaction. On error nothing is mutated. Returns the
	// number of rows flipped to processed.
	CommitBatch(ctx context.Context, keys []MessageKey, cp Checkpoint) (int64, error)

	// GetCheckpoint returns the summarization checkpoint. The row is seeded
	// by migrations, so it always exists.
	GetCheckpoint(ctx context.Context) (*Checkpoint, error)

	// GetRecentMessages returns up to limit messages, newest first.
	GetRecentMessages(ctx context.Context, limit int) ([]*Message, error)

	// GetStatistics aggregates message counts for the dashboard.
	GetStatistics(ctx context.Context) (*Statistics, error)

	// GetLastSummaryTimestamp returns the timestamp of the newest processed
	// message, or nil when no message has been summarized yet.
	GetLastSummaryTimestamp(ctx context.Context) (*time.Time, error)
}

// sqlxStore implements the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store instance backed by the given database.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.NewDatabaseError("failed to ping database", err)
	}
	return nil
}

func (s *sqlxStore) InsertMessage(ctx context.Context, msg *Message) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error before inserting message: %w", err)
	}
	if msg == nil {
		return false, apperrors.NewValidationError("message cannot be nil", nil)
	}
	if msg.MessageID == 0 || msg.ChatID == 0 {
		return false, apperrors.NewValidationError("message requires message_id and chat_id", nil)
	}
	if msg.Timestamp.IsZero() {
		return false, apperrors.NewValidationError("message requires a timestamp", nil)
	}
	if msg.Kind == "" {
		msg.Kind = KindChat
	}

	query := `
		INSERT OR IGNORE INTO messages
			(message_id, chat_id, sender, kind, text, timestamp, processed)
		VALUES
			(:message_id, :chat_id, :sender, :kind, :text, :timestamp, 0)`

	res, err := s.db.NamedExecContext(ctx, query, msg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return false, fmt.Errorf("context ended during message insert: %w", err)
		}
		return false, apperrors.NewDatabaseError("failed to insert message", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewDatabaseError("failed to get rows affected for message insert", err)
	}

	if rows == 0 {
		s.logger.DebugContext(ctx, "Duplicate message ignored",
			"message_id", msg.MessageID, "chat_id", msg.ChatID)
		return false, nil
	}

	s.logger.DebugContext(ctx, "Message stored",
		"message_id", msg.MessageID, "chat_id", msg.ChatID, "kind", msg.Kind)
	return true, nil
}

func (s *sqlxStore) CountMessages(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error before counting messages: %w", err)
	}

	var count int64
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM messages"); err != nil {
		return 0, apperrors.NewDatabaseError("failed to count messages", err)
	}
	return count, nil
}

func (s *sqlxStore) CountMessagesInChat(ctx context.Context, chatID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error before counting messages: %w", err)
	}

	var count int64
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM messages WHERE chat_id = ?", chatID)
	if err != nil {
		return 0, apperrors.NewDatabaseError("failed to count messages for chat", err)
	}
	return count, nil
}

func (s *sqlxStore) GetUnprocessedMessages(ctx context.Context) ([]*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error before fetching unprocessed messages: %w", err)
	}

	query := `
		SELECT message_id, chat_id, sender, kind, text, timestamp, processed, created_at
		FROM messages
		WHERE processed = 0
		ORDER BY timestamp ASC, message_id ASC, chat_id ASC`

	messages := []*Message{}
	if err := s.db.SelectContext(ctx, &messages, query); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("context ended while fetching unprocessed messages: %w", err)
		}
		return nil, apperrors.NewDatabaseError("failed to get unprocessed messages", err)
	}

	s.logger.DebugContext(ctx, "Fetched unprocessed messages", "count", len(messages))
	return messages, nil
}

func (s *sqlxStore) MarkMessagesAsProcessed(ctx context.Context, keys []MessageKey) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error before marking messages processed: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewDatabaseError("failed to begin transaction for marking messages", err)
	}
	defer func() {
		if tx != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.ErrorContext(ctx, "Failed to rollback mark transaction", "error", rbErr)
			}
		}
	}()

	marked, err := markProcessedTx(ctx, tx, keys)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewDatabaseError("failed to commit mark transaction", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Marked messages as processed",
		"requested", len(keys), "marked", marked)
	return marked, nil
}

func (s *sqlxStore) CommitBatch(ctx context.Context, keys []MessageKey, cp Checkpoint) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error before committing batch: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewDatabaseError("failed to begin batch transaction", err)
	}
	defer func() {
		if tx != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.ErrorContext(ctx, "Failed to rollback batch transaction", "error", rbErr)
			}
		}
	}()

	marked, err := markProcessedTx(ctx, tx, keys)
	if err != nil {
		return 0, err
	}

	query := `
		UPDATE summary_state
		SET last_processed_at = ?,
		    last_processed_message_id = ?,
		    last_processed_chat_id = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1`

	if _, err := tx.ExecContext(ctx, query,
		cp.LastProcessedAt, cp.LastProcessedMessageID, cp.LastProcessedChatID); err != nil {
		return 0, apperrors.NewDatabaseError("failed to advance checkpoint", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewDatabaseError("failed to commit batch transaction", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Committed summarization batch",
		"requested", len(keys), "marked", marked,
		"checkpoint_at", cp.LastProcessedAt)
	return marked, nil
}

// markProcessedTx flips processed=1 for the given keys within tx. Composite
// keys rule out a single IN clause, so each key is updated individually; the
// surrounding transaction keeps the batch atomic.
func markProcessedTx(ctx context.Context, tx *sqlx.Tx, keys []MessageKey) (int64, error) {
	stmt, err := tx.PrepareContext(ctx,
		"UPDATE messages SET processed = 1 WHERE message_id = ? AND chat_id = ? AND processed = 0")
	if err != nil {
		return 0, apperrors.NewDatabaseError("failed to prepare mark statement", err)
	}
	defer stmt.Close()

	var marked int64
	for _, key := range keys {
		res, err := stmt.ExecContext(ctx, key.MessageID, key.ChatID)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return 0, fmt.Errorf("context ended while marking messages: %w", err)
			}
			return 0, apperrors.NewDatabaseError("failed to mark message as processed", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return 0, apperrors.NewDatabaseError("failed to get rows affected for mark", err)
		}
		marked += rows
	}
	return marked, nil
}

func (s *sqlxStore) GetCheckpoint(ctx context.Context) (*Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error before fetching checkpoint: %w", err)
	}

	query := `
		SELECT last_processed_at, last_processed_message_id, last_processed_chat_id, updated_at
		FROM summary_state
		WHERE id = 1`

	cp := &Checkpoint{}
	if err := s.db.GetContext(ctx, cp, query); err != nil {
		return nil, apperrors.NewDatabaseError("failed to get checkpoint", err)
	}
	return cp, nil
}

func (s *sqlxStore) GetRecentMessages(ctx context.Context, limit int) ([]*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error before fetching recent messages: %w", err)
	}
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT message_id, chat_id, sender, kind, text, timestamp, processed, created_at
		FROM messages
		ORDER BY timestamp DESC, message_id DESC, chat_id DESC
		LIMIT ?`

	messages := []*Message{}
	if err := s.db.SelectContext(ctx, &messages, query, limit); err != nil {
		return nil, apperrors.NewDatabaseError("failed to get recent messages", err)
	}
	return messages, nil
}

func (s *sqlxStore) GetStatistics(ctx context.Context) (*Statistics, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error before fetching statistics: %w", err)
	}

	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(DISTINCT CASE WHEN kind = ? THEN chat_id END) AS channels,
			COUNT(DISTINCT CASE WHEN kind = ? THEN chat_id END) AS chats,
			COALESCE(SUM(CASE WHEN processed = 1 THEN 1 ELSE 0 END), 0) AS processed,
			COALESCE(SUM(CASE WHEN processed = 0 THEN 1 ELSE 0 END), 0) AS not_processed
		FROM messages`

	stats := &Statistics{}
	if err := s.db.GetContext(ctx, stats, query, KindChannel, KindChat); err != nil {
		return nil, apperrors.NewDatabaseError("failed to get message statistics", err)
	}
	return stats, nil
}

func (s *sqlxStore) GetLastSummaryTimestamp(ctx context.Context) (*time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error before fetching last summary timestamp: %w", err)
	}

	query := `
		SELECT timestamp FROM messages
		WHERE processed = 1
		ORDER BY timestamp DESC
		LIMIT 1`

	var ts time.Time
	if err := s.db.GetContext(ctx, &ts, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewDatabaseError("failed to get last summary timestamp", err)
	}
	return &ts, nil
}
