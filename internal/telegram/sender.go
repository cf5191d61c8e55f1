package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
)

// Telegram rejects messages longer than this; longer digests are split.
const maxMessageLength = 4096

// DigestSender delivers generated digests to the configured digest chat.
type DigestSender struct {
	b      *bot.Bot
	chatID int64
	logger *slog.Logger
}

// NewDigestSender creates a sender targeting chatID.
func NewDigestSender(b *bot.Bot, chatID int64, logger *slog.Logger) *DigestSender {
	return &DigestSender{
		b:      b,
		chatID: chatID,
		logger: logger.With("component", "digest_sender"),
	}
}

// SendDigest sends the digest text, split into chunks when it exceeds the
// Telegram message size limit.
func (s *DigestSender) SendDigest(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	for i, chunk := range splitMessage(text, maxMessageLength) {
		if _, err := s.b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: s.chatID,
			Text:   chunk,
		}); err != nil {
			return fmt.Errorf("failed to send digest chunk %d: %w", i+1, err)
		}
	}

	s.logger.InfoContext(ctx, "Digest delivered", "chat_id", s.chatID, "length", len(text))
	return nil
}

func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		n := limit
		if n > len(runes) {
			n = len(runes)
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}
