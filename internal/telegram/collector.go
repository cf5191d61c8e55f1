package telegram

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/teledigest/internal/database"
)

const insertTimeout = 5 * time.Second

// Collector ingests incoming updates into the message store. It is the only
// write path for collected messages; everything downstream reads from the
// database.
type Collector struct {
	store  database.Store
	logger *slog.Logger
}

// NewCollector creates a collector persisting updates into store.
func NewCollector(store database.Store, logger *slog.Logger) *Collector {
	return &Collector{
		store:  store,
		logger: logger.With("component", "collector"),
	}
}

// Handler returns the catch-all update handler for bot registration.
func (c *Collector) Handler() bot.HandlerFunc {
	return c.handle
}

func (c *Collector) handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := mapUpdate(update)
	if msg == nil {
		c.logger.DebugContext(ctx, "Ignoring update without a storable message", "update_id", update.ID)
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	inserted, err := c.store.InsertMessage(dbCtx, msg)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to store incoming message",
			"error", err, "message_id", msg.MessageID, "chat_id", msg.ChatID)
		return
	}
	if !inserted {
		c.logger.DebugContext(ctx, "Skipped already collected message",
			"message_id", msg.MessageID, "chat_id", msg.ChatID)
	}
}

// mapUpdate converts a Telegram update into a storable message. Updates that
// carry neither a chat message nor a channel post map to nil. The peer kind
// is resolved here, once, from the chat type.
func mapUpdate(update *models.Update) *database.Message {
	if update == nil {
		return nil
	}

	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil || msg.ID == 0 || msg.Chat.ID == 0 {
		return nil
	}

	kind := database.KindChat
	if msg.Chat.Type == models.ChatTypeChannel {
		kind = database.KindChannel
	}

	return &database.Message{
		MessageID: int64(msg.ID),
		ChatID:    msg.Chat.ID,
		Sender:    nullString(senderName(msg)),
		Kind:      kind,
		Text:      nullString(messageText(msg)),
		Timestamp: time.Unix(int64(msg.Date), 0).UTC(),
	}
}

// senderName resolves a display name: full name, then username, then the
// chat title for channel posts that carry no sender.
func senderName(msg *models.Message) string {
	if msg.From != nil {
		name := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
		if name != "" {
			return name
		}
		if msg.From.Username != "" {
			return msg.From.Username
		}
	}
	return msg.Chat.Title
}

// messageText extracts the message text, falling back to the caption and
// then to a media placeholder so media-only messages still show up in
// digests.
func messageText(msg *models.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	if msg.Caption != "" {
		return msg.Caption
	}

	switch {
	case len(msg.Photo) > 0:
		return "[photo]"
	case msg.Video != nil:
		return "[video]"
	case msg.Document != nil:
		return "[document]"
	case msg.Voice != nil:
		return "[voice message]"
	case msg.Sticker != nil:
		if msg.Sticker.Emoji != "" {
			return "[sticker " + msg.Sticker.Emoji + "]"
		}
		return "[sticker]"
	}
	return ""
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
