package dashboard

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edgard/teledigest/internal/database"
	"github.com/edgard/teledigest/internal/timeutil"
)

const defaultMessageLimit = 100

type handler struct {
	store  database.Store
	loc    *time.Location
	logger *slog.Logger
}

func newHandler(store database.Store, loc *time.Location, logger *slog.Logger) *handler {
	return &handler{store: store, loc: loc, logger: logger}
}

type messageView struct {
	MessageID int64  `json:"message_id"`
	ChatID    int64  `json:"chat_id"`
	Sender    string `json:"sender"`
	Kind      string `json:"kind"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Processed bool   `json:"processed"`
}

func (h *handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "teledigest",
		"endpoints": gin.H{
			"health":     "/health",
			"stats":      "/stats",
			"messages":   "/messages?limit=<n>",
			"chat_count": "/chats/<chat_id>/count",
		},
	})
}

func (h *handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.store.GetStatistics(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to fetch statistics", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch statistics"})
		return
	}

	lastSummary, err := h.store.GetLastSummaryTimestamp(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to fetch last summary timestamp", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch last summary timestamp"})
		return
	}

	var lastSummaryAt *string
	if lastSummary != nil {
		formatted := timeutil.FormatInLocation(*lastSummary, h.loc)
		lastSummaryAt = &formatted
	}

	c.JSON(http.StatusOK, gin.H{
		"total":           stats.Total,
		"channels":        stats.Channels,
		"chats":           stats.Chats,
		"processed":       stats.Processed,
		"not_processed":   stats.NotProcessed,
		"last_summary_at": lastSummaryAt,
	})
}

func (h *handler) ChatCount(c *gin.Context) {
	ctx := c.Request.Context()

	chatID, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chat_id must be an integer"})
		return
	}

	count, err := h.store.CountMessagesInChat(ctx, chatID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to count chat messages", "error", err, "chat_id", chatID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chat_id": chatID,
		"count":   count,
	})
}

func (h *handler) Messages(c *gin.Context) {
	ctx := c.Request.Context()

	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	messages, err := h.store.GetRecentMessages(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to fetch recent messages", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		return
	}

	views := make([]messageView, len(messages))
	for i, msg := range messages {
		views[i] = messageView{
			MessageID: msg.MessageID,
			ChatID:    msg.ChatID,
			Sender:    msg.Sender.String,
			Kind:      string(msg.Kind),
			Text:      msg.Text.String,
			Timestamp: timeutil.FormatInLocation(msg.Timestamp, h.loc),
			Processed: msg.Processed,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(views),
		"messages": views,
	})
}
