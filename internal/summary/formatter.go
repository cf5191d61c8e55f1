// Package summary builds digest prompts from the message backlog and runs
// the summarization pipeline.
package summary

import (
	"fmt"
	"strings"

	"github.com/edgard/teledigest/internal/database"
)

// TruncationMarker is appended when the assembled prompt exceeds the total
// length cap. It counts toward the returned length.
const TruncationMarker = "\n\n[... content truncated ...]"

// FormatBacklog renders the backlog into the prompt text sent to the model.
// Messages are grouped by chat in order of first appearance, preserving the
// backlog order within each group. Individual texts longer than
// maxMessageLen runes are cut with a "..." suffix; the whole prompt is
// capped at maxPromptLen runes with an explicit truncation marker. An empty
// backlog yields an empty string.
func FormatBacklog(messages []*database.Message, maxMessageLen, maxPromptLen int) string {
	if len(messages) == 0 {
		return ""
	}

	chatOrder := []int64{}
	byChat := map[int64][]*database.Message{}
	for _, msg := range messages {
		if _, seen := byChat[msg.ChatID]; !seen {
			chatOrder = append(chatOrder, msg.ChatID)
		}
		byChat[msg.ChatID] = append(byChat[msg.ChatID], msg)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Messages from %d chats:\n\n", len(chatOrder))

	for _, chatID := range chatOrder {
		group := byChat[chatID]
		fmt.Fprintf(&sb, "--- %s (chat ID: %d) ---\n", chatLabel(chatID, group), chatID)

		for _, msg := range group {
			sender := "Unknown"
			if msg.Sender.Valid && msg.Sender.String != "" {
				sender = msg.Sender.String
			}
			fmt.Fprintf(&sb, "%s: %s\n", sender, truncateRunes(msg.Text.String, maxMessageLen))
		}
		sb.WriteString("\n")
	}

	prompt := strings.TrimRight(sb.String(), "\n")
	runes := []rune(prompt)
	if maxPromptLen > 0 && len(runes) > maxPromptLen {
		cut := maxPromptLen - len([]rune(TruncationMarker))
		if cut < 0 {
			cut = 0
		}
		prompt = string(runes[:cut]) + TruncationMarker
	}
	return prompt
}

// chatLabel names a chat section after the first non-empty sender seen in it,
// falling back to the numeric chat ID.
func chatLabel(chatID int64, group []*database.Message) string {
	for _, msg := range group {
		if msg.Sender.Valid && msg.Sender.String != "" {
			return msg.Sender.String
		}
	}
	return fmt.Sprintf("Chat %d", chatID)
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
