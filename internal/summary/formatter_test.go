package summary

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/edgard/teledigest/internal/database"
)

func testMessage(id, chatID int64, sender, text string) *database.Message {
	return &database.Message{
		MessageID: id,
		ChatID:    chatID,
		Sender:    sql.NullString{String: sender, Valid: sender != ""},
		Kind:      database.KindChat,
		Text:      sql.NullString{String: text, Valid: text != ""},
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatBacklog(t *testing.T) {
	t.Parallel()

	t.Run("empty backlog yields empty string", func(t *testing.T) {
		t.Parallel()

		if got := FormatBacklog(nil, 300, 10000); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
		if got := FormatBacklog([]*database.Message{}, 300, 10000); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})

	t.Run("groups by chat in first appearance order", func(t *testing.T) {
		t.Parallel()

		msgs := []*database.Message{
			testMessage(1, 100, "alice", "hello"),
			testMessage(2, 200, "bob", "hi there"),
			testMessage(3, 100, "carol", "how are you"),
		}

		got := FormatBacklog(msgs, 300, 10000)

		if !strings.HasPrefix(got, "Messages from 2 chats:") {
			t.Errorf("unexpected header: %q", got)
		}

		idx100 := strings.Index(got, "(chat ID: 100)")
		idx200 := strings.Index(got, "(chat ID: 200)")
		if idx100 == -1 || idx200 == -1 {
			t.Fatalf("missing chat sections in output:\n%s", got)
		}
		if idx100 > idx200 {
			t.Errorf("chat 100 should appear before chat 200:\n%s", got)
		}

		if !strings.Contains(got, "alice: hello") {
			t.Errorf("missing message line for alice:\n%s", got)
		}
		if !strings.Contains(got, "carol: how are you") {
			t.Errorf("messages of the same chat should share a section:\n%s", got)
		}
	})

	t.Run("section named after first non-empty sender", func(t *testing.T) {
		t.Parallel()

		msgs := []*database.Message{
			testMessage(1, 100, "", "anonymous first"),
			testMessage(2, 100, "dave", "named second"),
		}

		got := FormatBacklog(msgs, 300, 10000)
		if !strings.Contains(got, "--- dave (chat ID: 100) ---") {
			t.Errorf("expected section named after dave:\n%s", got)
		}
		if !strings.Contains(got, "Unknown: anonymous first") {
			t.Errorf("expected Unknown fallback for empty sender:\n%s", got)
		}
	})

	t.Run("falls back to numeric chat label", func(t *testing.T) {
		t.Parallel()

		msgs := []*database.Message{testMessage(1, 42, "", "no names here")}

		got := FormatBacklog(msgs, 300, 10000)
		if !strings.Contains(got, "--- Chat 42 (chat ID: 42) ---") {
			t.Errorf("expected numeric chat label:\n%s", got)
		}
	})

	t.Run("long message is cut with ellipsis", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("x", 500)
		msgs := []*database.Message{testMessage(1, 100, "alice", long)}

		got := FormatBacklog(msgs, 300, 10000)
		want := "alice: " + strings.Repeat("x", 300) + "..."
		if !strings.Contains(got, want) {
			t.Errorf("expected truncated message line in output")
		}
		if strings.Contains(got, strings.Repeat("x", 301)) {
			t.Errorf("message exceeds the per-message cap")
		}
	})

	t.Run("message at the cap is untouched", func(t *testing.T) {
		t.Parallel()

		exact := strings.Repeat("y", 300)
		msgs := []*database.Message{testMessage(1, 100, "alice", exact)}

		got := FormatBacklog(msgs, 300, 10000)
		if !strings.Contains(got, "alice: "+exact+"\n") {
			t.Errorf("message of exactly max length should not be truncated")
		}
		if strings.Contains(got, exact+"...") {
			t.Errorf("unexpected ellipsis on message at the cap")
		}
	})

	t.Run("prompt cap appends truncation marker", func(t *testing.T) {
		t.Parallel()

		var msgs []*database.Message
		for i := int64(1); i <= 50; i++ {
			msgs = append(msgs, testMessage(i, 100, "alice", strings.Repeat("z", 200)))
		}

		const maxPrompt = 1000
		got := FormatBacklog(msgs, 300, maxPrompt)

		if !strings.HasSuffix(got, TruncationMarker) {
			t.Errorf("expected truncation marker suffix, got tail %q", got[len(got)-40:])
		}
		if n := len([]rune(got)); n > maxPrompt {
			t.Errorf("prompt length %d exceeds cap %d", n, maxPrompt)
		}
	})

	t.Run("short prompt has no truncation marker", func(t *testing.T) {
		t.Parallel()

		msgs := []*database.Message{testMessage(1, 100, "alice", "short")}
		got := FormatBacklog(msgs, 300, 10000)
		if strings.Contains(got, TruncationMarker) {
			t.Errorf("unexpected truncation marker in short prompt")
		}
	})
}
