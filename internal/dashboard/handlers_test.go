package dashboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edgard/teledigest/internal/database"
)

type stubStore struct {
	pingErr     error
	stats       *database.Statistics
	statsErr    error
	lastSummary *time.Time
	recent      []*database.Message
	recentLimit int
	chatCount   int64
	countedChat int64
}

func (s *stubStore) Ping(context.Context) error { return s.pingErr }

func (s *stubStore) InsertMessage(context.Context, *database.Message) (bool, error) {
	return false, errors.New("read only")
}

func (s *stubStore) CountMessages(context.Context) (int64, error) { return 0, nil }

func (s *stubStore) CountMessagesInChat(_ context.Context, chatID int64) (int64, error) {
	s.countedChat = chatID
	return s.chatCount, nil
}

func (s *stubStore) GetUnprocessedMessages(context.Context) ([]*database.Message, error) {
	return nil, nil
}

func (s *stubStore) MarkMessagesAsProcessed(context.Context, []database.MessageKey) (int64, error) {
	return 0, errors.New("read only")
}

func (s *stubStore) CommitBatch(context.Context, []database.MessageKey, database.Checkpoint) (int64, error) {
	return 0, errors.New("read only")
}

func (s *stubStore) GetCheckpoint(context.Context) (*database.Checkpoint, error) {
	return &database.Checkpoint{}, nil
}

func (s *stubStore) GetRecentMessages(_ context.Context, limit int) ([]*database.Message, error) {
	s.recentLimit = limit
	return s.recent, nil
}

func (s *stubStore) GetStatistics(context.Context) (*database.Statistics, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	return s.stats, nil
}

func (s *stubStore) GetLastSummaryTimestamp(context.Context) (*time.Time, error) {
	return s.lastSummary, nil
}

func newTestRouter(store database.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := newHandler(store, time.UTC, slog.New(slog.DiscardHandler))

	r := gin.New()
	r.GET("/", h.Index)
	r.GET("/health", h.Health)
	r.GET("/stats", h.Stats)
	r.GET("/messages", h.Messages)
	r.GET("/chats/:chat_id/count", h.ChatCount)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)

	var body map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode response body: %v", err)
		}
	}
	return w, body
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()

		w, body := doRequest(t, newTestRouter(&stubStore{}), "/health")
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if body["status"] != "ok" {
			t.Errorf("unexpected body: %v", body)
		}
	})

	t.Run("unhealthy when database unreachable", func(t *testing.T) {
		t.Parallel()

		store := &stubStore{pingErr: errors.New("down")}
		w, body := doRequest(t, newTestRouter(store), "/health")
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", w.Code)
		}
		if body["status"] != "unhealthy" {
			t.Errorf("unexpected body: %v", body)
		}
	})
}

func TestStatsHandler(t *testing.T) {
	t.Parallel()

	t.Run("reports counters and last summary", func(t *testing.T) {
		t.Parallel()

		last := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
		store := &stubStore{
			stats: &database.Statistics{
				Total:        10,
				Channels:     2,
				Chats:        3,
				Processed:    7,
				NotProcessed: 3,
			},
			lastSummary: &last,
		}

		w, body := doRequest(t, newTestRouter(store), "/stats")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		if body["total"] != float64(10) || body["channels"] != float64(2) || body["chats"] != float64(3) {
			t.Errorf("unexpected counters: %v", body)
		}
		if body["last_summary_at"] != "2025-06-01 09:00:00" {
			t.Errorf("last_summary_at = %v", body["last_summary_at"])
		}
	})

	t.Run("null last summary before first run", func(t *testing.T) {
		t.Parallel()

		store := &stubStore{stats: &database.Statistics{}}
		w, body := doRequest(t, newTestRouter(store), "/stats")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if body["last_summary_at"] != nil {
			t.Errorf("last_summary_at = %v, want null", body["last_summary_at"])
		}
	})

	t.Run("store failure yields 500", func(t *testing.T) {
		t.Parallel()

		store := &stubStore{statsErr: errors.New("broken")}
		w, _ := doRequest(t, newTestRouter(store), "/stats")
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
	})
}

func TestMessagesHandler(t *testing.T) {
	t.Parallel()

	t.Run("returns recent messages", func(t *testing.T) {
		t.Parallel()

		store := &stubStore{
			recent: []*database.Message{
				{
					MessageID: 5,
					ChatID:    100,
					Sender:    sql.NullString{String: "alice", Valid: true},
					Kind:      database.KindChat,
					Text:      sql.NullString{String: "hi", Valid: true},
					Timestamp: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
					Processed: true,
				},
			},
		}

		w, body := doRequest(t, newTestRouter(store), "/messages")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if body["count"] != float64(1) {
			t.Errorf("count = %v, want 1", body["count"])
		}
		if store.recentLimit != defaultMessageLimit {
			t.Errorf("default limit = %d, want %d", store.recentLimit, defaultMessageLimit)
		}
	})

	t.Run("honors limit parameter", func(t *testing.T) {
		t.Parallel()

		store := &stubStore{}
		w, _ := doRequest(t, newTestRouter(store), "/messages?limit=5")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if store.recentLimit != 5 {
			t.Errorf("limit = %d, want 5", store.recentLimit)
		}
	})

	t.Run("per chat count", func(t *testing.T) {
		t.Parallel()

		store := &stubStore{chatCount: 12}
		w, body := doRequest(t, newTestRouter(store), "/chats/-100200/count")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if store.countedChat != -100200 {
			t.Errorf("counted chat = %d, want -100200", store.countedChat)
		}
		if body["count"] != float64(12) {
			t.Errorf("count = %v, want 12", body["count"])
		}
	})

	t.Run("rejects non numeric chat id", func(t *testing.T) {
		t.Parallel()

		w, _ := doRequest(t, newTestRouter(&stubStore{}), "/chats/abc/count")
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("rejects invalid limit", func(t *testing.T) {
		t.Parallel()

		w, _ := doRequest(t, newTestRouter(&stubStore{}), "/messages?limit=zero")
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}

		w, _ = doRequest(t, newTestRouter(&stubStore{}), "/messages?limit=-1")
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}
