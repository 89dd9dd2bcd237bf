package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/meethub/cmd/server/internal/ai"
	"github.com/houzhh15/meethub/cmd/server/internal/hub"
	"github.com/houzhh15/meethub/cmd/server/internal/transcribe"
)

type stubTranscriber struct {
	ready bool
}

func (s *stubTranscriber) TranscribeChunk(ctx context.Context, samples []float32) (*transcribe.Fragment, error) {
	return nil, nil
}

func (s *stubTranscriber) TranscribeFile(ctx context.Context, path string) (string, error) {
	return "", nil
}

func (s *stubTranscriber) Ready() bool  { return s.ready }
func (s *stubTranscriber) Name() string { return "stub" }

func TestHandleHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	rooms := hub.New("meeting", nil, testLogger())
	inference := ai.NewInferenceHTTP("http://127.0.0.1:1", 200*time.Millisecond)
	r.GET("/health", HandleHealth(time.Now(), &stubTranscriber{ready: true}, inference, nil, rooms))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Status   string `json:"status"`
		Services struct {
			Transcription bool `json:"transcription"`
			AI            bool `json:"ai"`
			Retrieval     bool `json:"retrieval"`
		} `json:"services"`
		ActiveMeetings int `json:"active_meetings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q", resp.Status)
	}
	if !resp.Services.Transcription {
		t.Error("transcription = false, want true")
	}
	if resp.Services.Retrieval {
		t.Error("retrieval = true with nil engine")
	}
	if resp.ActiveMeetings != 0 {
		t.Errorf("active_meetings = %d", resp.ActiveMeetings)
	}
}

func TestHandleReadiness(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("ready transcriber", func(t *testing.T) {
		r := gin.New()
		r.GET("/readiness", HandleReadiness(&stubTranscriber{ready: true}))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readiness", nil))
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("degraded transcriber", func(t *testing.T) {
		r := gin.New()
		r.GET("/readiness", HandleReadiness(&stubTranscriber{ready: false}))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readiness", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", w.Code)
		}
	})
}
