package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus/hooks/test"

	"health-assistant/internal/model"
	"health-assistant/internal/ratelimit"
	"health-assistant/internal/service"
	"health-assistant/internal/storage"
)

type stubChatModel struct {
	content string
	err     error
	calls   int
}

func (s *stubChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.content, nil), nil
}

func (s *stubChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func setupTestRouter(chatModel einoModel.BaseChatModel, store storage.ChatRecordStore, limiter ratelimit.Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()

	svc := service.NewAssistantService(chatModel, store, service.NewAssembler(20, 0, nil), service.Options{}, log)
	h := NewAssistantHandler(svc, "groq")

	router := gin.New()
	router.Use(RequestLogger(log))
	api := router.Group("/api/health-assistant")
	api.POST("/chat", RateLimit(limiter), h.Chat)
	api.GET("/quick-symptoms", h.QuickSymptoms)
	api.GET("/urgency-levels", h.UrgencyLevels)
	api.GET("/history/:user_id", h.History)
	return router
}

func postChat(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/health-assistant/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestChatBadRequest(t *testing.T) {
	chatModel := &stubChatModel{}
	router := setupTestRouter(chatModel, storage.NewMemoryStorage(), nil)

	for _, body := range []string{`{"message":"   "}`, `{}`, `not json`} {
		rec := postChat(t, router, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
		if got := string(decode(t, rec)["error"]); got != `"Message is required"` {
			t.Errorf("body %q: error = %s", body, got)
		}
	}
	if chatModel.calls != 0 {
		t.Errorf("model called %d times", chatModel.calls)
	}
}

func TestChatEmergency(t *testing.T) {
	chatModel := &stubChatModel{}
	router := setupTestRouter(chatModel, storage.NewMemoryStorage(), nil)

	rec := postChat(t, router, `{"message":"I have CHEST PAIN","userId":"u1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp model.TriageResponse
	if err := json.Unmarshal(decode(t, rec)["response"], &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.IsEmergency || resp.Urgency != model.UrgencyEmergency || len(resp.Actions) != 4 {
		t.Errorf("response = %+v", resp)
	}
	if chatModel.calls != 0 {
		t.Errorf("model called %d times, want 0", chatModel.calls)
	}
}

func TestChatNormalizedResponse(t *testing.T) {
	chatModel := &stubChatModel{content: "Sure!\n```json\n{\"analysis\":\"tension headache\",\"urgency\":\"moderate\",\"is_emergency\":false}\n```"}
	router := setupTestRouter(chatModel, storage.NewMemoryStorage(), nil)

	rec := postChat(t, router, `{"message":"headache","conversationHistory":[{"role":"user","content":"hi"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp model.TriageResponse
	if err := json.Unmarshal(decode(t, rec)["response"], &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Analysis != "tension headache" || resp.Urgency != model.UrgencyModerate || resp.Disclaimer == "" {
		t.Errorf("response = %+v", resp)
	}
}

func TestChatUpstreamErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		wantHint bool
	}{
		{"auth", &openai.APIError{HTTPStatusCode: 401, Message: "Invalid API Key"}, http.StatusUnauthorized, true},
		{"rate limit", &openai.APIError{HTTPStatusCode: 429, Message: "Rate limit reached"}, http.StatusTooManyRequests, false},
		{"other", errors.New("boom"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(&stubChatModel{err: tt.err}, storage.NewMemoryStorage(), nil)
			rec := postChat(t, router, `{"message":"I feel tired"}`)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			body := decode(t, rec)
			if _, ok := body["error"]; !ok {
				t.Error("missing error field")
			}
			if _, ok := body["hint"]; ok != tt.wantHint {
				t.Errorf("hint present = %v, want %v", ok, tt.wantHint)
			}
			if bytes.Contains(rec.Body.Bytes(), []byte("boom")) {
				t.Error("raw upstream error leaked to caller")
			}
		})
	}
}

func TestChatRateLimited(t *testing.T) {
	router := setupTestRouter(&stubChatModel{content: "{}"}, storage.NewMemoryStorage(), ratelimit.NewMemoryLimiter(1, 1))

	if rec := postChat(t, router, `{"message":"cough"}`); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := postChat(t, router, `{"message":"cough"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
}

func TestQuickSymptomsAndUrgencyLevels(t *testing.T) {
	router := setupTestRouter(&stubChatModel{}, storage.NewMemoryStorage(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health-assistant/quick-symptoms", nil))
	var symptoms []string
	if err := json.Unmarshal(decode(t, rec)["symptoms"], &symptoms); err != nil {
		t.Fatal(err)
	}
	if len(symptoms) != 8 || symptoms[0] != "Headache" {
		t.Errorf("symptoms = %v", symptoms)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health-assistant/urgency-levels", nil))
	var levels []model.UrgencyLevel
	if err := json.Unmarshal(decode(t, rec)["levels"], &levels); err != nil {
		t.Fatal(err)
	}
	if len(levels) != 4 || levels[3].Value != model.UrgencyEmergency || levels[3].Label == "" {
		t.Errorf("levels = %+v", levels)
	}
}

func TestHistory(t *testing.T) {
	store := storage.NewMemoryStorage()
	router := setupTestRouter(&stubChatModel{}, store, nil)

	rec := postChat(t, router, `{"message":"severe bleeding","userId":"u1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d", rec.Code)
	}

	var records []*model.ChatRecord
	// The record is written in the background.
	for i := 0; i < 100 && len(records) == 0; i++ {
		records, _ = store.ListByUser(context.Background(), "u1", 0)
		if len(records) == 0 {
			time.Sleep(10 * time.Millisecond)
		}
	}
	if len(records) != 1 {
		t.Fatalf("stored %d records, want 1", len(records))
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health-assistant/history/u1?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var got []model.ChatRecord
	if err := json.Unmarshal(decode(t, rec)["records"], &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].IsEmergency {
		t.Errorf("records = %+v", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health-assistant/history/u1?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid limit status = %d, want 400", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	router := setupTestRouter(&stubChatModel{}, storage.NewMemoryStorage(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health-assistant/quick-symptoms", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want req-123", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health-assistant/quick-symptoms", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing generated request ID")
	}
}
