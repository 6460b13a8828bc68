package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/headlamp-app/headlamp/internal/api/openai"
	"github.com/headlamp-app/headlamp/internal/domain"
	"github.com/headlamp-app/headlamp/internal/intake"
	"github.com/headlamp-app/headlamp/internal/storage/memory"
)

// scriptedClient replays a fixed sequence of completion responses.
type scriptedClient struct {
	responses []*openai.ChatCompletionResponse
	calls     int
}

func (s *scriptedClient) CreateChatCompletion(_ context.Context, _ *openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	if s.calls >= len(s.responses) {
		return nil, fmt.Errorf("unexpected completion call %d", s.calls)
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

func reply(content string) *openai.ChatCompletionResponse {
	return &openai.ChatCompletionResponse{
		Model: "gpt-4.1",
		Choices: []openai.Choice{
			{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}, FinishReason: "stop"},
		},
	}
}

func newTestServer(t *testing.T, store *memory.Store, client intake.CompletionClient) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine, err := intake.NewEngine(client, store, store, "gpt-4.1", logger)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	apps := intake.NewApplications(store, engine, logger)
	orchestrator := intake.NewOrchestrator(store, engine, apps, logger)

	r := chi.NewRouter()
	NewHandler(orchestrator, apps, "headlamp-test", logger).Register(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func TestHandleChat(t *testing.T) {
	store := memory.New()
	client := &scriptedClient{responses: []*openai.ChatCompletionResponse{
		reply("Hello! What brings you here today?"),
	}}
	server := newTestServer(t, store, client)

	resp, err := http.Post(server.URL+"/api/chat", "application/json",
		strings.NewReader(`{"message": "Hi"}`))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.UserID == uuid.Nil {
		t.Error("expected a server-assigned user id")
	}
	if body.Message != "Hello! What brings you here today?" {
		t.Errorf("message = %q", body.Message)
	}
	if body.Orgs != nil || body.ApplicationDraft != nil {
		t.Errorf("plain turn carried extras: %+v", body)
	}
}

func TestHandleChatValidation(t *testing.T) {
	store := memory.New()
	server := newTestServer(t, store, &scriptedClient{})

	cases := []struct {
		name string
		body string
	}{
		{name: "empty message", body: `{"message": ""}`},
		{name: "malformed json", body: `{`},
		{name: "mixed phases", body: `{"message": "x", "clickedOrgIds": [1], "doApply": [2]}`},
		{name: "submission without draft", body: `{"message": "x", "doApply": [1]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/api/chat", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("Post() error = %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestApplicationEndpoints(t *testing.T) {
	store := memory.New()
	store.SeedOrganizations([]domain.Organization{
		{ID: 1, OrganizationName: "Org A", ProgramName: "Program A"},
	})
	server := newTestServer(t, store, &scriptedClient{})

	userID := uuid.New()
	ctx := context.Background()
	if _, err := store.EnsureUser(ctx, userID); err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}
	if _, err := store.CreateApplication(ctx, userID, 1, "application content"); err != nil {
		t.Fatalf("CreateApplication() error = %v", err)
	}

	t.Run("by user", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/applications?user_id=" + userID.String())
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		defer resp.Body.Close()

		var apps []domain.Application
		if err := json.NewDecoder(resp.Body).Decode(&apps); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(apps) != 1 || apps[0].Content != "application content" {
			t.Errorf("applications = %+v", apps)
		}
	})

	t.Run("by user with no applications", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/applications?user_id=" + uuid.NewString())
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		defer resp.Body.Close()

		raw, _ := io.ReadAll(resp.Body)
		if strings.TrimSpace(string(raw)) != "[]" {
			t.Errorf("body = %q, want empty array", raw)
		}
	})

	t.Run("bad user id", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/applications?user_id=not-a-uuid")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("by organization", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/applications/1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		defer resp.Body.Close()

		var apps []domain.Application
		if err := json.NewDecoder(resp.Body).Decode(&apps); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(apps) != 1 || apps[0].OrganizationID != 1 {
			t.Errorf("applications = %+v", apps)
		}
	})

	t.Run("bad organization id", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/applications/abc")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t, memory.New(), &scriptedClient{})

	resp, err := http.Get(server.URL + "/api/health")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.Status != "ok" || status.Service != "headlamp-test" {
		t.Errorf("health = %+v", status)
	}
}
