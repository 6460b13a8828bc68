package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/headlamp-app/headlamp/internal/testutil"
)

func TestClient_CreateChatCompletion(t *testing.T) {
	recorder, cleanup := testutil.NewVCRRecorder(t, "chat_completion")
	defer cleanup()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = "test-key"
	}

	client := NewClient(apiKey, WithHTTPClient(testutil.VCRHTTPClient(recorder)))

	resp, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model: "gpt-4.1",
		Messages: []ChatCompletionMessage{
			{Role: "user", Content: "Hello"},
		},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion() error = %v", err)
	}

	if len(resp.Choices) == 0 {
		t.Fatal("expected at least one choice")
	}
	if resp.Choices[0].Message.Content == "" {
		t.Error("expected content in response")
	}
	if resp.Choices[0].FinishReason != "stop" {
		t.Errorf("finish reason = %q", resp.Choices[0].FinishReason)
	}
}

func TestClient_SendsAuthAndBody(t *testing.T) {
	var gotAuth string
	var gotBody ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ChatCompletionResponse{
			Choices: []Choice{{Message: ChatCompletionMessage{Role: "assistant", Content: "ok"}}},
		})
	}))
	defer server.Close()

	client := NewClient("sk-abc", WithBaseURL(server.URL))
	_, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:      "gpt-4.1",
		Messages:   []ChatCompletionMessage{{Role: "user", Content: "hi"}},
		Tools:      []Tool{{Type: "function", Function: FunctionTool{Name: "match_nonprofits"}}},
		ToolChoice: ForceTool("match_nonprofits"),
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion() error = %v", err)
	}

	if gotAuth != "Bearer sk-abc" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotBody.Model != "gpt-4.1" || len(gotBody.Tools) != 1 {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))
	_, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{Model: "gpt-4.1"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "status 401") || !strings.Contains(err.Error(), "Incorrect API key provided") {
		t.Errorf("error = %v", err)
	}
}

func TestClient_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	client := NewClient("sk-abc", WithBaseURL(server.URL))
	_, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{Model: "gpt-4.1"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "upstream unavailable") {
		t.Errorf("error = %v", err)
	}
}

func TestForceTool(t *testing.T) {
	encoded, err := json.Marshal(ForceTool("extract_contact_information"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"function":{"name":"extract_contact_information"},"type":"function"}`
	if string(encoded) != want {
		t.Errorf("tool choice = %s, want %s", encoded, want)
	}
}
