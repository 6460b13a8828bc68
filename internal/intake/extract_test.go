package intake

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/headlamp-app/headlamp/internal/api/openai"
	"github.com/headlamp-app/headlamp/internal/domain"
	"github.com/headlamp-app/headlamp/internal/storage/memory"
)

func TestExtractContactInfo(t *testing.T) {
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "I'm Jamie, you can reach me at jamie@example.com"},
	}

	t.Run("parses forced tool call", func(t *testing.T) {
		client := &fakeClient{responses: []*openai.ChatCompletionResponse{
			toolCallResponse("", toolCall("call_1", toolExtractContactInfo,
				`{"name": "Jamie", "phone": "", "email": "jamie@example.com"}`)),
		}}
		engine := newTestEngine(t, client, memory.New())

		info := engine.ExtractContactInfo(context.Background(), history)
		if info.Name != "Jamie" || info.Phone != "" || info.Email != "jamie@example.com" {
			t.Errorf("info = %+v", info)
		}

		req := client.requests[0]
		if req.ToolChoice == nil {
			t.Error("expected forced tool_choice")
		}
	})

	t.Run("malformed arguments degrade to empty fields", func(t *testing.T) {
		client := &fakeClient{responses: []*openai.ChatCompletionResponse{
			toolCallResponse("", toolCall("call_1", toolExtractContactInfo, `{"name": `)),
		}}
		engine := newTestEngine(t, client, memory.New())

		info := engine.ExtractContactInfo(context.Background(), history)
		if info.Name != "" || info.Phone != "" || info.Email != "" {
			t.Errorf("info = %+v, want all empty", info)
		}
	})

	t.Run("missing tool call degrades to empty fields", func(t *testing.T) {
		client := &fakeClient{responses: []*openai.ChatCompletionResponse{
			textResponse("I could not find any contact info"),
		}}
		engine := newTestEngine(t, client, memory.New())

		info := engine.ExtractContactInfo(context.Background(), history)
		if info != (domain.ContactInfo{}) {
			t.Errorf("info = %+v, want zero value", info)
		}
	})

	t.Run("transport error degrades to empty fields", func(t *testing.T) {
		client := &fakeClient{errs: []error{errors.New("connection refused")}}
		engine := newTestEngine(t, client, memory.New())

		info := engine.ExtractContactInfo(context.Background(), history)
		if info != (domain.ContactInfo{}) {
			t.Errorf("info = %+v, want zero value", info)
		}
	})
}

func TestGenerateApplicationContent(t *testing.T) {
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "I need help with housing"},
	}
	questions := []string{"Current housing situation?", "City?"}

	t.Run("returns model output", func(t *testing.T) {
		client := &fakeClient{responses: []*openai.ChatCompletionResponse{
			textResponse("Summary: needs housing.\n\nCurrent housing situation?: Unhoused"),
		}}
		engine := newTestEngine(t, client, memory.New())

		content, err := engine.GenerateApplicationContent(context.Background(), history, questions, "Org A")
		if err != nil {
			t.Fatalf("GenerateApplicationContent() error = %v", err)
		}
		if !strings.Contains(content, "needs housing") {
			t.Errorf("content = %q", content)
		}

		prompt := client.requests[0].Messages[1].Content
		if !strings.Contains(prompt, "Org A") {
			t.Errorf("prompt missing organization label: %q", prompt)
		}
		if !strings.Contains(prompt, "1. Current housing situation?") {
			t.Errorf("prompt missing numbered questions: %q", prompt)
		}
	})

	t.Run("empty output replaced by fallback sentence", func(t *testing.T) {
		client := &fakeClient{responses: []*openai.ChatCompletionResponse{
			textResponse(""),
		}}
		engine := newTestEngine(t, client, memory.New())

		content, err := engine.GenerateApplicationContent(context.Background(), history, questions, "Org A")
		if err != nil {
			t.Fatalf("GenerateApplicationContent() error = %v", err)
		}
		if content != contentFallback {
			t.Errorf("content = %q, want fallback", content)
		}
	})

	t.Run("transport error propagates", func(t *testing.T) {
		client := &fakeClient{errs: []error{errors.New("boom")}}
		engine := newTestEngine(t, client, memory.New())

		if _, err := engine.GenerateApplicationContent(context.Background(), history, questions, "Org A"); err == nil {
			t.Fatal("expected error")
		}
	})
}
