package intake

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/headlamp-app/headlamp/internal/api/openai"
	"github.com/headlamp-app/headlamp/internal/domain"
	"github.com/headlamp-app/headlamp/internal/storage/memory"
)

// fakeClient replays a scripted sequence of completion responses and records
// every request it receives.
type fakeClient struct {
	requests  []*openai.ChatCompletionRequest
	responses []*openai.ChatCompletionResponse
	errs      []error
}

func (f *fakeClient) CreateChatCompletion(_ context.Context, req *openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	call := len(f.requests)
	f.requests = append(f.requests, req)

	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	if call >= len(f.responses) {
		return nil, fmt.Errorf("unexpected completion call %d", call)
	}
	return f.responses[call], nil
}

func textResponse(content string) *openai.ChatCompletionResponse {
	return &openai.ChatCompletionResponse{
		Model: "gpt-4.1",
		Choices: []openai.Choice{
			{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}, FinishReason: "stop"},
		},
	}
}

func toolCallResponse(content string, calls ...openai.ToolCall) *openai.ChatCompletionResponse {
	return &openai.ChatCompletionResponse{
		Model: "gpt-4.1",
		Choices: []openai.Choice{
			{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content, ToolCalls: calls}, FinishReason: "tool_calls"},
		},
	}
}

func toolCall(id, name, args string) openai.ToolCall {
	return openai.ToolCall{
		ID:       id,
		Type:     "function",
		Function: openai.FunctionCall{Name: name, Arguments: args},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testOrgs returns n candidate organizations with ids 1..n. Even ids carry a
// description, odd ids rely on the program/name fallback.
func testOrgs(n int) []domain.Organization {
	orgs := make([]domain.Organization, n)
	for i := range orgs {
		id := i + 1
		orgs[i] = domain.Organization{
			ID:               id,
			OrganizationName: fmt.Sprintf("Org %d", id),
			ProgramName:      fmt.Sprintf("Program %d", id),
		}
		if id%2 == 0 {
			orgs[i].Description = fmt.Sprintf("Services for need %d", id)
		}
	}
	return orgs
}

func newTestEngine(t *testing.T, client CompletionClient, store *memory.Store) *Engine {
	t.Helper()
	engine, err := NewEngine(client, store, store, "gpt-4.1", testLogger())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}
