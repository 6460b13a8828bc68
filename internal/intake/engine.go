package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/headlamp-app/headlamp/internal/api/openai"
	"github.com/headlamp-app/headlamp/internal/domain"
	"github.com/headlamp-app/headlamp/internal/storage"
)

// CompletionClient is the completion-service capability the engine consumes.
// *openai.Client satisfies it; tests substitute fakes.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req *openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error)
}

// Engine drives the multi-round exchange with the completion service. It is
// stateless across turns and safe for concurrent use.
type Engine struct {
	client    CompletionClient
	orgs      storage.OrgStore
	questions storage.IntakeQuestionStore
	model     string
	logger    *slog.Logger
}

// NewEngine constructs the engine. The client is injected explicitly; a nil
// client is a programming error caught here rather than on first call.
func NewEngine(client CompletionClient, orgs storage.OrgStore, questions storage.IntakeQuestionStore, model string, logger *slog.Logger) (*Engine, error) {
	if client == nil {
		return nil, domain.NewConfigError("completion client", "no completion client configured")
	}
	if model == "" {
		model = "gpt-4.1"
	}
	return &Engine{client: client, orgs: orgs, questions: questions, model: model, logger: logger}, nil
}

// EngineResult is the outcome of one dispatched turn. Match is non-nil only
// when the match_nonprofits tool fired, which is how the matching phase
// becomes visible to the caller.
type EngineResult struct {
	Message         string
	Model           string
	ToolInvocations []domain.ToolInvocation
	Match           *MatchResult
}

// GenerateResponse runs the tool-dispatch state machine for one inbound turn:
// a first completion call with the declared tool set, execution of any tool
// invocations in the order returned, and, only when at least one tool
// executed, exactly one follow-up call for the natural-language reply. Never
// more than two completion round-trips.
func (e *Engine) GenerateResponse(ctx context.Context, history []domain.Message, clickedOrgIDs []int) (*EngineResult, error) {
	questions, err := e.questions.ListIntakeQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list intake questions: %w", err)
	}
	questionTexts := make([]string, len(questions))
	for i, q := range questions {
		questionTexts[i] = q.Question
	}

	systemPrompt := intakeSystemPrompt(questionTexts)
	if len(clickedOrgIDs) > 0 {
		systemPrompt += selectionInstruction(clickedOrgIDs)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{Role: string(domain.RoleSystem), Content: systemPrompt})
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(msg.Role), Content: msg.Content})
	}

	resp, err := e.client.CreateChatCompletion(ctx, &openai.ChatCompletionRequest{
		Model:      e.model,
		Messages:   messages,
		Tools:      conversationTools(),
		ToolChoice: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("completion call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	assistant := resp.Choices[0].Message
	result := &EngineResult{
		Message: assistant.Content,
		Model:   e.model,
	}

	if len(assistant.ToolCalls) == 0 {
		return result, nil
	}

	result.ToolInvocations = recordInvocations(assistant.ToolCalls)

	toolMessages, match, err := e.executeToolCalls(ctx, history, assistant.ToolCalls)
	if err != nil {
		return nil, err
	}
	result.Match = match

	// Unknown tool names produce no tool message; if nothing actually
	// executed there is nothing to follow up on.
	if len(toolMessages) == 0 {
		return result, nil
	}

	messages = append(messages, assistant)
	messages = append(messages, toolMessages...)

	followup, err := e.client.CreateChatCompletion(ctx, &openai.ChatCompletionRequest{
		Model:    e.model,
		Messages: messages,
		Tools:    conversationTools(),
	})
	if err != nil {
		return nil, fmt.Errorf("follow-up completion call failed: %w", err)
	}
	if len(followup.Choices) > 0 && followup.Choices[0].Message.Content != "" {
		result.Message = followup.Choices[0].Message.Content
	}

	return result, nil
}

// executeToolCalls routes each invocation to its local handler and serializes
// the handler's return value as a tool response message. Unknown tool names
// are skipped without a response and without failing the turn.
func (e *Engine) executeToolCalls(ctx context.Context, history []domain.Message, calls []openai.ToolCall) ([]openai.ChatCompletionMessage, *MatchResult, error) {
	var toolMessages []openai.ChatCompletionMessage
	var match *MatchResult

	for _, call := range calls {
		switch call.Function.Name {
		case toolMatchNonprofits:
			result, err := e.MatchOrganizations(ctx, history)
			if err != nil {
				return nil, nil, err
			}
			match = result

			payload, err := json.Marshal(result.Organizations)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to marshal match result: %w", err)
			}
			toolMessages = append(toolMessages, openai.ChatCompletionMessage{
				Role:       string(domain.RoleTool),
				Name:       call.Function.Name,
				ToolCallID: call.ID,
				Content:    string(payload),
			})

		case toolExtractResponses:
			var args struct {
				QuestionResponses map[string]string `json:"question_responses"`
			}
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				e.logger.Warn("malformed extract_responses arguments",
					slog.String("tool_call_id", call.ID),
					slog.String("error", err.Error()))
				args.QuestionResponses = map[string]string{}
			}

			payload, err := json.Marshal(map[string]any{
				"status":    "extracted",
				"responses": args.QuestionResponses,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("failed to marshal extraction result: %w", err)
			}
			toolMessages = append(toolMessages, openai.ChatCompletionMessage{
				Role:       string(domain.RoleTool),
				Name:       call.Function.Name,
				ToolCallID: call.ID,
				Content:    string(payload),
			})

		default:
			// Tool names are declared by us, so anything else is the model
			// hallucinating; skip it rather than failing the turn.
			e.logger.Warn("ignoring unknown tool call",
				slog.String("tool", call.Function.Name),
				slog.String("tool_call_id", call.ID))
		}
	}

	return toolMessages, match, nil
}

func recordInvocations(calls []openai.ToolCall) []domain.ToolInvocation {
	invocations := make([]domain.ToolInvocation, len(calls))
	for i, call := range calls {
		invocations[i] = domain.ToolInvocation{
			ID:        call.ID,
			Type:      call.Type,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}
	}
	return invocations
}
