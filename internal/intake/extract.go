package intake

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/headlamp-app/headlamp/internal/api/openai"
	"github.com/headlamp-app/headlamp/internal/domain"
)

// contentFallback is used when the model produces empty application content.
const contentFallback = "Application generated from conversation history. Please review the conversation for details."

// ExtractContactInfo pulls name, phone and email out of the conversation via
// a forced structured call. It never returns an error: any failure, transport
// or parse, degrades to all-empty fields so draft building can proceed.
func (e *Engine) ExtractContactInfo(ctx context.Context, history []domain.Message) domain.ContactInfo {
	resp, err := e.client.CreateChatCompletion(ctx, &openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    string(domain.RoleSystem),
				Content: "You are a helpful assistant that extracts contact information from conversations.",
			},
			{Role: string(domain.RoleUser), Content: contactPrompt(formatConversation(history))},
		},
		Tools:      []openai.Tool{extractContactInfoTool()},
		ToolChoice: openai.ForceTool(toolExtractContactInfo),
	})
	if err != nil {
		e.logger.Warn("contact extraction call failed", slog.String("error", err.Error()))
		return domain.ContactInfo{}
	}

	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		e.logger.Warn("contact extraction returned no tool call")
		return domain.ContactInfo{}
	}

	var info domain.ContactInfo
	call := resp.Choices[0].Message.ToolCalls[0]
	if err := json.Unmarshal([]byte(call.Function.Arguments), &info); err != nil {
		e.logger.Warn("malformed contact extraction arguments", slog.String("error", err.Error()))
		return domain.ContactInfo{}
	}

	return info
}

// GenerateApplicationContent produces the free-text application document:
// a short situational summary followed by question/answer pairs for every
// intake question answerable from the history. Empty model output is replaced
// by a fixed fallback sentence; transport errors propagate.
func (e *Engine) GenerateApplicationContent(ctx context.Context, history []domain.Message, questions []string, orgLabel string) (string, error) {
	prompt := applicationContentPrompt(formatConversation(history), formatQuestions(questions), orgLabel)

	resp, err := e.client.CreateChatCompletion(ctx, &openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    string(domain.RoleSystem),
				Content: "You are a helpful assistant that creates professional application documents for nonprofit organizations based on conversation history.",
			},
			{Role: string(domain.RoleUser), Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	if content == "" {
		content = contentFallback
	}

	return content, nil
}
