package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/headlamp-app/headlamp/internal/api/openai"
	"github.com/headlamp-app/headlamp/internal/domain"
)

// matchCount is the number of organizations a match returns when enough
// candidates exist.
const matchCount = 3

// MatchMethod records how a match result was produced, so callers can tell a
// model-ranked result from a deterministic fallback.
type MatchMethod string

const (
	// MatchMethodAll means there were too few candidates to rank; all of
	// them were returned in input order without a completion call.
	MatchMethodAll MatchMethod = "all_candidates"
	// MatchMethodRanked means the ranking call returned three valid ids.
	MatchMethodRanked MatchMethod = "ranked"
	// MatchMethodFallback means the ranking output was malformed or partly
	// invalid and the result was completed deterministically.
	MatchMethodFallback MatchMethod = "fallback"
)

// MatchResult is the outcome of one matching run.
type MatchResult struct {
	Organizations []domain.OrgSummary
	Method        MatchMethod
	Reasoning     string
}

// MatchOrganizations selects the organizations most relevant to the
// conversation. With three or fewer candidates all of them are returned in
// input order. Otherwise a single structured completion call ranks the pool;
// malformed output never fails the match, it degrades to a deterministic
// fallback drawn from the candidate pool. Only storage and transport errors
// propagate.
func (e *Engine) MatchOrganizations(ctx context.Context, history []domain.Message) (*MatchResult, error) {
	organizations, err := e.orgs.ListOrganizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	if len(organizations) <= matchCount {
		summaries := make([]domain.OrgSummary, len(organizations))
		for i, org := range organizations {
			summaries[i] = domain.Summarize(org)
		}
		return &MatchResult{Organizations: summaries, Method: MatchMethodAll}, nil
	}

	prompt := matchingPrompt(formatConversation(history), formatOrganizations(organizations))

	resp, err := e.client.CreateChatCompletion(ctx, &openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    string(domain.RoleSystem),
				Content: "You are an expert at matching people with appropriate nonprofit organizations based on their needs and circumstances.",
			},
			{Role: string(domain.RoleUser), Content: prompt},
		},
		Tools:      []openai.Tool{selectTopOrganizationsTool()},
		ToolChoice: openai.ForceTool(toolSelectTopOrganizations),
	})
	if err != nil {
		return nil, fmt.Errorf("ranking call failed: %w", err)
	}

	ids, reasoning, ok := parseRanking(resp)
	method := MatchMethodRanked
	if !ok || len(ids) != matchCount {
		// Discard the model's choice entirely and take the first three
		// candidates in default order.
		e.logger.Warn("ranking output unusable, using fallback selection",
			slog.Bool("parsed", ok), slog.Int("id_count", len(ids)))
		ids = ids[:0]
		for _, org := range organizations[:matchCount] {
			ids = append(ids, org.ID)
		}
		method = MatchMethodFallback
		reasoning = ""
	}

	orgByID := make(map[int]domain.Organization, len(organizations))
	for _, org := range organizations {
		orgByID[org.ID] = org
	}
	returned := make(map[int]bool, len(ids))
	for _, id := range ids {
		returned[id] = true
	}

	summaries := make([]domain.OrgSummary, 0, matchCount)
	chosen := make(map[int]bool, matchCount)
	for _, id := range ids {
		org, found := orgByID[id]
		if !found {
			e.logger.Warn("ranking returned unknown organization id", slog.Int("org_id", id))
			method = MatchMethodFallback
			continue
		}
		if chosen[id] {
			e.logger.Warn("ranking returned duplicate organization id", slog.Int("org_id", id))
			method = MatchMethodFallback
			continue
		}
		chosen[id] = true
		summaries = append(summaries, domain.Summarize(org))
	}

	// Backfill from the unselected pool until exactly three remain or the
	// pool is exhausted.
	if len(summaries) < matchCount {
		method = MatchMethodFallback
		for _, org := range organizations {
			if len(summaries) >= matchCount {
				break
			}
			if returned[org.ID] {
				continue
			}
			summaries = append(summaries, domain.Summarize(org))
		}
	}

	if len(summaries) > matchCount {
		summaries = summaries[:matchCount]
	}

	return &MatchResult{Organizations: summaries, Method: method, Reasoning: reasoning}, nil
}

// parseRanking extracts the id list and reasoning from the forced tool call.
// ok is false when the response carries no usable tool call.
func parseRanking(resp *openai.ChatCompletionResponse) (ids []int, reasoning string, ok bool) {
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return nil, "", false
	}

	call := resp.Choices[0].Message.ToolCalls[0]
	var args struct {
		OrganizationIDs []int  `json:"organization_ids"`
		Reasoning       string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return nil, "", false
	}

	return args.OrganizationIDs, args.Reasoning, true
}
