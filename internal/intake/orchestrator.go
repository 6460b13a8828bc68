package intake

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/headlamp-app/headlamp/internal/domain"
	"github.com/headlamp-app/headlamp/internal/storage"
)

// ChatParams is one inbound chat turn. UserID may be uuid.Nil, in which case
// an identity is created server-side. ClickedOrgIDs and SubmitOrgIDs are
// mutually exclusive.
type ChatParams struct {
	UserID        uuid.UUID
	Message       string
	ClickedOrgIDs []int
	SubmitOrgIDs  []int
	Draft         *domain.ApplicationDraft
}

// ChatResult is the shaped response for one turn. Orgs is non-nil only when
// matching fired during the turn; Draft is non-nil during the selection and
// submission phases.
type ChatResult struct {
	UserID  uuid.UUID
	Message string
	Orgs    []domain.OrgSummary
	Match   *MatchResult
	Draft   *domain.ApplicationDraft
}

// Orchestrator sequences one inbound turn end to end: persist the human turn,
// reassemble history, run any phase side effects, dispatch to the engine, and
// persist the agent reply before returning.
type Orchestrator struct {
	store  storage.Store
	engine *Engine
	apps   *Applications
	logger *slog.Logger
	locks  *userLocks
}

// NewOrchestrator wires the orchestrator.
func NewOrchestrator(store storage.Store, engine *Engine, apps *Applications, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:  store,
		engine: engine,
		apps:   apps,
		logger: logger,
		locks:  newUserLocks(),
	}
}

// Chat handles one turn. Operations within a turn are strictly sequential:
// the human turn is durably appended before history assembly, and assembly
// completes before any completion call. The human turn is committed eagerly;
// a failure later in the turn leaves history with an unanswered user message,
// which AssembleConversation tolerates on the next call.
func (o *Orchestrator) Chat(ctx context.Context, params ChatParams) (*ChatResult, error) {
	phase, err := domain.PhaseOf(params.ClickedOrgIDs, params.SubmitOrgIDs)
	if err != nil {
		return nil, err
	}

	userID := params.UserID
	if userID == uuid.Nil {
		userID = uuid.New()
	}

	unlock := o.locks.lock(userID)
	defer unlock()

	if _, err := o.store.EnsureUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	o.logger.Info("handling chat turn",
		slog.String("user_id", userID.String()),
		slog.String("phase", phase.String()))

	if _, err := o.store.AppendHumanTurn(ctx, userID, annotateMessage(params.Message, phase, params)); err != nil {
		return nil, fmt.Errorf("failed to persist human turn: %w", err)
	}

	humanTurns, err := o.store.ListHumanTurns(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list human turns: %w", err)
	}
	agentTurns, err := o.store.ListAgentTurns(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent turns: %w", err)
	}
	history := AssembleConversation(humanTurns, agentTurns)

	draft := params.Draft
	switch phase {
	case domain.PhaseSubmission:
		if _, err := o.apps.Submit(ctx, userID, params.SubmitOrgIDs, params.Draft); err != nil {
			return nil, err
		}
	case domain.PhaseSelection:
		draft, err = o.apps.CreateDraft(ctx, params.ClickedOrgIDs, history)
		if err != nil {
			return nil, err
		}
	}

	engineResult, err := o.engine.GenerateResponse(ctx, history, params.ClickedOrgIDs)
	if err != nil {
		return nil, err
	}

	if _, err := o.store.AppendAgentTurn(ctx, userID, engineResult.Message, engineResult.Model, engineResult.ToolInvocations); err != nil {
		return nil, fmt.Errorf("failed to persist agent turn: %w", err)
	}

	result := &ChatResult{
		UserID:  userID,
		Message: engineResult.Message,
		Match:   engineResult.Match,
		Draft:   draft,
	}
	if engineResult.Match != nil {
		result.Orgs = engineResult.Match.Organizations
	}

	return result, nil
}

// annotateMessage embeds the selection or submission intent into the stored
// message text. The annotation is deliberately textual so the model sees the
// intent in later history reads.
func annotateMessage(message string, phase domain.Phase, params ChatParams) string {
	switch phase {
	case domain.PhaseSubmission:
		return fmt.Sprintf("%s [Submitting applications to organizations: %s]", message, joinInts(params.SubmitOrgIDs))
	case domain.PhaseSelection:
		return fmt.Sprintf("%s [Selected organizations: %s]", message, joinInts(params.ClickedOrgIDs))
	default:
		return message
	}
}
