package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/headlamp-app/headlamp/internal/domain"
	"github.com/headlamp-app/headlamp/internal/storage"
)

// Applications builds application drafts from conversation history and turns
// submitted drafts into persisted application records.
type Applications struct {
	store  storage.Store
	engine *Engine
	logger *slog.Logger
}

// NewApplications constructs the application service.
func NewApplications(store storage.Store, engine *Engine, logger *slog.Logger) *Applications {
	return &Applications{store: store, engine: engine, logger: logger}
}

// CreateDraft builds an ephemeral application draft for the selected
// organizations: contact info and one unified application document extracted
// from the conversation, plus a summary of each selected organization.
// Organization ids absent from the reference set are logged and skipped, not
// errors.
func (a *Applications) CreateDraft(ctx context.Context, organizationIDs []int, history []domain.Message) (*domain.ApplicationDraft, error) {
	questions, err := a.store.ListIntakeQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list intake questions: %w", err)
	}
	questionTexts := make([]string, len(questions))
	for i, q := range questions {
		questionTexts[i] = q.Question
	}

	allOrgs, err := a.store.ListOrganizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	orgByID := make(map[int]domain.Organization, len(allOrgs))
	for _, org := range allOrgs {
		orgByID[org.ID] = org
	}

	contact := a.engine.ExtractContactInfo(ctx, history)

	// One unified document answering every intake question, not
	// per-organization content.
	content, err := a.engine.GenerateApplicationContent(ctx, history, questionTexts, "selected organizations")
	if err != nil {
		return nil, fmt.Errorf("failed to generate application content: %w", err)
	}

	summaries := make([]domain.OrgSummary, 0, len(organizationIDs))
	for _, id := range organizationIDs {
		org, found := orgByID[id]
		if !found {
			a.logger.Warn("organization not found, skipping draft entry", slog.Int("org_id", id))
			continue
		}
		summaries = append(summaries, domain.Summarize(org))
	}

	return &domain.ApplicationDraft{
		Name:          contact.Name,
		Phone:         contact.Phone,
		Email:         contact.Email,
		Summary:       content,
		Organizations: summaries,
	}, nil
}

// Submit persists one application per organization id using the
// caller-supplied draft as the content source. The draft is required: the
// user may have edited it, so it is never regenerated here. Unknown
// organization ids are logged and skipped.
func (a *Applications) Submit(ctx context.Context, userID uuid.UUID, organizationIDs []int, draft *domain.ApplicationDraft) ([]domain.Application, error) {
	if draft == nil {
		return nil, domain.NewValidationError("applicationDraft is required when submitting applications")
	}

	allOrgs, err := a.store.ListOrganizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	orgByID := make(map[int]domain.Organization, len(allOrgs))
	for _, org := range allOrgs {
		orgByID[org.ID] = org
	}

	content := draftContent(draft)

	var created []domain.Application
	for _, id := range organizationIDs {
		if _, found := orgByID[id]; !found {
			a.logger.Warn("organization not found, skipping application", slog.Int("org_id", id))
			continue
		}

		app, err := a.store.CreateApplication(ctx, userID, id, content)
		if err != nil {
			return nil, fmt.Errorf("failed to create application for organization %d: %w", id, err)
		}
		created = append(created, *app)
	}

	return created, nil
}

// draftContent renders the submitted content: a contact header, when any
// contact field is non-empty, followed by the draft summary.
func draftContent(draft *domain.ApplicationDraft) string {
	var sb strings.Builder
	if draft.Name != "" || draft.Phone != "" || draft.Email != "" {
		sb.WriteString("CONTACT INFORMATION:\n")
		if draft.Name != "" {
			fmt.Fprintf(&sb, "Name: %s\n", draft.Name)
		}
		if draft.Phone != "" {
			fmt.Fprintf(&sb, "Phone: %s\n", draft.Phone)
		}
		if draft.Email != "" {
			fmt.Fprintf(&sb, "Email: %s\n", draft.Email)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(draft.Summary)
	return sb.String()
}

// ListByUser returns all applications submitted by a user.
func (a *Applications) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Application, error) {
	return a.store.ListApplicationsByUser(ctx, userID)
}

// ListByOrganization returns all applications received by an organization.
func (a *Applications) ListByOrganization(ctx context.Context, organizationID int) ([]domain.Application, error) {
	return a.store.ListApplicationsByOrganization(ctx, organizationID)
}
