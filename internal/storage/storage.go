// Package storage defines the persistence interfaces consumed by the intake
// engine. Chat streams are append-only; organizations and intake questions
// are read-only reference data.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/headlamp-app/headlamp/internal/domain"
)

// ChatStore persists the two turn streams of a conversation. No ordering
// guarantee is assumed on reads; callers merge and sort by timestamp.
type ChatStore interface {
	AppendHumanTurn(ctx context.Context, userID uuid.UUID, message string) (*domain.HumanTurn, error)
	AppendAgentTurn(ctx context.Context, userID uuid.UUID, message, model string, toolCalls []domain.ToolInvocation) (*domain.AgentTurn, error)
	ListHumanTurns(ctx context.Context, userID uuid.UUID) ([]domain.HumanTurn, error)
	ListAgentTurns(ctx context.Context, userID uuid.UUID) ([]domain.AgentTurn, error)
}

// OrgStore exposes the candidate organization reference data.
type OrgStore interface {
	ListOrganizations(ctx context.Context) ([]domain.Organization, error)
	GetOrganizationsByIDs(ctx context.Context, ids []int) ([]domain.Organization, error)
}

// IntakeQuestionStore exposes the enumerated intake questions.
type IntakeQuestionStore interface {
	ListIntakeQuestions(ctx context.Context) ([]domain.IntakeQuestion, error)
}

// ApplicationStore persists submitted applications. Lifecycle timestamps are
// mutated by the reviewer workflow, not through this interface.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, userID uuid.UUID, organizationID int, content string) (*domain.Application, error)
	ListApplicationsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Application, error)
	ListApplicationsByOrganization(ctx context.Context, organizationID int) ([]domain.Application, error)
}

// UserStore manages chat participant identities.
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	CreateUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	EnsureUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Store is the full persistence surface the service is wired against.
type Store interface {
	ChatStore
	OrgStore
	IntakeQuestionStore
	ApplicationStore
	UserStore
}
