// Package memory implements storage.Store in process memory. Used by tests
// and as a storage backend for local development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/headlamp-app/headlamp/internal/domain"
	"github.com/headlamp-app/headlamp/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]*domain.User
	humanTurns    map[uuid.UUID][]domain.HumanTurn
	agentTurns    map[uuid.UUID][]domain.AgentTurn
	organizations []domain.Organization
	questions     []domain.IntakeQuestion
	applications  []domain.Application
}

var _ storage.Store = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		users:      make(map[uuid.UUID]*domain.User),
		humanTurns: make(map[uuid.UUID][]domain.HumanTurn),
		agentTurns: make(map[uuid.UUID][]domain.AgentTurn),
	}
}

func (s *Store) AppendHumanTurn(ctx context.Context, userID uuid.UUID, message string) (*domain.HumanTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := domain.HumanTurn{
		ID:        uuid.New(),
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Message:   message,
	}
	s.humanTurns[userID] = append(s.humanTurns[userID], turn)
	return &turn, nil
}

func (s *Store) AppendAgentTurn(ctx context.Context, userID uuid.UUID, message, model string, toolCalls []domain.ToolInvocation) (*domain.AgentTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := domain.AgentTurn{
		ID:              uuid.New(),
		UserID:          userID,
		Timestamp:       time.Now().UTC(),
		Model:           model,
		Message:         message,
		ToolInvocations: toolCalls,
	}
	s.agentTurns[userID] = append(s.agentTurns[userID], turn)
	return &turn, nil
}

func (s *Store) ListHumanTurns(ctx context.Context, userID uuid.UUID) ([]domain.HumanTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]domain.HumanTurn, len(s.humanTurns[userID]))
	copy(turns, s.humanTurns[userID])
	return turns, nil
}

func (s *Store) ListAgentTurns(ctx context.Context, userID uuid.UUID) ([]domain.AgentTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]domain.AgentTurn, len(s.agentTurns[userID]))
	copy(turns, s.agentTurns[userID])
	return turns, nil
}

func (s *Store) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orgs := make([]domain.Organization, len(s.organizations))
	copy(orgs, s.organizations)
	return orgs, nil
}

func (s *Store) GetOrganizationsByIDs(ctx context.Context, ids []int) ([]domain.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var orgs []domain.Organization
	for _, org := range s.organizations {
		if want[org.ID] {
			orgs = append(orgs, org)
		}
	}
	return orgs, nil
}

func (s *Store) ListIntakeQuestions(ctx context.Context) ([]domain.IntakeQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	questions := make([]domain.IntakeQuestion, len(s.questions))
	copy(questions, s.questions)
	return questions, nil
}

func (s *Store) CreateApplication(ctx context.Context, userID uuid.UUID, organizationID int, content string) (*domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app := domain.Application{
		ID:             uuid.New(),
		UserID:         userID,
		OrganizationID: organizationID,
		Content:        content,
		SubmittedAt:    time.Now().UTC(),
	}
	s.applications = append(s.applications, app)
	return &app, nil
}

func (s *Store) ListApplicationsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var apps []domain.Application
	for _, app := range s.applications {
		if app.UserID == userID {
			apps = append(apps, app)
		}
	}
	return apps, nil
}

func (s *Store) ListApplicationsByOrganization(ctx context.Context, organizationID int) ([]domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var apps []domain.Application
	for _, app := range s.applications {
		if app.OrganizationID == organizationID {
			apps = append(apps, app)
		}
	}
	return apps, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *Store) CreateUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &domain.User{ID: id, CreatedAt: time.Now().UTC()}
	s.users[id] = user
	copied := *user
	return &copied, nil
}

func (s *Store) EnsureUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err == nil {
		return user, nil
	}
	return s.CreateUser(ctx, id)
}

// SeedOrganizations replaces the organization reference data.
func (s *Store) SeedOrganizations(orgs []domain.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizations = append([]domain.Organization(nil), orgs...)
}

// SeedIntakeQuestions replaces the intake question reference data.
func (s *Store) SeedIntakeQuestions(questions []domain.IntakeQuestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append([]domain.IntakeQuestion(nil), questions...)
}
