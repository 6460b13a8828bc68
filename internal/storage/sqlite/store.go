// Package sqlite implements storage.Store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/headlamp-app/headlamp/internal/domain"
	"github.com/headlamp-app/headlamp/internal/storage"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New opens (creating if needed) the database at dbPath and initializes the
// schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			phone TEXT,
			email TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS human_chats (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			message TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS agent_chats (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			model TEXT NOT NULL,
			message TEXT NOT NULL,
			tool_calls TEXT,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS services (
			id INTEGER PRIMARY KEY,
			organization_name TEXT NOT NULL,
			program_name TEXT NOT NULL,
			address TEXT,
			phone TEXT,
			email TEXT,
			description TEXT,
			intake_question_ids TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS intake_questions (
			id INTEGER PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			question TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS applications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			organization_id INTEGER NOT NULL,
			urgent INTEGER NOT NULL DEFAULT 0,
			content TEXT NOT NULL,
			submitted_at TIMESTAMP NOT NULL,
			opened_at TIMESTAMP,
			accepted_at TIMESTAMP,
			denied_at TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (organization_id) REFERENCES services(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_human_chats_user ON human_chats(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_agent_chats_user ON agent_chats(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_user ON applications(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_org ON applications(organization_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) AppendHumanTurn(ctx context.Context, userID uuid.UUID, message string) (*domain.HumanTurn, error) {
	turn := &domain.HumanTurn{
		ID:        uuid.New(),
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Message:   message,
	}

	query := `INSERT INTO human_chats (id, user_id, timestamp, message) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, turn.ID.String(), userID.String(), turn.Timestamp, message); err != nil {
		return nil, fmt.Errorf("failed to append human turn: %w", err)
	}

	return turn, nil
}

func (s *Store) AppendAgentTurn(ctx context.Context, userID uuid.UUID, message, model string, toolCalls []domain.ToolInvocation) (*domain.AgentTurn, error) {
	turn := &domain.AgentTurn{
		ID:              uuid.New(),
		UserID:          userID,
		Timestamp:       time.Now().UTC(),
		Model:           model,
		Message:         message,
		ToolInvocations: toolCalls,
	}

	var toolCallsJSON sql.NullString
	if len(toolCalls) > 0 {
		encoded, err := json.Marshal(toolCalls)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tool calls: %w", err)
		}
		toolCallsJSON = sql.NullString{String: string(encoded), Valid: true}
	}

	query := `INSERT INTO agent_chats (id, user_id, timestamp, model, message, tool_calls)
	          VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, turn.ID.String(), userID.String(), turn.Timestamp, model, message, toolCallsJSON); err != nil {
		return nil, fmt.Errorf("failed to append agent turn: %w", err)
	}

	return turn, nil
}

func (s *Store) ListHumanTurns(ctx context.Context, userID uuid.UUID) ([]domain.HumanTurn, error) {
	query := `SELECT id, user_id, timestamp, message FROM human_chats
	          WHERE user_id = ? ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list human turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.HumanTurn
	for rows.Next() {
		var turn domain.HumanTurn
		var id, uid string
		if err := rows.Scan(&id, &uid, &turn.Timestamp, &turn.Message); err != nil {
			return nil, fmt.Errorf("failed to scan human turn: %w", err)
		}
		if turn.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid human turn id %q: %w", id, err)
		}
		if turn.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", uid, err)
		}
		turns = append(turns, turn)
	}

	return turns, rows.Err()
}

func (s *Store) ListAgentTurns(ctx context.Context, userID uuid.UUID) ([]domain.AgentTurn, error) {
	query := `SELECT id, user_id, timestamp, model, message, tool_calls FROM agent_chats
	          WHERE user_id = ? ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list agent turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.AgentTurn
	for rows.Next() {
		var turn domain.AgentTurn
		var id, uid string
		var toolCallsJSON sql.NullString
		if err := rows.Scan(&id, &uid, &turn.Timestamp, &turn.Model, &turn.Message, &toolCallsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan agent turn: %w", err)
		}
		if turn.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid agent turn id %q: %w", id, err)
		}
		if turn.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", uid, err)
		}
		if toolCallsJSON.Valid {
			if err := json.Unmarshal([]byte(toolCallsJSON.String), &turn.ToolInvocations); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool calls: %w", err)
			}
		}
		turns = append(turns, turn)
	}

	return turns, rows.Err()
}

func (s *Store) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	query := `SELECT id, organization_name, program_name, address, phone, email, description, intake_question_ids
	          FROM services ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	return scanOrganizations(rows)
}

func (s *Store) GetOrganizationsByIDs(ctx context.Context, ids []int) ([]domain.Organization, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := ""
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args[i] = id
	}

	query := `SELECT id, organization_name, program_name, address, phone, email, description, intake_question_ids
	          FROM services WHERE id IN (` + placeholders + `) ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get organizations: %w", err)
	}
	defer rows.Close()

	return scanOrganizations(rows)
}

func scanOrganizations(rows *sql.Rows) ([]domain.Organization, error) {
	var orgs []domain.Organization
	for rows.Next() {
		var org domain.Organization
		var address, phone, email, description, questionIDs sql.NullString
		if err := rows.Scan(&org.ID, &org.OrganizationName, &org.ProgramName,
			&address, &phone, &email, &description, &questionIDs); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		org.Address = address.String
		org.Phone = phone.String
		org.Email = email.String
		org.Description = description.String
		if questionIDs.Valid && questionIDs.String != "" {
			if err := json.Unmarshal([]byte(questionIDs.String), &org.IntakeQuestionIDs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal intake question ids: %w", err)
			}
		}
		orgs = append(orgs, org)
	}

	return orgs, rows.Err()
}

func (s *Store) ListIntakeQuestions(ctx context.Context) ([]domain.IntakeQuestion, error) {
	query := `SELECT id, created_at, question FROM intake_questions ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list intake questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.IntakeQuestion
	for rows.Next() {
		var q domain.IntakeQuestion
		if err := rows.Scan(&q.ID, &q.CreatedAt, &q.Question); err != nil {
			return nil, fmt.Errorf("failed to scan intake question: %w", err)
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

func (s *Store) CreateApplication(ctx context.Context, userID uuid.UUID, organizationID int, content string) (*domain.Application, error) {
	app := &domain.Application{
		ID:             uuid.New(),
		UserID:         userID,
		OrganizationID: organizationID,
		Urgent:         false,
		Content:        content,
		SubmittedAt:    time.Now().UTC(),
	}

	query := `INSERT INTO applications (id, user_id, organization_id, urgent, content, submitted_at)
	          VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, app.ID.String(), userID.String(), organizationID,
		app.Urgent, content, app.SubmittedAt); err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return app, nil
}

func (s *Store) ListApplicationsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Application, error) {
	query := `SELECT id, user_id, organization_id, urgent, content, submitted_at, opened_at, accepted_at, denied_at
	          FROM applications WHERE user_id = ? ORDER BY submitted_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list applications by user: %w", err)
	}
	defer rows.Close()

	return scanApplications(rows)
}

func (s *Store) ListApplicationsByOrganization(ctx context.Context, organizationID int) ([]domain.Application, error) {
	query := `SELECT id, user_id, organization_id, urgent, content, submitted_at, opened_at, accepted_at, denied_at
	          FROM applications WHERE organization_id = ? ORDER BY submitted_at ASC`

	rows, err := s.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications by organization: %w", err)
	}
	defer rows.Close()

	return scanApplications(rows)
}

func scanApplications(rows *sql.Rows) ([]domain.Application, error) {
	var apps []domain.Application
	for rows.Next() {
		var app domain.Application
		var id, uid string
		var opened, accepted, denied sql.NullTime
		var err error
		if err = rows.Scan(&id, &uid, &app.OrganizationID, &app.Urgent, &app.Content,
			&app.SubmittedAt, &opened, &accepted, &denied); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		if app.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid application id %q: %w", id, err)
		}
		if app.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", uid, err)
		}
		if opened.Valid {
			app.OpenedAt = &opened.Time
		}
		if accepted.Valid {
			app.AcceptedAt = &accepted.Time
		}
		if denied.Valid {
			app.DeniedAt = &denied.Time
		}
		apps = append(apps, app)
	}

	return apps, rows.Err()
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT id, created_at, phone, email FROM users WHERE id = ?`

	var user domain.User
	var uid string
	var phone, email sql.NullString
	err := s.db.QueryRowContext(ctx, query, id.String()).Scan(&uid, &user.CreatedAt, &phone, &email)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.ID, err = uuid.Parse(uid); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", uid, err)
	}
	user.Phone = phone.String
	user.Email = email.String

	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user := &domain.User{ID: id, CreatedAt: time.Now().UTC()}

	query := `INSERT INTO users (id, created_at) VALUES (?, ?)`
	if _, err := s.db.ExecContext(ctx, query, id.String(), user.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *Store) EnsureUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err == nil {
		return user, nil
	}
	if err != domain.ErrNotFound {
		return nil, err
	}
	return s.CreateUser(ctx, id)
}

// SeedOrganization inserts or replaces one organization row. Intended for
// bootstrap and tests; reference data normally arrives out of band.
func (s *Store) SeedOrganization(ctx context.Context, org domain.Organization) error {
	questionIDs, err := json.Marshal(org.IntakeQuestionIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal intake question ids: %w", err)
	}

	query := `INSERT OR REPLACE INTO services
	          (id, organization_name, program_name, address, phone, email, description, intake_question_ids)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, org.ID, org.OrganizationName, org.ProgramName,
		org.Address, org.Phone, org.Email, org.Description, string(questionIDs)); err != nil {
		return fmt.Errorf("failed to seed organization: %w", err)
	}

	return nil
}

// SeedIntakeQuestion inserts or replaces one intake question row.
func (s *Store) SeedIntakeQuestion(ctx context.Context, q domain.IntakeQuestion) error {
	created := q.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	query := `INSERT OR REPLACE INTO intake_questions (id, created_at, question) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, q.ID, created, q.Question); err != nil {
		return fmt.Errorf("failed to seed intake question: %w", err)
	}

	return nil
}
