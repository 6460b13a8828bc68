// Package domain holds the core types shared across the intake service.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// HumanTurn is one user-authored chat message. Turns are append-only and
// never mutated after creation.
type HumanTurn struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// AgentTurn is one assistant-authored chat message. It additionally records
// which model produced it and, when the model elected to call tools, an audit
// trail of those invocations persisted verbatim alongside the reply text.
type AgentTurn struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	Timestamp       time.Time        `json:"timestamp"`
	Model           string           `json:"model"`
	Message         string           `json:"message"`
	ToolInvocations []ToolInvocation `json:"tool_calls,omitempty"`
}

// ToolInvocation records a structured function call the model decided to make.
type ToolInvocation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is a role/content pair in assembled conversation order, timestamps
// already stripped. This is the shape submitted to the completion service.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Organization is a candidate service provider. Reference data, read-only
// from this service's perspective.
type Organization struct {
	ID                int    `json:"id"`
	OrganizationName  string `json:"organization_name"`
	ProgramName       string `json:"program_name"`
	Address           string `json:"address,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Email             string `json:"email,omitempty"`
	Description       string `json:"description,omitempty"`
	IntakeQuestionIDs []int  `json:"intake_question_ids,omitempty"`
}

// OrgSummary is the reduced, user-facing projection of an Organization.
type OrgSummary struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Summarize projects an Organization into its user-facing summary. When the
// organization carries no description the summary falls back to
// "{program} - {organization}"; callers must never see an empty description.
func Summarize(org Organization) OrgSummary {
	desc := org.Description
	if desc == "" {
		desc = fmt.Sprintf("%s - %s", org.ProgramName, org.OrganizationName)
	}
	return OrgSummary{ID: org.ID, Name: org.OrganizationName, Description: desc}
}

// ApplicationDraft is an ephemeral proposed application. It becomes durable
// only when the user explicitly submits it.
type ApplicationDraft struct {
	Name          string       `json:"name"`
	Phone         string       `json:"phone,omitempty"`
	Email         string       `json:"email,omitempty"`
	Summary       string       `json:"summary"`
	Organizations []OrgSummary `json:"organizations"`
}

// Application is one submitted application to a single organization. Immutable
// once created except for the lifecycle timestamps, which are set by the
// reviewer workflow outside this service.
type Application struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	OrganizationID int        `json:"organization_id"`
	Urgent         bool       `json:"urgent"`
	Content        string     `json:"content"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	OpenedAt       *time.Time `json:"opened_at,omitempty"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	DeniedAt       *time.Time `json:"denied_at,omitempty"`
}

// User is a chat participant. Identity is created server-side on first contact
// when the client does not supply one.
type User struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
}

// IntakeQuestion is one piece of information the conversation aims to elicit.
type IntakeQuestion struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Question  string    `json:"question"`
}

// ContactInfo holds contact fields extracted from a conversation. Fields are
// empty strings when the conversation never mentioned them.
type ContactInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}
