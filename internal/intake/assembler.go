// Package intake implements the conversation engine: history assembly, the
// tool-call dispatch loop, organization matching, contact and draft
// extraction, and the per-turn orchestrator.
package intake

import (
	"sort"
	"time"

	"github.com/headlamp-app/headlamp/internal/domain"
)

type taggedMessage struct {
	role      domain.Role
	content   string
	timestamp time.Time
}

// AssembleConversation merges the two turn streams into one chronologically
// ordered role/content sequence suitable as completion context. Neither input
// is assumed sorted; the merge stable-sorts by timestamp ascending so that
// equal timestamps keep a stable relative order. An empty history produces an
// empty sequence. Pure function, no side effects.
func AssembleConversation(human []domain.HumanTurn, agent []domain.AgentTurn) []domain.Message {
	tagged := make([]taggedMessage, 0, len(human)+len(agent))
	for _, turn := range human {
		tagged = append(tagged, taggedMessage{role: domain.RoleUser, content: turn.Message, timestamp: turn.Timestamp})
	}
	for _, turn := range agent {
		tagged = append(tagged, taggedMessage{role: domain.RoleAssistant, content: turn.Message, timestamp: turn.Timestamp})
	}

	sort.SliceStable(tagged, func(i, j int) bool {
		return tagged[i].timestamp.Before(tagged[j].timestamp)
	})

	messages := make([]domain.Message, len(tagged))
	for i, msg := range tagged {
		messages[i] = domain.Message{Role: msg.role, Content: msg.content}
	}
	return messages
}
