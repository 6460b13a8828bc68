package intake

import "github.com/headlamp-app/headlamp/internal/api/openai"

// Tool names exposed to the conversational model.
const (
	toolMatchNonprofits  = "match_nonprofits"
	toolExtractResponses = "extract_responses"
)

// Internal-only tool names used to force structured output on sub-calls.
// Never declared to the conversational model.
const (
	toolSelectTopOrganizations = "select_top_organizations"
	toolExtractContactInfo     = "extract_contact_information"
)

// conversationTools is the fixed tool set declared on every conversational
// completion call.
func conversationTools() []openai.Tool {
	return []openai.Tool{
		{
			Type: "function",
			Function: openai.FunctionTool{
				Name:        toolMatchNonprofits,
				Description: "Find the top 3 most relevant nonprofit organizations based on the conversation history. You MUST call this tool when you have gathered enough information about the person's needs and situation, or if they say they don't want to answer more questions. If the person has shared their basic needs (like housing, food, etc.) and location, you have enough information to call this tool.",
				Parameters: map[string]any{
					"type":       "object",
					"properties": map[string]any{},
					"required":   []string{},
				},
			},
		},
		{
			Type: "function",
			Function: openai.FunctionTool{
				Name:        toolExtractResponses,
				Description: "Extract structured answers to intake questions from the conversation history. Use this after the user has selected organizations.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question_responses": map[string]any{
							"type":                 "object",
							"description":          "Map of question IDs to their answers based on the conversation",
							"additionalProperties": map[string]any{"type": "string"},
						},
					},
					"required": []string{"question_responses"},
				},
			},
		},
	}
}

// selectTopOrganizationsTool is the forced tool for the matching sub-call.
func selectTopOrganizationsTool() openai.Tool {
	return openai.Tool{
		Type: "function",
		Function: openai.FunctionTool{
			Name:        toolSelectTopOrganizations,
			Description: "Select the top 3 most relevant organization IDs based on the conversation",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"organization_ids": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "integer"},
						"description": "Array of exactly 3 organization IDs, ranked from most to least relevant. Must return exactly 3 IDs.",
						"minItems":    3,
						"maxItems":    3,
					},
					"reasoning": map[string]any{
						"type":        "string",
						"description": "Brief explanation of why these organizations were selected",
					},
				},
				"required": []string{"organization_ids", "reasoning"},
			},
		},
	}
}

// extractContactInfoTool is the forced tool for the contact extraction
// sub-call.
func extractContactInfoTool() openai.Tool {
	return openai.Tool{
		Type: "function",
		Function: openai.FunctionTool{
			Name:        toolExtractContactInfo,
			Description: "Extract contact information (name, phone, email) from the conversation",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type":        "string",
						"description": "Full name or first name of the person. Empty string if not mentioned.",
					},
					"phone": map[string]any{
						"type":        "string",
						"description": "Phone number of the person. Empty string if not mentioned.",
					},
					"email": map[string]any{
						"type":        "string",
						"description": "Email address of the person. Empty string if not mentioned.",
					},
				},
				"required": []string{"name", "phone", "email"},
			},
		},
	}
}
