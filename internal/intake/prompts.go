package intake

import (
	"fmt"
	"strings"

	"github.com/headlamp-app/headlamp/internal/domain"
)

// intakeSystemPrompt builds the system prompt for the intake conversation.
// The questions list may be empty, in which case the model is told to rely on
// its own judgment of when enough has been learned.
func intakeSystemPrompt(questions []string) string {
	var questionsSection string
	if len(questions) > 0 {
		var sb strings.Builder
		for _, q := range questions {
			fmt.Fprintf(&sb, "- %s\n", q)
		}
		questionsSection = fmt.Sprintf(`Your goal is to have a natural, supportive conversation while gathering the following information:

%s
Once you believe you have enough information to answer all the questions above, use the match_nonprofits tool to find relevant organizations.`, sb.String())
	} else {
		questionsSection = `Your goal is to have a natural, supportive conversation to understand the person's needs and situation. Once you have a good understanding of what they need help with, use the match_nonprofits tool to find relevant organizations.`
	}

	return fmt.Sprintf(`You are a compassionate and helpful assistant helping at-risk youth connect with nonprofit organizations. %s

Guidelines:
- Be warm, empathetic, and non-judgmental
- Ask questions naturally in conversation, not as a formal questionnaire
- Don't ask all questions at once - have a back-and-forth dialogue
- Only ask one or two questions at a time
- Listen carefully to what the person shares and ask follow-up questions when needed

Remember: Your priority is making the person feel heard and supported, not just collecting information.`, questionsSection)
}

// selectionInstruction is appended to the system prompt when the user has
// just selected organizations, steering the model toward extract_responses
// instead of further open intake.
func selectionInstruction(orgIDs []int) string {
	return fmt.Sprintf("\n\nIMPORTANT: The user has selected the following organization IDs: %s. Use the extract_responses tool to extract their answers to the intake questions.", joinInts(orgIDs))
}

// matchingPrompt builds the prompt for the organization ranking sub-call.
func matchingPrompt(conversationText, orgsText string) string {
	return fmt.Sprintf(`Based on the following conversation with a person seeking help, identify the top 3 most relevant nonprofit organizations from the list below.

CONVERSATION:
%s

AVAILABLE ORGANIZATIONS:
%s

Analyze the person's needs, situation, and what they're looking for. Then select the 3 organizations that would be most helpful for them. Consider:
- How well the organization's services match their needs
- The type of help they're seeking
- Any specific requirements or circumstances mentioned
- The organization's description and program focus

Return the IDs of the top 3 most relevant organizations, ranked from most to least relevant.`, conversationText, orgsText)
}

// applicationContentPrompt builds the prompt for generating the free-text
// application document.
func applicationContentPrompt(conversationText, questionsText, orgLabel string) string {
	return fmt.Sprintf(`Based on the following conversation with an applicant, generate a professional application document for %s.

CONVERSATION HISTORY:
%s

INTAKE QUESTIONS TO ANSWER:
%s

Please generate an application document that includes:
1. A brief summary (2-3 sentences) of the applicant's situation and what they need help with
2. A section with "Question: Answer" pairs for each intake question that can be answered from the conversation history
3. For questions that cannot be answered from the conversation, you may write "Not discussed" or omit them

Format the response as a clear, professional document suitable for a nonprofit organization to review. Use clear headings and formatting.`, orgLabel, conversationText, questionsText)
}

// contactPrompt builds the prompt for the contact extraction sub-call.
func contactPrompt(conversationText string) string {
	return fmt.Sprintf(`Based on the following conversation, extract the person's contact information.

CONVERSATION HISTORY:
%s

Extract the following information if mentioned:
- Full name (or first name if that's all that's provided)
- Phone number
- Email address

If any information is not mentioned in the conversation, return an empty string for that field.`, conversationText)
}

// formatConversation renders an assembled history as readable text for use
// inside prompts.
func formatConversation(history []domain.Message) string {
	lines := make([]string, len(history))
	for i, msg := range history {
		lines[i] = fmt.Sprintf("%s: %s", titleRole(msg.Role), msg.Content)
	}
	return strings.Join(lines, "\n")
}

func titleRole(role domain.Role) string {
	switch role {
	case domain.RoleUser:
		return "User"
	case domain.RoleAssistant:
		return "Assistant"
	case domain.RoleSystem:
		return "System"
	default:
		return string(role)
	}
}

// formatOrganizations renders the candidate pool for the matching prompt.
func formatOrganizations(orgs []domain.Organization) string {
	blocks := make([]string, len(orgs))
	for i, org := range orgs {
		desc := org.Description
		if desc == "" {
			desc = "No description available"
		}
		services := "N/A"
		if len(org.IntakeQuestionIDs) > 0 {
			services = joinInts(org.IntakeQuestionIDs)
		}
		blocks[i] = fmt.Sprintf("ID: %d\nOrganization: %s\nProgram: %s\nDescription: %s\nServices: %s",
			org.ID, org.OrganizationName, org.ProgramName, desc, services)
	}
	return strings.Join(blocks, "\n\n")
}

// formatQuestions renders intake questions as a numbered list.
func formatQuestions(questions []string) string {
	lines := make([]string, len(questions))
	for i, q := range questions {
		lines[i] = fmt.Sprintf("%d. %s", i+1, q)
	}
	return strings.Join(lines, "\n")
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
