package domain

// Phase is the conversational phase of one inbound turn. It is computed once
// per request from which optional fields the caller supplied and then passed
// explicitly; it is never persisted or re-derived mid-request.
type Phase int

const (
	// PhaseIntake is an ordinary conversational turn.
	PhaseIntake Phase = iota
	// PhaseSelection means the user just picked organizations from a match
	// list; the turn should produce an application draft.
	PhaseSelection
	// PhaseSubmission means the user confirmed a draft; the turn should
	// persist one application per selected organization.
	PhaseSubmission
)

func (p Phase) String() string {
	switch p {
	case PhaseSelection:
		return "selection"
	case PhaseSubmission:
		return "submission"
	default:
		return "intake"
	}
}

// PhaseOf classifies an inbound turn. Selection and submission are mutually
// exclusive: supplying both is rejected rather than guessed at.
func PhaseOf(clickedOrgIDs, submitOrgIDs []int) (Phase, error) {
	switch {
	case len(submitOrgIDs) > 0 && len(clickedOrgIDs) > 0:
		return PhaseIntake, NewValidationError("clickedOrgIds and doApply are mutually exclusive")
	case len(submitOrgIDs) > 0:
		return PhaseSubmission, nil
	case len(clickedOrgIDs) > 0:
		return PhaseSelection, nil
	default:
		return PhaseIntake, nil
	}
}
