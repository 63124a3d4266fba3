package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DefaultStepContext is used when a guide question is not tied to a step.
const DefaultStepContext = "General question about the guide."

// SubmitRequest starts a new complaint from a problem description.
type SubmitRequest struct {
	Problem string `json:"problem" validate:"required"`
}

// RefineRequest asks for a rewrite of a stored complaint's draft.
type RefineRequest struct {
	ComplaintID       uuid.UUID `json:"complaintId" validate:"required"`
	OriginalProblem   string    `json:"originalProblem" validate:"required"`
	ComplaintDraft    string    `json:"complaintDraft" validate:"required"`
	RefineInstruction string    `json:"refineInstruction" validate:"required"`
}

// GuideRequest carries a generated guide back for the step-by-step view.
// Guide may be a JSON array or a string holding one.
type GuideRequest struct {
	Guide           json.RawMessage `json:"guide"`
	Documents       string          `json:"documents"`
	PortalID        string          `json:"portal_id"`
	OriginalProblem string          `json:"originalProblem"`
}

// GuideView is the structured guide returned to the client.
type GuideView struct {
	Guide           []GuideStep `json:"guide"`
	Documents       string      `json:"documents"`
	PortalID        string      `json:"portalId"`
	OriginalProblem string      `json:"originalProblem"`
}

// AskAIRequest is a user question about a guide step.
type AskAIRequest struct {
	StepContext     string `json:"stepContext"`
	UserQuestion    string `json:"userQuestion" validate:"required"`
	OriginalProblem string `json:"originalProblem"`
}

// AskAIResponse holds the model's answer.
type AskAIResponse struct {
	Answer string `json:"answer"`
}

// StatusUpdateRequest moves a complaint to another status.
type StatusUpdateRequest struct {
	Status Status `json:"status" validate:"required"`
}

// SubmitResponse is a freshly generated and stored complaint.
type SubmitResponse struct {
	ComplaintID uuid.UUID `json:"complaintId"`
	Problem     string    `json:"problem"`
	ComplaintPackage
}

// FollowUpResponse pairs a complaint with its generated follow-up letter.
type FollowUpResponse struct {
	OriginalComplaint *Complaint `json:"originalComplaint"`
	FollowUpDraft     string     `json:"followUpDraft"`
}

// ParseGuide decodes a guide given either as a JSON array of steps or as a
// string containing that array.
func ParseGuide(raw json.RawMessage) ([]GuideStep, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("guide is required")
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("invalid guide: %w", err)
		}
		raw = json.RawMessage(encoded)
	}

	var steps []GuideStep
	if err := json.Unmarshal(raw, &steps); err != nil {
		return nil, fmt.Errorf("invalid guide: %w", err)
	}
	return steps, nil
}
