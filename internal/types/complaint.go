package types

import (
	"time"

	"github.com/google/uuid"
)

// Category is the complaint classification requested from the model.
// The set is enforced by prompt text only; a value outside it is kept as returned.
type Category string

// Known complaint categories.
const (
	CategoryCorruption        Category = "Corruption"
	CategoryCivicIssue        Category = "Civic Issue"
	CategoryPoliceMisconduct  Category = "Police Misconduct"
	CategoryRTIIssue          Category = "RTI Issue"
	CategoryConsumerComplaint Category = "Consumer Complaint"
	CategoryCybercrime        Category = "Cybercrime"
	CategoryFinancialIssue    Category = "Financial Issue"
	CategoryHousingLand       Category = "Housing/Land Grabbing"
	CategoryGeneralIssue      Category = "General Issue"
)

// Categories returns every known category in prompt order.
func Categories() []Category {
	return []Category{
		CategoryCorruption,
		CategoryCivicIssue,
		CategoryPoliceMisconduct,
		CategoryRTIIssue,
		CategoryConsumerComplaint,
		CategoryCybercrime,
		CategoryFinancialIssue,
		CategoryHousingLand,
		CategoryGeneralIssue,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Status tracks where a filed complaint stands.
type Status string

// Complaint statuses. New complaints start as Draft.
const (
	StatusDraft            Status = "Draft"
	StatusFiled            Status = "Filed"
	StatusAwaitingResponse Status = "Awaiting Response"
	StatusActionTaken      Status = "Action Taken"
	StatusResolved         Status = "Resolved"
	StatusRejected         Status = "Rejected"
	StatusClosed           Status = "Closed"
)

// Statuses returns every valid status.
func Statuses() []Status {
	return []Status{
		StatusDraft,
		StatusFiled,
		StatusAwaitingResponse,
		StatusActionTaken,
		StatusResolved,
		StatusRejected,
		StatusClosed,
	}
}

// PendingStatuses are the statuses of complaints still waiting on the authority.
func PendingStatuses() []Status {
	return []Status{StatusFiled, StatusAwaitingResponse}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses() {
		if s == known {
			return true
		}
	}
	return false
}

// GuideStep is one numbered instruction for filing on a portal.
// Numbering comes from the model and is not checked for gaps or duplicates.
type GuideStep struct {
	StepNumber  int    `json:"step_number"`
	Instruction string `json:"instruction"`
}

// ComplaintPackage is the generated bundle for one problem description.
type ComplaintPackage struct {
	Category       Category    `json:"category"`
	Portal         string      `json:"portal"`
	PortalID       string      `json:"portal_id"`
	ComplaintDraft string      `json:"complaintDraft"`
	Documents      string      `json:"documents"`
	Guide          []GuideStep `json:"guide"`
}

// Complaint is a persisted complaint as returned by the API.
type Complaint struct {
	ID              uuid.UUID   `json:"id"`
	UserID          uuid.UUID   `json:"user_id"`
	OriginalProblem string      `json:"originalProblem"`
	ComplaintDraft  string      `json:"complaintDraft"`
	Category        Category    `json:"category"`
	Portal          string      `json:"portal"`
	PortalID        string      `json:"portal_id"`
	Documents       string      `json:"documents"`
	Guide           []GuideStep `json:"guide"`
	Status          Status      `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// FollowUp is the generated follow-up letter for an unanswered complaint.
type FollowUp struct {
	FollowUpDraft string `json:"followUpDraft"`
}

// ReminderCandidate is the read-only view of a stale complaint used for reminders.
type ReminderCandidate struct {
	ComplaintID uuid.UUID
	Category    Category
	Status      Status
	CreatedAt   time.Time
	OwnerEmail  string
}
