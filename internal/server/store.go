package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/complaint-assistant/internal/db"
	"github.com/jonathan/complaint-assistant/internal/types"
)

// DBClient is the persistence surface the HTTP layer needs. *db.DB implements it.
type DBClient interface {
	CreateUser(ctx context.Context, email, passwordHash string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)

	CreateComplaint(ctx context.Context, owner uuid.UUID, originalProblem string, pkg *types.ComplaintPackage) (*types.Complaint, error)
	GetComplaintForUser(ctx context.Context, id, owner uuid.UUID) (*types.Complaint, error)
	ListComplaintsByUser(ctx context.Context, owner uuid.UUID) ([]types.Complaint, error)
	UpdateComplaintDraft(ctx context.Context, id, owner uuid.UUID, draft string) (*types.Complaint, error)
	UpdateComplaintStatus(ctx context.Context, id, owner uuid.UUID, status types.Status) (*types.Complaint, error)
	DeleteComplaint(ctx context.Context, id, owner uuid.UUID) error
}

// ComplaintService generates complaint artifacts. *complaint.Service implements it.
type ComplaintService interface {
	ClassifyAndGenerate(ctx context.Context, problem string) (*types.ComplaintPackage, error)
	RefineComplaint(ctx context.Context, originalProblem, currentDraft, instruction string) (string, error)
	GetClarification(ctx context.Context, stepContext, question, originalProblem string) string
	GenerateFollowUp(ctx context.Context, c *types.Complaint) (*types.FollowUp, error)
}
