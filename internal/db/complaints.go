package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/complaint-assistant/internal/types"
)

const complaintColumns = `id, user_id, original_problem, complaint_draft, category,
	portal, portal_id, documents, guide, status, created_at, updated_at`

// CreateComplaint stores a generated package for owner with status Draft.
func (db *DB) CreateComplaint(ctx context.Context, owner uuid.UUID, originalProblem string, pkg *types.ComplaintPackage) (*types.Complaint, error) {
	if pkg == nil {
		return nil, fmt.Errorf("complaint package is required")
	}
	guide := pkg.Guide
	if guide == nil {
		guide = []types.GuideStep{}
	}
	guideJSON, err := json.Marshal(guide)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal guide: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO complaints (user_id, original_problem, complaint_draft, category, portal, portal_id, documents, guide, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+complaintColumns,
		owner, originalProblem, pkg.ComplaintDraft, string(pkg.Category),
		pkg.Portal, pkg.PortalID, pkg.Documents, guideJSON, string(types.StatusDraft),
	)
	c, err := scanComplaint(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create complaint: %w", err)
	}
	return c, nil
}

// GetComplaintForUser returns the complaint only if owner owns it.
func (db *DB) GetComplaintForUser(ctx context.Context, id, owner uuid.UUID) (*types.Complaint, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = $1 AND user_id = $2`,
		id, owner,
	)
	return ownedComplaint(row, "get")
}

// ListComplaintsByUser returns owner's complaints, newest first.
func (db *DB) ListComplaintsByUser(ctx context.Context, owner uuid.UUID) ([]types.Complaint, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+complaintColumns+` FROM complaints
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	defer rows.Close()

	complaints := []types.Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	return complaints, nil
}

// UpdateComplaintDraft replaces the draft text of an owned complaint.
func (db *DB) UpdateComplaintDraft(ctx context.Context, id, owner uuid.UUID, draft string) (*types.Complaint, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE complaints SET complaint_draft = $3, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+complaintColumns,
		id, owner, draft,
	)
	return ownedComplaint(row, "update draft of")
}

// UpdateComplaintStatus sets the status of an owned complaint.
func (db *DB) UpdateComplaintStatus(ctx context.Context, id, owner uuid.UUID, status types.Status) (*types.Complaint, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status: %q", status)
	}
	row := db.pool.QueryRow(ctx,
		`UPDATE complaints SET status = $3, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+complaintColumns,
		id, owner, string(status),
	)
	return ownedComplaint(row, "update status of")
}

// DeleteComplaint removes an owned complaint.
func (db *DB) DeleteComplaint(ctx context.Context, id, owner uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM complaints WHERE id = $1 AND user_id = $2`,
		id, owner,
	)
	if err != nil {
		return fmt.Errorf("failed to delete complaint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStaleComplaints returns complaints in one of statuses created at or
// before cutoff, with their owner's email. Owners that no longer exist yield
// an empty email.
func (db *DB) ListStaleComplaints(ctx context.Context, statuses []types.Status, cutoff time.Time) ([]types.ReminderCandidate, error) {
	statusNames := make([]string, len(statuses))
	for i, s := range statuses {
		statusNames[i] = string(s)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT c.id, c.category, c.status, c.created_at, COALESCE(u.email, '')
		 FROM complaints c
		 LEFT JOIN users u ON u.id = c.user_id
		 WHERE c.status = ANY($1) AND c.created_at <= $2
		 ORDER BY c.created_at`,
		statusNames, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale complaints: %w", err)
	}
	defer rows.Close()

	var candidates []types.ReminderCandidate
	for rows.Next() {
		var (
			c        types.ReminderCandidate
			category string
			status   string
		)
		if err := rows.Scan(&c.ComplaintID, &category, &status, &c.CreatedAt, &c.OwnerEmail); err != nil {
			return nil, fmt.Errorf("failed to scan stale complaint: %w", err)
		}
		c.Category = types.Category(category)
		c.Status = types.Status(status)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stale complaints: %w", err)
	}
	return candidates, nil
}

func ownedComplaint(row pgx.Row, action string) (*types.Complaint, error) {
	c, err := scanComplaint(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to %s complaint: %w", action, err)
	}
	return c, nil
}

func scanComplaint(row pgx.Row) (*types.Complaint, error) {
	var (
		c         types.Complaint
		category  string
		status    string
		guideJSON []byte
	)
	err := row.Scan(&c.ID, &c.UserID, &c.OriginalProblem, &c.ComplaintDraft, &category,
		&c.Portal, &c.PortalID, &c.Documents, &guideJSON, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Category = types.Category(category)
	c.Status = types.Status(status)
	if len(guideJSON) > 0 {
		if err := json.Unmarshal(guideJSON, &c.Guide); err != nil {
			return nil, fmt.Errorf("failed to unmarshal guide: %w", err)
		}
	}
	if c.Guide == nil {
		c.Guide = []types.GuideStep{}
	}
	return &c, nil
}
