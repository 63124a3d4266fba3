package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/complaint-assistant/internal/server/middleware"
	"github.com/jonathan/complaint-assistant/internal/types"
)

// handleSubmit generates a complaint package from a problem description and stores it.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req types.SubmitRequest
	if err := decodeAndValidate(r, s.validator, &req); err != nil {
		writeErr(w, err)
		return
	}

	pkg, err := s.complaints.ClassifyAndGenerate(r.Context(), req.Problem)
	if err != nil {
		logError("generate complaint", err)
		writeErr(w, err)
		return
	}

	stored, err := s.db.CreateComplaint(r.Context(), userID, req.Problem, pkg)
	if err != nil {
		logError("save complaint", err)
		writeErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, types.SubmitResponse{
		ComplaintID:      stored.ID,
		Problem:          req.Problem,
		ComplaintPackage: *pkg,
	})
}

// handleRefine rewrites the draft of an owned complaint.
func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req types.RefineRequest
	if err := decodeAndValidate(r, s.validator, &req); err != nil {
		writeErr(w, err)
		return
	}

	// Ownership is checked before spending a model call.
	if _, err := s.db.GetComplaintForUser(r.Context(), req.ComplaintID, userID); err != nil {
		writeErr(w, err)
		return
	}

	newDraft, err := s.complaints.RefineComplaint(r.Context(), req.OriginalProblem, req.ComplaintDraft, req.RefineInstruction)
	if err != nil {
		logError("refine complaint", err)
		writeErr(w, err)
		return
	}

	updated, err := s.db.UpdateComplaintDraft(r.Context(), req.ComplaintID, userID, newDraft)
	if err != nil {
		logError("update draft", err)
		writeErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, updated)
}

// handleGuide returns the structured step-by-step guide view.
func (s *Server) handleGuide(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireUser(w, r); !ok {
		return
	}

	var req types.GuideRequest
	if err := decodeAndValidate(r, s.validator, &req); err != nil {
		writeErr(w, err)
		return
	}

	guide, err := types.ParseGuide(req.Guide)
	if err != nil {
		writeErr(w, &ErrValidation{Field: "guide", Message: err.Error()})
		return
	}

	s.jsonResponse(w, http.StatusOK, types.GuideView{
		Guide:           guide,
		Documents:       req.Documents,
		PortalID:        req.PortalID,
		OriginalProblem: req.OriginalProblem,
	})
}

// handleAskAI answers a question about a guide step.
func (s *Server) handleAskAI(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireUser(w, r); !ok {
		return
	}

	var req types.AskAIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.UserQuestion) == "" {
		s.errorResponse(w, http.StatusBadRequest, "Question is required.")
		return
	}
	if strings.TrimSpace(req.StepContext) == "" {
		req.StepContext = types.DefaultStepContext
	}

	answer := s.complaints.GetClarification(r.Context(), req.StepContext, req.UserQuestion, req.OriginalProblem)
	s.jsonResponse(w, http.StatusOK, types.AskAIResponse{Answer: answer})
}

// handleDashboard lists the caller's complaints, newest first.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	complaints, err := s.db.ListComplaintsByUser(r.Context(), userID)
	if err != nil {
		logError("list complaints", err)
		writeErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"complaints": complaints})
}

// handleGetComplaint returns one owned complaint.
func (s *Server) handleGetComplaint(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.requireUserAndComplaintID(w, r)
	if !ok {
		return
	}

	c, err := s.db.GetComplaintForUser(r.Context(), id, userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, c)
}

// handleUpdateStatus moves an owned complaint to a new status.
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.requireUserAndComplaintID(w, r)
	if !ok {
		return
	}

	var req types.StatusUpdateRequest
	if err := decodeAndValidate(r, s.validator, &req); err != nil {
		writeErr(w, err)
		return
	}
	if !req.Status.Valid() {
		writeErr(w, &ErrValidation{Field: "status", Message: "must be one of the known statuses"})
		return
	}

	updated, err := s.db.UpdateComplaintStatus(r.Context(), id, userID, req.Status)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, updated)
}

// handleDeleteComplaint removes an owned complaint.
func (s *Server) handleDeleteComplaint(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.requireUserAndComplaintID(w, r)
	if !ok {
		return
	}

	if err := s.db.DeleteComplaint(r.Context(), id, userID); err != nil {
		writeErr(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Complaint deleted successfully"})
}

// handleFollowUp drafts a follow-up letter for an owned complaint.
func (s *Server) handleFollowUp(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.requireUserAndComplaintID(w, r)
	if !ok {
		return
	}

	c, err := s.db.GetComplaintForUser(r.Context(), id, userID)
	if err != nil {
		writeErr(w, err)
		return
	}

	followUp, err := s.complaints.GenerateFollowUp(r.Context(), c)
	if err != nil {
		logError("generate follow-up", err)
		writeErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.FollowUpResponse{
		OriginalComplaint: c,
		FollowUpDraft:     followUp.FollowUpDraft,
	})
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// requireUserAndComplaintID resolves the caller and the {id} path value.
// A malformed id is reported as not found, like a complaint owned by someone else.
func (s *Server) requireUserAndComplaintID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, msgNotFound)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}
