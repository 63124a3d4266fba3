// Package complaint turns a free-text problem description into a complaint
// package and produces the follow-up artifacts for stored complaints.
package complaint

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/complaint-assistant/internal/llm"
	"github.com/jonathan/complaint-assistant/internal/prompts"
	"github.com/jonathan/complaint-assistant/internal/schemas"
	"github.com/jonathan/complaint-assistant/internal/types"
)

// ClarificationFallback is returned by GetClarification whenever no usable
// answer could be produced.
const ClarificationFallback = "I'm sorry, I couldn't process that request. Please try rephrasing your question."

// filingDateLayout renders dates day/month/year without padding, e.g. 2/9/2025.
const filingDateLayout = "2/1/2006"

// AI is the model access the service depends on. *llm.Caller implements it.
type AI interface {
	StructuredCall(ctx context.Context, prompt string) (map[string]any, error)
	FreeTextCall(ctx context.Context, prompt string) (string, error)
}

// Service orchestrates the prompts for one complaint lifecycle.
type Service struct {
	ai  AI
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for follow-up dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service backed by ai.
func NewService(ai AI, opts ...Option) *Service {
	s := &Service{ai: ai, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type analysisResult struct {
	Category string `json:"category"`
	Portal   string `json:"portal"`
	PortalID string `json:"portal_id"`
	Summary  string `json:"summary"`
}

type generationResult struct {
	ComplaintDraft string            `json:"complaintDraft"`
	Documents      string            `json:"documents"`
	Guide          []types.GuideStep `json:"guide"`
}

type refineResult struct {
	NewDraft string `json:"newDraft"`
}

// ClassifyAndGenerate classifies problem, then drafts the complaint for the
// portal chosen in the first step. The analysis result is authoritative for
// category and portal.
func (s *Service) ClassifyAndGenerate(ctx context.Context, problem string) (*types.ComplaintPackage, error) {
	categories := make([]string, 0, len(types.Categories()))
	for _, c := range types.Categories() {
		categories = append(categories, string(c))
	}

	var analysis analysisResult
	if err := s.structured(ctx, schemas.Analysis, "analysis", map[string]string{
		"Categories": strings.Join(categories, ", "),
		"Problem":    problem,
	}, &analysis); err != nil {
		return nil, err
	}

	var generation generationResult
	if err := s.structured(ctx, schemas.Generation, "generation", map[string]string{
		"Category": analysis.Category,
		"Portal":   analysis.Portal,
		"PortalID": analysis.PortalID,
		"Problem":  problem,
	}, &generation); err != nil {
		return nil, err
	}

	return &types.ComplaintPackage{
		Category:       types.Category(analysis.Category),
		Portal:         analysis.Portal,
		PortalID:       analysis.PortalID,
		ComplaintDraft: generation.ComplaintDraft,
		Documents:      generation.Documents,
		Guide:          generation.Guide,
	}, nil
}

// RefineComplaint rewrites currentDraft according to instruction.
func (s *Service) RefineComplaint(ctx context.Context, originalProblem, currentDraft, instruction string) (string, error) {
	var result refineResult
	if err := s.structured(ctx, schemas.Refine, "refine", map[string]string{
		"Problem":     originalProblem,
		"Draft":       currentDraft,
		"Instruction": instruction,
	}, &result); err != nil {
		return "", err
	}
	return result.NewDraft, nil
}

// GetClarification answers a question about one guide step. It never fails:
// any AI error or empty answer yields ClarificationFallback.
func (s *Service) GetClarification(ctx context.Context, stepContext, question, originalProblem string) string {
	template, err := prompts.Get(prompts.ComplaintFile, "clarify")
	if err != nil {
		log.Printf("[complaint] %v", err)
		return ClarificationFallback
	}

	answer, err := s.ai.FreeTextCall(ctx, prompts.Format(template, map[string]string{
		"Problem":     originalProblem,
		"StepContext": stepContext,
		"Question":    question,
	}))
	if err != nil {
		log.Printf("[complaint] Clarification failed: %v", err)
		return ClarificationFallback
	}
	if strings.TrimSpace(answer) == "" {
		return ClarificationFallback
	}
	return answer
}

// GenerateFollowUp drafts a follow-up letter for a complaint that has gone
// unanswered since it was created.
func (s *Service) GenerateFollowUp(ctx context.Context, c *types.Complaint) (*types.FollowUp, error) {
	if c == nil {
		return nil, fmt.Errorf("complaint is required")
	}

	var followUp types.FollowUp
	if err := s.structured(ctx, schemas.FollowUp, "follow_up", map[string]string{
		"Draft":           c.ComplaintDraft,
		"FiledDate":       c.CreatedAt.Format(filingDateLayout),
		"DaysSinceFiling": strconv.Itoa(DaysSince(c.CreatedAt, s.now())),
	}, &followUp); err != nil {
		return nil, err
	}
	return &followUp, nil
}

// DaysSince returns the elapsed whole days between then and now, rounded to
// the nearest day.
func DaysSince(then, now time.Time) int {
	return int(math.Round(now.Sub(then).Hours() / 24))
}

// structured renders the prompt at key, calls the model, validates the reply
// against schemaName and decodes it into out.
func (s *Service) structured(ctx context.Context, schemaName, key string, data map[string]string, out any) error {
	template, err := prompts.Get(prompts.ComplaintFile, key)
	if err != nil {
		return fmt.Errorf("failed to load %s prompt: %w", key, err)
	}

	raw, err := s.ai.StructuredCall(ctx, prompts.Format(template, data))
	if err != nil {
		return err
	}

	if err := schemas.Validate(schemaName, raw); err != nil {
		log.Printf("[complaint] Rejected %s response: %v", key, err)
		return fmt.Errorf("%w: %v", llm.ErrAIMalformedResponse, err)
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", llm.ErrAIMalformedResponse, err)
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		return fmt.Errorf("%w: %v", llm.ErrAIMalformedResponse, err)
	}
	return nil
}
