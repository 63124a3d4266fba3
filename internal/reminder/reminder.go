// Package reminder emails owners of complaints that have gone unanswered for
// too long, on a cron schedule.
package reminder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonathan/complaint-assistant/internal/mail"
	"github.com/jonathan/complaint-assistant/internal/types"
)

// ErrTickInProgress is returned by RunOnce when another tick is still running.
var ErrTickInProgress = errors.New("reminder tick already in progress")

// Store lists complaints that still wait on the authority past a cutoff.
type Store interface {
	ListStaleComplaints(ctx context.Context, statuses []types.Status, cutoff time.Time) ([]types.ReminderCandidate, error)
}

// Config controls when the scheduler fires and what counts as stale.
type Config struct {
	// Schedule is a 5-field cron expression.
	Schedule  string
	Location  *time.Location
	Threshold time.Duration
	// BaseURL prefixes the follow-up link, without a trailing slash.
	BaseURL string
}

// TickResult summarizes one pass over the stale complaints.
type TickResult struct {
	Candidates int
	Sent       int
	Failed     int
	// Skipped counts candidates without an owner email.
	Skipped int
}

const (
	stateIdle int32 = iota
	stateRunning
)

// Scheduler runs reminder ticks on a cron schedule.
type Scheduler struct {
	store    Store
	sender   mail.Sender
	cfg      Config
	schedule cron.Schedule
	state    atomic.Int32
	now      func() time.Time
}

// New validates cfg and creates a Scheduler.
func New(store Store, sender mail.Sender, cfg Config) (*Scheduler, error) {
	if store == nil || sender == nil {
		return nil, fmt.Errorf("store and sender are required")
	}
	if cfg.Threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive, got: %s", cfg.Threshold)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(strings.TrimSpace(cfg.Schedule))
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", cfg.Schedule, err)
	}

	return &Scheduler{
		store:    store,
		sender:   sender,
		cfg:      cfg,
		schedule: sched,
		now:      time.Now,
	}, nil
}

// Running reports whether a tick is in progress.
func (s *Scheduler) Running() bool {
	return s.state.Load() == stateRunning
}

// Next returns the first trigger time after t in the configured timezone.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.cfg.Location))
}

// Run fires a tick at every scheduled time until ctx is cancelled.
// Tick failures are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("[reminder] Reminder service scheduled (cron: %s, timezone: %s)", s.cfg.Schedule, s.cfg.Location)

	for {
		now := s.now()
		next := s.Next(now)
		wait := next.Sub(now)
		log.Printf("[reminder] Next reminder check at %s (in %s)", next.Format("Mon Jan 2 15:04 MST"), wait.Round(time.Minute))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("[reminder] Reminder service stopped")
			return nil
		case <-timer.C:
		}

		if _, err := s.RunOnce(ctx); err != nil {
			log.Printf("[reminder] Reminder check failed: %v", err)
		}
	}
}

// RunOnce performs a single tick: find stale complaints and send one reminder
// per candidate with an owner email. A failed send is counted and the loop
// moves on; only a failed query aborts the tick.
func (s *Scheduler) RunOnce(ctx context.Context) (*TickResult, error) {
	if !s.state.CompareAndSwap(stateIdle, stateRunning) {
		return nil, ErrTickInProgress
	}
	defer s.state.Store(stateIdle)

	log.Printf("[reminder] Running reminder check...")
	cutoff := s.now().Add(-s.cfg.Threshold)

	candidates, err := s.store.ListStaleComplaints(ctx, types.PendingStatuses(), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale complaints: %w", err)
	}

	result := &TickResult{Candidates: len(candidates)}
	if len(candidates) == 0 {
		log.Printf("[reminder] No stale complaints found")
		return result, nil
	}
	log.Printf("[reminder] Found %d stale complaints. Sending reminders...", len(candidates))

	for _, c := range candidates {
		if c.OwnerEmail == "" {
			result.Skipped++
			continue
		}

		msg, err := s.message(c)
		if err == nil {
			err = s.sender.Send(ctx, msg)
		}
		if err != nil {
			result.Failed++
			log.Printf("[reminder] Failed to send reminder for complaint %s: %v", c.ComplaintID, err)
			continue
		}
		result.Sent++
		log.Printf("[reminder] Reminder email sent to %s", c.OwnerEmail)
	}

	log.Printf("[reminder] Reminder check complete: sent=%d failed=%d skipped=%d", result.Sent, result.Failed, result.Skipped)
	return result, nil
}

var bodyTemplate = template.Must(template.New("reminder").Parse(`<p>Hello,</p>
<p>This is a reminder that it has been over {{.Days}} days since you filed your complaint regarding a "{{.Category}}" issue.</p>
<p>Following up is often necessary to get a resolution. You can generate an AI-drafted follow-up letter by clicking the link below:</p>
<a href="{{.Link}}" target="_blank">Generate Follow-Up Letter</a>
<p>Thank you for using the AI Complaint Assistant.</p>
`))

// FollowUpLink returns the link embedded in the reminder for a complaint.
func (s *Scheduler) FollowUpLink(c types.ReminderCandidate) string {
	return fmt.Sprintf("%s/follow-up/%s", s.cfg.BaseURL, c.ComplaintID)
}

func (s *Scheduler) message(c types.ReminderCandidate) (mail.Message, error) {
	var body bytes.Buffer
	err := bodyTemplate.Execute(&body, struct {
		Days     int
		Category string
		Link     string
	}{
		Days:     int(s.cfg.Threshold.Hours() / 24),
		Category: string(c.Category),
		Link:     s.FollowUpLink(c),
	})
	if err != nil {
		return mail.Message{}, fmt.Errorf("failed to render reminder body: %w", err)
	}

	return mail.Message{
		To:       c.OwnerEmail,
		Subject:  fmt.Sprintf("💡 Time to follow up on your complaint about \"%s\"", c.Category),
		HTMLBody: body.String(),
	}, nil
}
