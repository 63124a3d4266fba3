package main

import (
	"context"
	"fmt"

	"github.com/jonathan/complaint-assistant/internal/complaint"
	"github.com/jonathan/complaint-assistant/internal/config"
	"github.com/jonathan/complaint-assistant/internal/db"
	"github.com/jonathan/complaint-assistant/internal/llm"
	"github.com/jonathan/complaint-assistant/internal/mail"
	"github.com/jonathan/complaint-assistant/internal/reminder"
)

// modelFor picks the explicit AI_MODEL override or the provider's standard tier.
func modelFor(cfg *config.AI) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	return llm.ConfigFor(llm.Provider(cfg.Provider)).GetModel(llm.TierStandard)
}

// newComplaintService builds the AI stack from the environment.
// The returned generator must be closed by the caller.
func newComplaintService(ctx context.Context) (*complaint.Service, llm.TextGenerator, error) {
	aiCfg, err := config.LoadAI()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load AI config: %w", err)
	}

	gen, err := llm.NewGenerator(ctx, llm.ConfigFor(llm.Provider(aiCfg.Provider)), aiCfg.APIKey())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s client: %w", aiCfg.Provider, err)
	}

	caller := llm.NewCaller(gen, modelFor(aiCfg),
		llm.WithMaxAttempts(aiCfg.MaxAttempts),
		llm.WithBackoff(aiCfg.InitialBackoff, aiCfg.MaxBackoff),
	)
	return complaint.NewService(caller), gen, nil
}

// newScheduler builds the reminder scheduler over store with SMTP delivery.
func newScheduler(store reminder.Store, remCfg *config.Reminder, baseURL string) (*reminder.Scheduler, error) {
	mailCfg, err := config.LoadMail()
	if err != nil {
		return nil, fmt.Errorf("failed to load mail config: %w", err)
	}
	sender, err := mail.NewSMTPSender(mailCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail sender: %w", err)
	}

	return reminder.New(store, sender, reminder.Config{
		Schedule:  remCfg.Schedule,
		Location:  remCfg.Location(),
		Threshold: remCfg.Threshold,
		BaseURL:   baseURL,
	})
}

func connectDB(ctx context.Context, databaseURL string) (*db.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return db.Connect(ctx, databaseURL)
}
