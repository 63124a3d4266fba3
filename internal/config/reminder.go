package config

import (
	"fmt"
	"time"
)

// Reminder configures the stale-complaint reminder job.
type Reminder struct {
	Enabled   bool          `env:"REMINDER_ENABLED" envDefault:"true"`
	Schedule  string        `env:"REMINDER_SCHEDULE" envDefault:"34 10 * * *"`
	Timezone  string        `env:"REMINDER_TIMEZONE" envDefault:"Asia/Kolkata"`
	Threshold time.Duration `env:"REMINDER_THRESHOLD" envDefault:"336h"`
}

// LoadReminder reads reminder settings from the environment.
func LoadReminder() (*Reminder, error) {
	var cfg Reminder
	if err := parseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Reminder) normalize() error {
	if c.Schedule == "" {
		return fmt.Errorf("REMINDER_SCHEDULE cannot be empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid REMINDER_TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("REMINDER_THRESHOLD must be positive, got: %s", c.Threshold)
	}
	return nil
}

// Location returns the configured timezone. normalize guarantees it loads.
func (c *Reminder) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
