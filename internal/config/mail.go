package config

import "fmt"

// Mail holds SMTP settings for reminder delivery.
type Mail struct {
	Host     string `env:"EMAIL_HOST"`
	Port     int    `env:"EMAIL_PORT" envDefault:"465"`
	Username string `env:"EMAIL_USER"`
	Password string `env:"EMAIL_PASS"`
	From     string `env:"EMAIL_FROM" envDefault:"\"AI Complaint Assistant\" <noreply@anycomplaint.ai>"`
	// TLS selects implicit TLS (SMTPS). When false, STARTTLS is used if offered.
	TLS bool `env:"EMAIL_TLS" envDefault:"true"`
}

// LoadMail reads SMTP settings from the environment.
func LoadMail() (*Mail, error) {
	var cfg Mail
	if err := parseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Mail) normalize() error {
	if c.Host == "" {
		return fmt.Errorf("EMAIL_HOST is required but not set")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("EMAIL_PORT out of range: %d", c.Port)
	}
	if c.From == "" {
		return fmt.Errorf("EMAIL_FROM cannot be empty")
	}
	return nil
}
