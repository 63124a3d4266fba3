package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		expiration string
		wantHours  int
		wantErr    string
	}{
		{name: "default expiration", secret: "test-secret-key", wantHours: 24},
		{name: "custom expiration", secret: "test-secret-key", expiration: "48", wantHours: 48},
		{name: "missing secret", wantErr: "JWT_SECRET is required"},
		{name: "zero expiration", secret: "s", expiration: "0", wantErr: "at least 1 hour"},
		{name: "non-numeric expiration", secret: "s", expiration: "abc", wantErr: "invalid JWT_EXPIRATION_HOURS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetEnv(t, "JWT_SECRET", "JWT_EXPIRATION_HOURS")
			if tt.secret != "" {
				t.Setenv("JWT_SECRET", tt.secret)
			}
			if tt.expiration != "" {
				t.Setenv("JWT_EXPIRATION_HOURS", tt.expiration)
			}

			cfg, err := NewJWTConfig()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.secret, cfg.Secret)
			assert.Equal(t, tt.wantHours, cfg.ExpirationHours)
		})
	}
}
