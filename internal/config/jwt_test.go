package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_DisabledWithoutSecret(t *testing.T) {
	cfg := &Config{Auth: AuthConfig{ExpirationHours: 24}}

	jwtCfg, err := cfg.JWT()

	require.NoError(t, err)
	assert.Nil(t, jwtCfg)
}

func TestJWT_Configured(t *testing.T) {
	cfg := &Config{Auth: AuthConfig{JWTSecret: "a-sufficiently-long-secret", ExpirationHours: 12}}

	jwtCfg, err := cfg.JWT()

	require.NoError(t, err)
	require.NotNil(t, jwtCfg)
	assert.Equal(t, "a-sufficiently-long-secret", jwtCfg.Secret)
	assert.Equal(t, 12*time.Hour, jwtCfg.Expiration())
}

func TestJWT_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		auth    AuthConfig
		wantErr string
	}{
		{"short secret", AuthConfig{JWTSecret: "short", ExpirationHours: 24}, "at least 16 characters"},
		{"zero expiration", AuthConfig{JWTSecret: "a-sufficiently-long-secret", ExpirationHours: 0}, "at least 1 hour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Config{Auth: tt.auth}).JWT()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
