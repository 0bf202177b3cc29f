package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vigilrun/vigil/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		TenantID:        "tenant",
		ClientID:        "client",
		ClientSecret:    "secret",
		Database:        "sqlite://./data/vigil.db",
		RedisURL:        "redis://localhost:6379/0",
		SinkEndpoint:    "minio.internal:9000",
		SinkRuleID:      "rule-1",
		SinkStream:      "stream",
		AdminGroupID:    "admins",
		UIClientID:      "ui-client",
		DefaultLookback: 60 * time.Minute,
		MaxLookback:     360 * time.Minute,
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	cfg := validConfig()
	cfg.AdminGroupID = ""
	err := cfg.Validate()
	assert.ErrorContains(t, err, "admin group id")
}

func TestValidateRequiresSecretOrSigningKey(t *testing.T) {
	cfg := validConfig()
	cfg.ClientSecret = ""
	cfg.SigningKeyPath = ""
	err := cfg.Validate()
	assert.ErrorContains(t, err, "signing key")
}

func TestValidateRejectsInvertedLookbackWindow(t *testing.T) {
	cfg := validConfig()
	cfg.DefaultLookback = 400 * time.Minute
	cfg.MaxLookback = 360 * time.Minute
	err := cfg.Validate()
	assert.ErrorContains(t, err, "lookback")
}
