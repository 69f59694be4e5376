package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_DefaultRetryMaxAttempts(t *testing.T) {
	t.Setenv("RETRY_MAX_ATTEMPTS", "")

	cfg := LoadConfig()
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
}

func TestLoadConfig_ClampsRetryMaxAttempts(t *testing.T) {
	// 0 o negativo desbordaría el contador uint del binding de retry.
	t.Setenv("RETRY_MAX_ATTEMPTS", "0")
	assert.Equal(t, 1, LoadConfig().Retry.MaxAttempts)

	t.Setenv("RETRY_MAX_ATTEMPTS", "-3")
	assert.Equal(t, 1, LoadConfig().Retry.MaxAttempts)
}
