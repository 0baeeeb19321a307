package config

import (
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("COGNITO_USER_POOL_ID", "us-east-2_pool")
	t.Setenv("COGNITO_APP_CLIENT_ID", "client")
	t.Setenv("S3_BUCKET_NAME", "notes")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("AWS_REGION", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("SIGNED_URL_TTL", "")
	t.Setenv("WS_ENDPOINT", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "us-east-2", cfg.CognitoRegion)
	assert.Equal(t, "us-east-2", cfg.S3Region)
	assert.Equal(t, 15*time.Minute, cfg.SignedURLTTL)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, "32M", cfg.BodyLimit)
	assert.Equal(t, int64(1), cfg.NodeID)
	assert.Equal(t, log.INFO, cfg.LogLevel)
	assert.False(t, cfg.LiveUpdates())
}

func TestFromEnvCustomValues(t *testing.T) {
	setRequired(t)
	t.Setenv("AWS_REGION", "sa-east-1")
	t.Setenv("AWS_S3_REGION", "us-west-2")
	t.Setenv("SIGNED_URL_TTL", "5m")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("WS_ENDPOINT", "https://abc.execute-api.sa-east-1.amazonaws.com/prod")
	t.Setenv("NODE_ID", "7")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sa-east-1", cfg.CognitoRegion)
	assert.Equal(t, "us-west-2", cfg.S3Region)
	assert.Equal(t, 5*time.Minute, cfg.SignedURLTTL)
	assert.True(t, cfg.CookieSecure)
	assert.True(t, cfg.LiveUpdates())
	assert.Equal(t, int64(7), cfg.NodeID)
	assert.Equal(t, log.DEBUG, cfg.LogLevel)
}

func TestFromEnvMissingRequired(t *testing.T) {
	t.Setenv("COGNITO_USER_POOL_ID", "")
	t.Setenv("COGNITO_APP_CLIENT_ID", "client")
	t.Setenv("S3_BUCKET_NAME", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COGNITO_USER_POOL_ID, S3_BUCKET_NAME")
}

func TestFromEnvInvalidValues(t *testing.T) {
	cases := map[string]string{
		"SIGNED_URL_TTL": "soon",
		"SESSION_TTL":    "-1h",
		"COOKIE_SECURE":  "maybe",
		"NODE_ID":        "one",
		"LOG_LEVEL":      "loud",
	}

	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, val)

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
