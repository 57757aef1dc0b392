package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(testLogger())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8001", cfg.Backend.BaseURL)
	assert.Equal(t, "ws://localhost:8001/api/ws/live", cfg.Backend.WSURL)
	assert.Equal(t, 5*time.Second, cfg.Engine.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.Engine.ReconnectDelay)
	assert.Equal(t, 10*time.Second, cfg.Backend.HTTPTimeout)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://cc.example.com")
	t.Setenv("POLL_INTERVAL", "2s")
	t.Setenv("RECONNECT_DELAY", "1500")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(testLogger())
	require.NoError(t, err)

	assert.Equal(t, "https://cc.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, "wss://cc.example.com/api/ws/live", cfg.Backend.WSURL)
	assert.Equal(t, 2*time.Second, cfg.Engine.PollInterval)
	// Bare numbers are read as milliseconds
	assert.Equal(t, 1500*time.Millisecond, cfg.Engine.ReconnectDelay)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestDeriveWSURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://cc.example.com", "wss://cc.example.com/api/ws/live"},
		{"http://localhost:8001", "ws://localhost:8001/api/ws/live"},
		{"http://localhost:8001/", "ws://localhost:8001/api/ws/live"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveWSURL(tc.base), "base %s", tc.base)
	}
}

func TestExplicitWSURLWins(t *testing.T) {
	t.Setenv("WS_URL", "wss://push.example.com/live")

	cfg, err := Load(testLogger())
	require.NoError(t, err)
	assert.Equal(t, "wss://push.example.com/live", cfg.Backend.WSURL)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := Load(testLogger())
	require.NoError(t, err)

	bad := *cfg
	bad.Engine.PollInterval = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Backend.WSURL = "http://not-a-ws-url"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Logging.Format = "xml"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Metrics.Port = 700000
	assert.Error(t, bad.Validate())
}

func TestConfigureLoggerParsesLevel(t *testing.T) {
	cfg, err := Load(testLogger())
	require.NoError(t, err)
	cfg.Logging.Level = "warn"
	cfg.Logging.Format = "json"

	logger := logrus.New()
	cfg.ConfigureLogger(logger)

	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}
