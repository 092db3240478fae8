package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "order-ingestor", cfg.App.Name)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "Orders", cfg.DynamoDB.Table)
	assert.Equal(t, 3, cfg.DynamoDB.MaxAttempts)
	assert.Equal(t, "Message", cfg.Envelope.Field)
	assert.Equal(t, "sent", cfg.Envelope.TimestampSource)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Breaker.MaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Breaker.OpenTimeout)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ORDERS_TABLE", "OrdersStaging")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENVELOPE_TIMESTAMP_SOURCE", "now")
	t.Setenv("BREAKER_OPEN_TIMEOUT", "45s")
	t.Setenv("BREAKER_MAX_FAILURES", "2")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "OrdersStaging", cfg.DynamoDB.Table)
	assert.Equal(t, "eu-west-1", cfg.DynamoDB.Region)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "now", cfg.Envelope.TimestampSource)
	assert.Equal(t, 45*time.Second, cfg.Breaker.OpenTimeout)
	assert.Equal(t, uint32(2), cfg.Breaker.MaxFailures)
}

func TestLoad_PrimaryEnvNameWinsOverAlias(t *testing.T) {
	t.Setenv("DYNAMODB_TABLE", "Primary")
	t.Setenv("ORDERS_TABLE", "Alias")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Primary", cfg.DynamoDB.Table)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingestor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dynamodb:
  table: FromFile
  endpoint: http://localhost:8000
envelope:
  field: Payload
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "FromFile", cfg.DynamoDB.Table)
	assert.Equal(t, "http://localhost:8000", cfg.DynamoDB.Endpoint)
	assert.Equal(t, "Payload", cfg.Envelope.Field)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_ValidationCollectsAllErrors(t *testing.T) {
	t.Setenv("ENVELOPE_TIMESTAMP_SOURCE", "later")
	t.Setenv("DYNAMODB_MAX_ATTEMPTS", "0")
	t.Setenv("TRACING_SAMPLE_RATE", "2")

	_, err := Load("")
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "ENVELOPE_TIMESTAMP_SOURCE")
	assert.Contains(t, msg, "DYNAMODB_MAX_ATTEMPTS")
	assert.Contains(t, msg, "TRACING_SAMPLE_RATE")
}

func TestLoad_EndpointOverrideRejectedInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DYNAMODB_ENDPOINT", "http://localhost:8000")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DYNAMODB_ENDPOINT")
}
