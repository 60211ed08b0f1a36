package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractinvoice/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Port)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.1", cfg.LLM.Model)
	assert.Equal(t, 7, cfg.LLM.MaxConcurrency)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "text_files", cfg.Storage.TextDir)
	assert.Equal(t, "Courier", cfg.Render.FontFamily)
	assert.Equal(t, float64(10), cfg.Render.FontSize)
	assert.False(t, cfg.Assembler.StripCodeFences)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INVOICER_LLM_PROVIDER", "openai")
	t.Setenv("INVOICER_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("INVOICER_LLM_MAX_CONCURRENCY", "2")
	t.Setenv("INVOICER_STORAGE_BACKEND", "s3")
	t.Setenv("INVOICER_STORAGE_S3_BUCKET", "invoices-bucket")
	t.Setenv("INVOICER_ASSEMBLER_STRIP_CODE_FENCES", "true")
	t.Setenv("INVOICER_CORS_ALLOWED_ORIGINS", " https://app.example.com , ,https://admin.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 2, cfg.LLM.MaxConcurrency)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "invoices-bucket", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Assembler.StripCodeFences)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("INVOICER_SERVER_PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)
}

func TestLoad_UnknownStorageBackend(t *testing.T) {
	t.Setenv("INVOICER_STORAGE_BACKEND", "ftp")

	_, err := config.Load()
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestLLMConfig_Timeout(t *testing.T) {
	assert.Equal(t, 300*time.Second, (&config.LLMConfig{}).Timeout())
	assert.Equal(t, 45*time.Second, (&config.LLMConfig{TimeoutSecs: 45}).Timeout())
}
