package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	LLM       LLMConfig
	Storage   StorageConfig
	OCR       OCRConfig
	Render    RenderConfig
	Assembler AssemblerConfig
	CORS      CORSConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	Environment   string        `mapstructure:"environment"`
	MaxUploadMB   int64         `mapstructure:"max_upload_mb"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LLMConfig holds the model backend settings. Model is handed to the
// extraction orchestrator explicitly; nothing reads it from a global.
type LLMConfig struct {
	Provider       string `mapstructure:"provider"`
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSecs    int    `mapstructure:"timeout_secs"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
}

// Timeout returns the per-call HTTP timeout.
func (l *LLMConfig) Timeout() time.Duration {
	if l.TimeoutSecs <= 0 {
		return 300 * time.Second
	}
	return time.Duration(l.TimeoutSecs) * time.Second
}

// StorageConfig selects and configures the artifact store.
type StorageConfig struct {
	Backend     string `mapstructure:"backend"`
	Root        string `mapstructure:"root"`
	UploadsDir  string `mapstructure:"uploads_dir"`
	TextDir     string `mapstructure:"text_dir"`
	InvoicesDir string `mapstructure:"invoices_dir"`
	S3          S3Config
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Prefix        string `mapstructure:"prefix"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// OCRConfig configures the tesseract runner used for image uploads.
type OCRConfig struct {
	Binary      string `mapstructure:"binary"`
	Language    string `mapstructure:"language"`
	TessdataDir string `mapstructure:"tessdata_dir"`
}

// RenderConfig holds PDF layout overrides.
type RenderConfig struct {
	FontFamily string  `mapstructure:"font_family"`
	FontSize   float64 `mapstructure:"font_size"`
}

// AssemblerConfig toggles optional fragment repair steps.
type AssemblerConfig struct {
	StripCodeFences bool `mapstructure:"strip_code_fences"`
}

// Load reads configuration from environment variables with the INVOICER_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INVOICER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":5000")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "15m")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_mb", 25)
	v.SetDefault("server.public_base_url", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// LLM defaults; a local ollama with llama3.1
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.model", "llama3.1")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout_secs", 300)
	v.SetDefault("llm.max_concurrency", 7)

	// Storage defaults
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.root", "./data")
	v.SetDefault("storage.uploads_dir", "uploads")
	v.SetDefault("storage.text_dir", "text_files")
	v.SetDefault("storage.invoices_dir", "invoices")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "contract-invoices")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.presign_expiry", 3600)

	// OCR defaults
	v.SetDefault("ocr.binary", "tesseract")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.tessdata_dir", "")

	// Render defaults
	v.SetDefault("render.font_family", "Courier")
	v.SetDefault("render.font_size", 10)

	v.SetDefault("assembler.strip_code_fences", false)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "INVOICER_SERVER_PORT",
		"server.read_timeout":         "INVOICER_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "INVOICER_SERVER_WRITE_TIMEOUT",
		"server.environment":          "INVOICER_SERVER_ENVIRONMENT",
		"server.max_upload_mb":        "INVOICER_SERVER_MAX_UPLOAD_MB",
		"server.public_base_url":      "INVOICER_SERVER_PUBLIC_BASE_URL",
		"log.level":                   "INVOICER_LOG_LEVEL",
		"log.format":                  "INVOICER_LOG_FORMAT",
		"llm.provider":                "INVOICER_LLM_PROVIDER",
		"llm.model":                   "INVOICER_LLM_MODEL",
		"llm.base_url":                "INVOICER_LLM_BASE_URL",
		"llm.api_key":                 "INVOICER_LLM_API_KEY",
		"llm.timeout_secs":            "INVOICER_LLM_TIMEOUT_SECS",
		"llm.max_concurrency":         "INVOICER_LLM_MAX_CONCURRENCY",
		"storage.backend":             "INVOICER_STORAGE_BACKEND",
		"storage.root":                "INVOICER_STORAGE_ROOT",
		"storage.uploads_dir":         "INVOICER_STORAGE_UPLOADS_DIR",
		"storage.text_dir":            "INVOICER_STORAGE_TEXT_DIR",
		"storage.invoices_dir":        "INVOICER_STORAGE_INVOICES_DIR",
		"storage.s3.region":           "INVOICER_STORAGE_S3_REGION",
		"storage.s3.bucket":           "INVOICER_STORAGE_S3_BUCKET",
		"storage.s3.endpoint":         "INVOICER_STORAGE_S3_ENDPOINT",
		"storage.s3.access_key":       "INVOICER_STORAGE_S3_ACCESS_KEY",
		"storage.s3.secret_key":       "INVOICER_STORAGE_S3_SECRET_KEY",
		"storage.s3.prefix":           "INVOICER_STORAGE_S3_PREFIX",
		"storage.s3.presign_expiry":   "INVOICER_STORAGE_S3_PRESIGN_EXPIRY",
		"ocr.binary":                  "INVOICER_OCR_BINARY",
		"ocr.language":                "INVOICER_OCR_LANGUAGE",
		"ocr.tessdata_dir":            "INVOICER_OCR_TESSDATA_DIR",
		"render.font_family":          "INVOICER_RENDER_FONT_FAMILY",
		"render.font_size":            "INVOICER_RENDER_FONT_SIZE",
		"assembler.strip_code_fences": "INVOICER_ASSEMBLER_STRIP_CODE_FENCES",
		"cors.allowed_origins":        "INVOICER_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if INVOICER_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOICER_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:          serverPort,
		ReadTimeout:   v.GetDuration("server.read_timeout"),
		WriteTimeout:  v.GetDuration("server.write_timeout"),
		Environment:   v.GetString("server.environment"),
		MaxUploadMB:   v.GetInt64("server.max_upload_mb"),
		PublicBaseURL: strings.TrimSuffix(v.GetString("server.public_base_url"), "/"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.LLM = LLMConfig{
		Provider:       v.GetString("llm.provider"),
		Model:          v.GetString("llm.model"),
		BaseURL:        v.GetString("llm.base_url"),
		APIKey:         v.GetString("llm.api_key"),
		TimeoutSecs:    v.GetInt("llm.timeout_secs"),
		MaxConcurrency: v.GetInt("llm.max_concurrency"),
	}
	cfg.Storage = StorageConfig{
		Backend:     v.GetString("storage.backend"),
		Root:        v.GetString("storage.root"),
		UploadsDir:  v.GetString("storage.uploads_dir"),
		TextDir:     v.GetString("storage.text_dir"),
		InvoicesDir: v.GetString("storage.invoices_dir"),
		S3: S3Config{
			Region:        v.GetString("storage.s3.region"),
			Bucket:        v.GetString("storage.s3.bucket"),
			Endpoint:      v.GetString("storage.s3.endpoint"),
			AccessKey:     v.GetString("storage.s3.access_key"),
			SecretKey:     v.GetString("storage.s3.secret_key"),
			Prefix:        v.GetString("storage.s3.prefix"),
			PresignExpiry: v.GetInt64("storage.s3.presign_expiry"),
		},
	}
	cfg.OCR = OCRConfig{
		Binary:      v.GetString("ocr.binary"),
		Language:    v.GetString("ocr.language"),
		TessdataDir: v.GetString("ocr.tessdata_dir"),
	}
	cfg.Render = RenderConfig{
		FontFamily: v.GetString("render.font_family"),
		FontSize:   v.GetFloat64("render.font_size"),
	}
	cfg.Assembler = AssemblerConfig{
		StripCodeFences: v.GetBool("assembler.strip_code_fences"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if c.Render.FontSize <= 0 {
		return fmt.Errorf("render.font_size must be positive, got %v", c.Render.FontSize)
	}
	return nil
}
