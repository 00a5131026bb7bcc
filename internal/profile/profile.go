package profile

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the server
	Addr string
	// Port is the binding port for the server
	Port int
	// Version is the current version of the server
	Version string

	// DatasetPath is the path to the song corpus file.
	DatasetPath string
	// DownloadDir is the directory downloaded audio is written to.
	DownloadDir string

	// IndexDriver selects the vector index backend ("memory" or "postgres").
	IndexDriver string
	// DSN is the Postgres connection string when IndexDriver is "postgres".
	DSN string

	// LLM configuration
	LLMProvider   string // TUNESCOUT_LLM_PROVIDER (openai, deepseek, ollama; default: ollama)
	LLMModel      string // TUNESCOUT_LLM_MODEL
	LLMAPIKey     string // TUNESCOUT_LLM_API_KEY
	LLMBaseURL    string // TUNESCOUT_LLM_BASE_URL
	EmbeddingModel  string // TUNESCOUT_EMBEDDING_MODEL
	EmbeddingAPIKey string // TUNESCOUT_EMBEDDING_API_KEY
	EmbeddingURL    string // TUNESCOUT_EMBEDDING_BASE_URL

	// SessionRetentionHours controls session eviction; <= 0 disables the sweep.
	SessionRetentionHours int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from TUNESCOUT_* environment variables.
func (p *Profile) FromEnv() {
	p.Mode = getEnvOrDefault("TUNESCOUT_MODE", p.Mode)
	p.Addr = getEnvOrDefault("TUNESCOUT_ADDR", p.Addr)
	if v := os.Getenv("TUNESCOUT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			p.Port = port
		}
	}

	p.DatasetPath = getEnvOrDefault("TUNESCOUT_DATASET", p.DatasetPath)
	p.DownloadDir = getEnvOrDefault("TUNESCOUT_DOWNLOAD_DIR", p.DownloadDir)
	p.IndexDriver = getEnvOrDefault("TUNESCOUT_INDEX_DRIVER", p.IndexDriver)
	p.DSN = getEnvOrDefault("TUNESCOUT_DSN", p.DSN)

	p.LLMProvider = getEnvOrDefault("TUNESCOUT_LLM_PROVIDER", p.LLMProvider)
	p.LLMModel = getEnvOrDefault("TUNESCOUT_LLM_MODEL", p.LLMModel)
	p.LLMAPIKey = getEnvOrDefault("TUNESCOUT_LLM_API_KEY", p.LLMAPIKey)
	p.LLMBaseURL = getEnvOrDefault("TUNESCOUT_LLM_BASE_URL", p.LLMBaseURL)
	p.EmbeddingModel = getEnvOrDefault("TUNESCOUT_EMBEDDING_MODEL", p.EmbeddingModel)
	p.EmbeddingAPIKey = getEnvOrDefault("TUNESCOUT_EMBEDDING_API_KEY", p.EmbeddingAPIKey)
	p.EmbeddingURL = getEnvOrDefault("TUNESCOUT_EMBEDDING_BASE_URL", p.EmbeddingURL)

	if v := os.Getenv("TUNESCOUT_SESSION_RETENTION_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			p.SessionRetentionHours = hours
		}
	}
}

// Validate checks that the profile is usable.
func (p *Profile) Validate() error {
	switch p.IndexDriver {
	case "", "memory":
	case "postgres":
		if p.DSN == "" {
			return errors.New("postgres index driver requires a DSN")
		}
	default:
		return errors.Errorf("unknown index driver: %s", p.IndexDriver)
	}
	if p.Port < 0 || p.Port > 65535 {
		return errors.Errorf("invalid port: %d", p.Port)
	}
	return nil
}

// Default returns a development profile with local defaults.
func Default() *Profile {
	return &Profile{
		Mode:                  "dev",
		Addr:                  "",
		Port:                  8230,
		DatasetPath:           "data/songs.json",
		DownloadDir:           "downloads",
		IndexDriver:           "memory",
		LLMProvider:           "ollama",
		LLMModel:              "llama3.1",
		LLMBaseURL:            "http://localhost:11434",
		EmbeddingModel:        "text-embedding-3-small",
		SessionRetentionHours: 24,
	}
}
