// Package config loads the runtime configuration from the environment
// (with optional .env file) and validates it once at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jggl/kb-assist/internal/domain/ports"
)

// Config is the full runtime configuration.
type Config struct {
	TelegramBotToken string
	AdminIDs         []int64

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	ChatModel         string
	EmbedModel        string

	TopK                int
	SimilarityThreshold float64
	ChunkSize           int
	ChunkOverlap        int

	EnforceConfidentiality bool
	ClassifierRulesPath    string

	DocsDir      string
	DBPath       string
	VectorDBPath string
	OpsAddr      string
	LogLevel     string
}

// Load reads .env if present, then the environment. It does not
// validate; call Validate before using the result.
func Load() *Config {
	// Missing .env is fine, the environment may be fully populated.
	_ = godotenv.Load()

	return &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminIDs:         parseAdminIDs(os.Getenv("TELEGRAM_ADMIN_IDS")),

		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		ChatModel:         getEnv("OR_CHAT_MODEL", "openrouter/auto"),
		EmbedModel:        getEnv("OR_EMBED_MODEL", "openai/text-embedding-3-small"),

		TopK:                getEnvInt("RAG_TOP_K", 5),
		SimilarityThreshold: getEnvFloat("RAG_SIMILARITY_THRESHOLD", 0.6),
		ChunkSize:           getEnvInt("RAG_CHUNK_SIZE", 1000),
		ChunkOverlap:        getEnvInt("RAG_CHUNK_OVERLAP", 200),

		EnforceConfidentiality: getEnvBool("ENFORCE_CONFIDENTIALITY", true),
		ClassifierRulesPath:    os.Getenv("CLASSIFIER_RULES_PATH"),

		DocsDir:      getEnv("DOCS_DIR", "./data/docs"),
		DBPath:       getEnv("DB_PATH", "./data/bot.db"),
		VectorDBPath: getEnv("VECTOR_DB_PATH", "./data/vectors.db"),
		OpsAddr:      getEnv("OPS_ADDR", ":8090"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the configuration. Its failures are the only ones
// allowed to abort startup.
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("%w: TELEGRAM_BOT_TOKEN not set", ports.ErrConfiguration)
	}
	if c.OpenRouterAPIKey == "" {
		return fmt.Errorf("%w: OPENROUTER_API_KEY not set", ports.ErrConfiguration)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: RAG_CHUNK_SIZE must be positive, got %d", ports.ErrConfiguration, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: RAG_CHUNK_OVERLAP must be in [0, %d), got %d",
			ports.ErrConfiguration, c.ChunkSize, c.ChunkOverlap)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: RAG_SIMILARITY_THRESHOLD must be in [0, 1], got %g",
			ports.ErrConfiguration, c.SimilarityThreshold)
	}
	return nil
}

// EnsureDirs creates the data directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DocsDir, filepath.Dir(c.DBPath), filepath.Dir(c.VectorDBPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ports.ErrConfiguration, dir, err)
		}
	}
	return nil
}

// IsAdmin reports whether the id is on the admin allow-list.
func (c *Config) IsAdmin(id int64) bool {
	for _, admin := range c.AdminIDs {
		if admin == id {
			return true
		}
	}
	return false
}

func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
