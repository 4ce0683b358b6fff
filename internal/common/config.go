package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/po-extractor/constants"
)

// Config holds all application configuration
type Config struct {
	Credentials CredentialsConfig
	LLM         LLMConfig
	Items       ItemsConfig
	TokenCache  TokenCacheConfig
	PDF         PDFConfig
	Server      ServerConfig
	LogLevel    string
}

// CredentialsConfig holds the OAuth2 client and endpoint settings.
// Loaded once at startup and never mutated.
type CredentialsConfig struct {
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	TokenURL      string `yaml:"url_auth"`
	APIURL        string `yaml:"api_url"`
	ResourceGroup string `yaml:"resource_group"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider          string // "inference" | "openai"
	Model             string
	MaxTokens         int
	Timeout           time.Duration
	AuthTimeout       time.Duration
	RequestsPerSecond float64
	OpenAIAPIKey      string
	OpenAIBaseURL     string
}

// ItemsConfig controls chunked item extraction.
type ItemsConfig struct {
	PagesPerChunk int
	Concurrency   int
}

// TokenCacheConfig selects and configures the bearer token cache backend.
type TokenCacheConfig struct {
	Backend       string // file | memory | bolt | redis | sqlite | postgres
	Path          string
	DSN           string
	Key           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// PDFConfig selects the page text source.
type PDFConfig struct {
	Backend     string // native | pdftotext | ocr | auto
	Pdftotext   string
	Pdftoppm    string
	Tesseract   string
	OCRLang     string
	OCRDPI      int
	TessdataDir string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr     string
	DocumentsDir string
}

// fileConfig is the optional YAML document named by EXTRACTOR_CONFIG.
type fileConfig struct {
	CredentialsConfig `yaml:",inline"`
	Model             string `yaml:"model"`
	MaxTokens         int    `yaml:"max_tokens"`
}

// LoadConfig loads configuration from the optional YAML file and environment variables.
// Environment variables win over the file.
func LoadConfig() (*Config, error) {
	var fc fileConfig
	if path := os.Getenv("EXTRACTOR_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	return &Config{
		Credentials: CredentialsConfig{
			ClientID:      getEnv("OAUTH_CLIENT_ID", fc.ClientID),
			ClientSecret:  getEnv("OAUTH_CLIENT_SECRET", fc.ClientSecret),
			TokenURL:      getEnv("OAUTH_TOKEN_URL", fc.TokenURL),
			APIURL:        getEnv("COMPLETION_API_URL", fc.APIURL),
			ResourceGroup: getEnv("COMPLETION_RESOURCE_GROUP", firstNonEmpty(fc.ResourceGroup, constants.DefaultResourceGroup)),
		},
		LLM: LLMConfig{
			Provider:          strings.ToLower(getEnv("LLM_PROVIDER", "inference")),
			Model:             getEnv("LLM_MODEL", firstNonEmpty(fc.Model, constants.DefaultModel)),
			MaxTokens:         getEnvAsInt("LLM_MAX_TOKENS", firstPositive(fc.MaxTokens, constants.DefaultMaxTokens)),
			Timeout:           getEnvAsDuration("LLM_TIMEOUT", constants.DefaultLLMTimeout),
			AuthTimeout:       getEnvAsDuration("AUTH_TIMEOUT", constants.DefaultAuthTimeout),
			RequestsPerSecond: getEnvAsFloat64("LLM_REQUESTS_PER_SECOND", 0),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		},
		Items: ItemsConfig{
			PagesPerChunk: getEnvAsInt("ITEMS_PAGES_PER_CHUNK", constants.DefaultPagesPerChunk),
			Concurrency:   getEnvAsInt("ITEMS_CONCURRENCY", 1),
		},
		TokenCache: TokenCacheConfig{
			Backend:       strings.ToLower(getEnv("TOKEN_CACHE_BACKEND", "file")),
			Path:          getEnv("TOKEN_CACHE_PATH", "./tmp/token.json"),
			DSN:           getEnv("TOKEN_CACHE_DSN", ""),
			Key:           getEnv("TOKEN_CACHE_KEY", "po-extractor:token"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
		},
		PDF: PDFConfig{
			Backend:     strings.ToLower(getEnv("PDF_TEXT_BACKEND", "native")),
			Pdftotext:   getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:    getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			OCRLang:     getEnv("OCR_LANG", "eng"),
			OCRDPI:      getEnvAsInt("OCR_DPI", 300),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
		},
		Server: ServerConfig{
			GRPCAddr:     getEnv("GRPC_ADDR", ":8080"),
			DocumentsDir: getEnv("DOCUMENTS_DIR", "./uploads"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "inference":
		if c.Credentials.ClientID == "" || c.Credentials.ClientSecret == "" {
			return NewAppError("CONFIG_ERROR", "OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET are required", ErrInvalidInput)
		}
		if c.Credentials.TokenURL == "" {
			return NewAppError("CONFIG_ERROR", "OAUTH_TOKEN_URL is required", ErrInvalidInput)
		}
		if c.Credentials.APIURL == "" {
			return NewAppError("CONFIG_ERROR", "COMPLETION_API_URL is required", ErrInvalidInput)
		}
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLM.Provider), ErrInvalidInput)
	}
	if c.LLM.MaxTokens <= 0 {
		return NewAppError("CONFIG_ERROR", "LLM_MAX_TOKENS must be positive", ErrInvalidInput)
	}
	if c.Items.PagesPerChunk <= 0 {
		return NewAppError("CONFIG_ERROR", "ITEMS_PAGES_PER_CHUNK must be positive", ErrInvalidInput)
	}
	switch c.TokenCache.Backend {
	case "file", "memory", "bolt", "redis", "sqlite", "postgres":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown TOKEN_CACHE_BACKEND %q", c.TokenCache.Backend), ErrInvalidInput)
	}
	switch c.PDF.Backend {
	case "", "native", "pdftotext", "ocr", "auto":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown PDF_TEXT_BACKEND %q", c.PDF.Backend), ErrInvalidInput)
	}
	if c.TokenCache.Backend == "postgres" && c.TokenCache.DSN == "" {
		return NewAppError("CONFIG_ERROR", "TOKEN_CACHE_DSN is required for the postgres token cache", ErrInvalidInput)
	}
	return nil
}
