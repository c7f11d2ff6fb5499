package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted by the *_PROVIDER variables
const (
	RecognizerBrowser = "browser"
	RecognizerGoogle  = "google"
	RecognizerMock    = "mock"
	RecognizerNone    = "none"

	SpeechBrowser    = "browser"
	SpeechElevenLabs = "elevenlabs"
	SpeechMock       = "mock"

	TranslatorGemini     = "gemini"
	TranslatorOpenAI     = "openai"
	TranslatorDictionary = "dictionary"

	HistoryMemory = "memory"
	HistoryMongo  = "mongo"
)

// Config holds the server configuration read from the environment
type Config struct {
	Env            string
	Port           string
	AllowedOrigins []string

	JWTSecret string
	TokenTTL  time.Duration

	RecognizerProvider string
	SourceLanguage     string
	SampleRate         int
	Encoding           string

	SpeechProvider string

	TranslatorProvider  string
	TranslateServiceURL string
	TranslateTimeout    time.Duration
	TranslateRateLimit  int

	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	HistoryStore     string
	HistoryRetention time.Duration
	MongoURI         string
	MongoDatabase    string
}

// LoadDotEnv loads a .env file when present; a missing file is not an error
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the configuration from environment variables and applies defaults
func Load() (*Config, error) {
	port := getEnv("PORT", "8080")

	cfg := &Config{
		Env:            getEnv("APP_ENV", "production"),
		Port:           port,
		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"*"}),

		JWTSecret: os.Getenv("JWT_SECRET"),

		RecognizerProvider: strings.ToLower(getEnv("RECOGNIZER_PROVIDER", RecognizerBrowser)),
		SourceLanguage:     getEnv("RECOGNITION_LANGUAGE", "en-US"),
		Encoding:           getEnv("RECOGNITION_ENCODING", "LINEAR16"),

		SpeechProvider: strings.ToLower(getEnv("SPEECH_PROVIDER", SpeechBrowser)),

		TranslatorProvider:  strings.ToLower(getEnv("TRANSLATOR_PROVIDER", TranslatorDictionary)),
		TranslateServiceURL: getEnv("TRANSLATE_SERVICE_URL", "http://localhost:"+port),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		HistoryStore:  strings.ToLower(getEnv("HISTORY_STORE", HistoryMemory)),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "web_translator"),
	}

	var err error
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.TranslateTimeout, err = getDuration("TRANSLATE_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.HistoryRetention, err = getDuration("HISTORY_RETENTION", 720*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SampleRate, err = getInt("RECOGNITION_SAMPLE_RATE", 48000); err != nil {
		return nil, err
	}
	if cfg.TranslateRateLimit, err = getInt("TRANSLATE_RATE_LIMIT", 60); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks provider names and numeric ranges
func (c *Config) Validate() error {
	switch c.RecognizerProvider {
	case RecognizerBrowser, RecognizerGoogle, RecognizerMock, RecognizerNone:
	default:
		return fmt.Errorf("unsupported RECOGNIZER_PROVIDER %q", c.RecognizerProvider)
	}

	switch c.SpeechProvider {
	case SpeechBrowser, SpeechElevenLabs, SpeechMock:
	default:
		return fmt.Errorf("unsupported SPEECH_PROVIDER %q", c.SpeechProvider)
	}

	switch c.TranslatorProvider {
	case TranslatorDictionary:
	case TranslatorGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini translator")
		}
	case TranslatorOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai translator")
		}
	default:
		return fmt.Errorf("unsupported TRANSLATOR_PROVIDER %q", c.TranslatorProvider)
	}

	switch c.HistoryStore {
	case HistoryMemory, HistoryMongo:
	default:
		return fmt.Errorf("unsupported HISTORY_STORE %q", c.HistoryStore)
	}

	if c.SampleRate < 8000 || c.SampleRate > 48000 {
		return fmt.Errorf("sample rate must be between 8000 and 48000, got %d", c.SampleRate)
	}
	if c.TranslateTimeout <= 0 {
		return fmt.Errorf("translate timeout must be positive")
	}
	if c.TranslateRateLimit < 0 {
		return fmt.Errorf("translate rate limit must not be negative")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getList splits a comma-separated variable, dropping empty entries
func getList(key string, fallback []string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
