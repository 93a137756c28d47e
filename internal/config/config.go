package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvEmail        = "FACEBOOK_EMAIL"
	EnvPassword     = "FACEBOOK_PASSWORD"
	EnvGoogleAPIKey = "GOOGLE_API_KEY"

	DefaultNiche       = "zapatillas"
	DefaultMaxProducts = 10
)

var ErrMissingCredentials = errors.New("missing credentials")

type Config struct {
	Marketplace MarketplaceConfig
	Browser     BrowserConfig
	Pipeline    PipelineConfig
	LLM         LLMConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Server      ServerConfig
	Logging     LoggingConfig
}

type MarketplaceConfig struct {
	Email         string
	Password      string
	Niche         string
	MaxProducts   int
	BaseURL       string
	OutputFile    string
	WebOutputFile string
}

type BrowserConfig struct {
	Headless          bool
	SlowMo            time.Duration
	ViewportWidth     int
	ViewportHeight    int
	Locale            string
	UserAgent         string
	NavigationTimeout time.Duration
	LandmarkTimeout   time.Duration
	NetworkIdle       time.Duration
	ActionTimeout     time.Duration
}

type PipelineConfig struct {
	ScrollCycles    int
	ScrollDelay     time.Duration
	SettleDelay     time.Duration
	ItemDelay       time.Duration
	ItemJitter      time.Duration
	ImageScanLimit  int
	BasicHTMLLimit  int
	PromptHTMLLimit int
}

type LLMConfig struct {
	Provider     string
	GoogleAPIKey string
	OpenAIAPIKey string
	OpenAIBase   string
	Model        string
	Temperature  float64
	Timeout      time.Duration
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

type ServerConfig struct {
	Host string
	Port int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("could not read .env file", "error", err)
	}

	cfg := &Config{
		Marketplace: MarketplaceConfig{
			Email:         os.Getenv(EnvEmail),
			Password:      os.Getenv(EnvPassword),
			Niche:         getEnvOrDefault("SEARCH_NICHE", DefaultNiche),
			MaxProducts:   getIntOrDefault("MAX_PRODUCTS", DefaultMaxProducts),
			BaseURL:       strings.TrimRight(getEnvOrDefault("MARKETPLACE_BASE_URL", "https://www.facebook.com"), "/"),
			OutputFile:    getEnvOrDefault("OUTPUT_FILE", "marketplace_products.json"),
			WebOutputFile: getEnvOrDefault("WEB_OUTPUT_FILE", "marketplace_products_web.json"),
		},
		Browser: BrowserConfig{
			Headless:          getBoolOrDefault("BROWSER_HEADLESS", false),
			SlowMo:            getDurationOrDefault("BROWSER_SLOW_MO", 100*time.Millisecond),
			ViewportWidth:     getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight:    getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			Locale:            getEnvOrDefault("BROWSER_LOCALE", "es-ES"),
			UserAgent:         getEnvOrDefault("BROWSER_USER_AGENT", ""),
			NavigationTimeout: getDurationOrDefault("BROWSER_NAVIGATION_TIMEOUT", 60*time.Second),
			LandmarkTimeout:   getDurationOrDefault("BROWSER_LANDMARK_TIMEOUT", 30*time.Second),
			NetworkIdle:       getDurationOrDefault("BROWSER_NETWORK_IDLE_TIMEOUT", 60*time.Second),
			ActionTimeout:     getDurationOrDefault("BROWSER_ACTION_TIMEOUT", 5*time.Second),
		},
		Pipeline: PipelineConfig{
			ScrollCycles:    getIntOrDefault("SCROLL_CYCLES", 3),
			ScrollDelay:     getDurationOrDefault("SCROLL_DELAY", 2*time.Second),
			SettleDelay:     getDurationOrDefault("SETTLE_DELAY", 2*time.Second),
			ItemDelay:       getDurationOrDefault("ITEM_DELAY", 3*time.Second),
			ItemJitter:      getDurationOrDefault("ITEM_JITTER", 0),
			ImageScanLimit:  getIntOrDefault("IMAGE_SCAN_LIMIT", 5),
			BasicHTMLLimit:  getIntOrDefault("BASIC_HTML_LIMIT", 5000),
			PromptHTMLLimit: getIntOrDefault("PROMPT_HTML_LIMIT", 8000),
		},
		LLM: LLMConfig{
			Provider:     strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "gemini")),
			GoogleAPIKey: os.Getenv(EnvGoogleAPIKey),
			OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
			OpenAIBase:   os.Getenv("OPENAI_BASE_URL"),
			Model:        getEnvOrDefault("LLM_MODEL", ""),
			Temperature:  getFloatOrDefault("LLM_TEMPERATURE", 0.3),
			Timeout:      getDurationOrDefault("LLM_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:marketplace_products"),
		},
		Server: ServerConfig{
			Host: getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port: getIntOrDefault("SERVER_PORT", 8080),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Marketplace.MaxProducts < 1 {
		return fmt.Errorf("MAX_PRODUCTS must be at least 1")
	}

	if c.Marketplace.Niche == "" {
		return fmt.Errorf("SEARCH_NICHE cannot be empty")
	}

	if c.Pipeline.ScrollCycles < 0 {
		return fmt.Errorf("SCROLL_CYCLES cannot be negative")
	}

	if c.Pipeline.BasicHTMLLimit < 0 || c.Pipeline.PromptHTMLLimit < 0 {
		return fmt.Errorf("HTML limits cannot be negative")
	}

	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// ValidateCredentials checks the variables the collection run cannot work
// without.
func (c *Config) ValidateCredentials() error {
	var missing []string
	if c.Marketplace.Email == "" {
		missing = append(missing, EnvEmail)
	}
	if c.Marketplace.Password == "" {
		missing = append(missing, EnvPassword)
	}
	if c.LLM.APIKey() == "" {
		if c.LLM.Provider == "openai" {
			missing = append(missing, "OPENAI_API_KEY")
		} else {
			missing = append(missing, EnvGoogleAPIKey)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// APIKey returns the key of the selected provider.
func (l LLMConfig) APIKey() string {
	if l.Provider == "openai" {
		return l.OpenAIAPIKey
	}
	return l.GoogleAPIKey
}

// RequiredCredentials lists the variables the environment check reports on.
func RequiredCredentials() map[string]string {
	return map[string]string{
		EnvEmail:        "Facebook email address",
		EnvPassword:     "Facebook password",
		EnvGoogleAPIKey: "Google API key for GenAI",
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
