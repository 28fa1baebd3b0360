package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds everything the console reads from the environment.
// Call godotenv.Load() before Load so that a local .env file is honoured.
type Config struct {
	APIURL          string
	APITimeout      time.Duration
	CredentialsFile string
	DatabaseURL     string
	ServerPort      string
	AllowedOrigins  string
	OpenAIKey       string
	LogLevel        string
	LogFormat       string // "json" or "text"
	SearchDebounce  time.Duration
	PageSize        int
	PhoneRegion     string
	Language        string // "pt" or "en"
}

// Load reads the configuration from environment variables, applying defaults.
func Load() Config {
	home, _ := os.UserHomeDir()

	return Config{
		APIURL:          getenv("SUPPLY_API_URL", "http://localhost:8080/api"),
		APITimeout:      duration("SUPPLY_API_TIMEOUT", 15*time.Second),
		CredentialsFile: getenv("SUPPLY_CREDENTIALS_FILE", filepath.Join(home, ".supply-console", "credentials.json")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ServerPort:      getenv("SERVER_PORT", "8080"),
		AllowedOrigins:  os.Getenv("ALLOWED_ORIGINS"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "text"),
		SearchDebounce:  duration("SEARCH_DEBOUNCE", 300*time.Millisecond),
		PageSize:        integer("PAGE_SIZE", 10),
		PhoneRegion:     getenv("SUPPLIER_PHONE_REGION", "BR"),
		Language:        getenv("CONSOLE_LANG", "pt"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("Warning: invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}
