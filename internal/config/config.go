package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Server     ServerConfig
	Generation GenerationConfig
	Storage    StorageConfig
	Firestore  FirestoreConfig
	Auth       AuthConfig
	Session    SessionConfig
	History    HistoryConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host string
	Port int
	// APIToken, when set, is required as a bearer token on /api routes.
	APIToken string
}

type GenerationConfig struct {
	// Provider is "gemini" or "openai".
	Provider string
	Model    string
	// BaseURL overrides the provider endpoint. Empty means the provider default.
	BaseURL string
	// APIKey is passed through as-is; an empty key fails at generation time.
	APIKey string
}

type StorageConfig struct {
	// Backend is "sqlite", "firestore" or "bolt".
	Backend string
	DataDir string
}

type FirestoreConfig struct {
	ProjectID       string
	Database        string
	Collection      string
	CredentialsFile string
}

type AuthConfig struct {
	FirebaseAPIKey string
}

type SessionConfig struct {
	IdleTTL string
}

type HistoryConfig struct {
	MergeLocally bool
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 4100,
		},
		Generation: GenerationConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			DataDir: defaultDataDir(),
		},
		Firestore: FirestoreConfig{
			Database:   "(default)",
			Collection: "haikus",
		},
		Session: SessionConfig{
			IdleTTL: "24h",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the YAML config file and environment
// variables. Environment variables (HAIKU_*) override file values.
//
// The generation API key is never validated here: a missing key surfaces
// as a generation failure at runtime.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Fall back to the key name Google's own tooling uses.
	if cfg.Generation.APIKey == "" {
		cfg.Generation.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	return cfg, nil
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "haiku-data"
		}
	}
	return filepath.Join(dir, "haiku")
}

func configFilePath() string {
	if p := os.Getenv("HAIKU_CONFIG_FILE"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "haiku", "config.yaml")
}
