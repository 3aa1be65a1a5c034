package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.host", typ: kString, env: "HAIKU_SERVER_HOST",
		apply:   func(cfg *Config, v any) { cfg.Server.Host = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Host },
	},
	{
		key: "server.port", typ: kInt, env: "HAIKU_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "HAIKU_SERVER_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "generation.provider", typ: kString, env: "HAIKU_GENERATION_PROVIDER",
		apply:   func(cfg *Config, v any) { cfg.Generation.Provider = v.(string) },
		extract: func(cfg Config) any { return cfg.Generation.Provider },
	},
	{
		key: "generation.model", typ: kString, env: "HAIKU_GENERATION_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Generation.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Generation.Model },
	},
	{
		key: "generation.base_url", typ: kString, env: "HAIKU_GENERATION_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Generation.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Generation.BaseURL },
	},
	{
		key: "generation.api_key", typ: kString, env: "HAIKU_GENERATION_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Generation.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Generation.APIKey },
	},
	{
		key: "storage.backend", typ: kString, env: "HAIKU_STORAGE_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Storage.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.Backend },
	},
	{
		key: "storage.data_dir", typ: kString, env: "HAIKU_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "firestore.project_id", typ: kString, env: "HAIKU_FIRESTORE_PROJECT_ID",
		apply:   func(cfg *Config, v any) { cfg.Firestore.ProjectID = v.(string) },
		extract: func(cfg Config) any { return cfg.Firestore.ProjectID },
	},
	{
		key: "firestore.database", typ: kString, env: "HAIKU_FIRESTORE_DATABASE",
		apply:   func(cfg *Config, v any) { cfg.Firestore.Database = v.(string) },
		extract: func(cfg Config) any { return cfg.Firestore.Database },
	},
	{
		key: "firestore.collection", typ: kString, env: "HAIKU_FIRESTORE_COLLECTION",
		apply:   func(cfg *Config, v any) { cfg.Firestore.Collection = v.(string) },
		extract: func(cfg Config) any { return cfg.Firestore.Collection },
	},
	{
		key: "firestore.credentials_file", typ: kString, env: "HAIKU_FIRESTORE_CREDENTIALS_FILE",
		apply:   func(cfg *Config, v any) { cfg.Firestore.CredentialsFile = v.(string) },
		extract: func(cfg Config) any { return cfg.Firestore.CredentialsFile },
	},
	{
		key: "auth.firebase_api_key", typ: kString, env: "HAIKU_AUTH_FIREBASE_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Auth.FirebaseAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Auth.FirebaseAPIKey },
	},
	{
		key: "session.idle_ttl", typ: kString, env: "HAIKU_SESSION_IDLE_TTL",
		apply:   func(cfg *Config, v any) { cfg.Session.IdleTTL = v.(string) },
		extract: func(cfg Config) any { return cfg.Session.IdleTTL },
	},
	{
		key: "history.merge_locally", typ: kBool, env: "HAIKU_HISTORY_MERGE_LOCALLY",
		apply:   func(cfg *Config, v any) { cfg.History.MergeLocally = v.(bool) },
		extract: func(cfg Config) any { return cfg.History.MergeLocally },
	},
	{
		key: "log.level", typ: kString, env: "HAIKU_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
