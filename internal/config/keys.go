package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	altEnv  string // consulted when env is unset
	account string // secret store entry, secrets only
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "model.provider", typ: kString, env: "FITAI_MODEL_PROVIDER",
		apply:   func(cfg *Config, v any) { cfg.Model.Provider = strings.ToLower(v.(string)) },
		extract: func(cfg Config) any { return cfg.Model.Provider },
	},
	{
		key: "model.chat_model", typ: kString, env: "FITAI_MODEL_CHAT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Model.ChatModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Model.ChatModel },
	},
	{
		key: "model.temperature", typ: kFloat, env: "FITAI_MODEL_TEMPERATURE",
		apply:   func(cfg *Config, v any) { cfg.Model.Temperature = v.(float64) },
		extract: func(cfg Config) any { return cfg.Model.Temperature },
	},
	{
		key: "ollama.base_url", typ: kString, env: "FITAI_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "ollama.model", typ: kString, env: "FITAI_OLLAMA_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.Model },
	},
	{
		key: "openrouter.model", typ: kString, env: "FITAI_OPENROUTER_MODEL",
		apply:   func(cfg *Config, v any) { cfg.OpenRouter.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenRouter.Model },
	},
	{
		key: "gemini.api_key", typ: kString, env: "FITAI_GEMINI_API_KEY", altEnv: "GEMINI_API_KEY",
		secret: true, account: "gemini_api_key",
		apply:   func(cfg *Config, v any) { cfg.Gemini.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.APIKey },
	},
	{
		key: "openrouter.api_key", typ: kString, env: "FITAI_OPENROUTER_API_KEY",
		secret: true, account: "openrouter_api_key",
		apply:   func(cfg *Config, v any) { cfg.OpenRouter.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenRouter.APIKey },
	},
	{
		key: "storage.data_dir", typ: kString, env: "FITAI_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "chat.history_window", typ: kInt, env: "FITAI_CHAT_HISTORY_WINDOW",
		apply:   func(cfg *Config, v any) { cfg.Chat.HistoryWindow = v.(int) },
		extract: func(cfg Config) any { return cfg.Chat.HistoryWindow },
	},
	{
		key: "chat.regenerate", typ: kString, env: "FITAI_CHAT_REGENERATE",
		apply:   func(cfg *Config, v any) { cfg.Chat.Regenerate = strings.ToLower(v.(string)) },
		extract: func(cfg Config) any { return cfg.Chat.Regenerate },
	},
	{
		key: "extractor.mode", typ: kString, env: "FITAI_EXTRACTOR_MODE",
		apply:   func(cfg *Config, v any) { cfg.Extractor.Mode = strings.ToLower(v.(string)) },
		extract: func(cfg Config) any { return cfg.Extractor.Mode },
	},
	{
		key: "server.port", typ: kInt, env: "FITAI_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.token", typ: kString, env: "FITAI_SERVER_TOKEN",
		secret: true, account: "server_token",
		apply:   func(cfg *Config, v any) { cfg.Server.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Token },
	},
	{
		key: "log.level", typ: kString, env: "FITAI_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = strings.ToLower(v.(string)) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func lookupSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
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
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" && s.altEnv != "" {
			raw = os.Getenv(s.altEnv)
		}
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
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}

// applySecrets fills secrets still empty after the environment from the
// platform secret store.
func applySecrets(cfg *Config, kc keychain) {
	for _, s := range specs {
		if !s.secret || s.extract(*cfg).(string) != "" {
			continue
		}
		if v, err := kc.Get(keychainService, s.account); err == nil && v != "" {
			s.apply(cfg, v)
		}
	}
}
