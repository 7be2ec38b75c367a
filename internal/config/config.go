package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kalambet/fitai/internal/engine"
)

// ErrMissingAPIKey is returned when the selected model provider needs an
// API key and none was found in the environment or the secret store.
var ErrMissingAPIKey = errors.New("missing API key")

const keychainService = "fitai"

type Config struct {
	Model      ModelConfig
	Gemini     GeminiConfig
	Ollama     OllamaConfig
	OpenRouter OpenRouterConfig
	Storage    StorageConfig
	Chat       ChatConfig
	Extractor  ExtractorConfig
	Server     ServerConfig
	Log        LogConfig
}

type ModelConfig struct {
	Provider    string
	ChatModel   string
	Temperature float64
}

type GeminiConfig struct {
	APIKey string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type OpenRouterConfig struct {
	APIKey string
	Model  string
}

type StorageConfig struct {
	DataDir string
}

type ChatConfig struct {
	HistoryWindow int
	// Regenerate is ask, always or never.
	Regenerate string
}

type ExtractorConfig struct {
	// Mode is pattern or model.
	Mode string
}

type ServerConfig struct {
	Port  int
	Token string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Model: ModelConfig{
			Provider:    engine.ProviderGemini,
			ChatModel:   engine.DefaultModel(engine.ProviderGemini),
			Temperature: 0.7,
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   engine.DefaultModel(engine.ProviderOllama),
		},
		OpenRouter: OpenRouterConfig{
			Model: engine.DefaultModel(engine.ProviderOpenRouter),
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Chat: ChatConfig{
			HistoryWindow: 10,
			Regenerate:    "ask",
		},
		Extractor: ExtractorConfig{
			Mode: "pattern",
		},
		Server: ServerConfig{
			Port: 4100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.fitai.app) and secrets
// fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/fitai/config.json
// and secrets fall back to $XDG_DATA_HOME/fitai/secrets.json.
//
// Environment variables (FITAI_*) override backend values on all platforms.
// Load does not require an API key; call Validate before opening a model.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret store access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	applySecrets(&cfg, kc)

	return cfg, nil
}

// Validate checks enumerated settings and that the selected provider has
// the API key it needs.
func (c Config) Validate() error {
	switch c.Model.Provider {
	case engine.ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("%w for gemini: set FITAI_GEMINI_API_KEY or GEMINI_API_KEY, or run `fitai config set gemini.api_key <key>`%s",
				ErrMissingAPIKey, apiKeyHint("gemini_api_key"))
		}
	case engine.ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("%w for openrouter: set FITAI_OPENROUTER_API_KEY, or run `fitai config set openrouter.api_key <key>`%s",
				ErrMissingAPIKey, apiKeyHint("openrouter_api_key"))
		}
	case engine.ProviderOllama:
	default:
		return fmt.Errorf("model.provider %q: want gemini, ollama or openrouter", c.Model.Provider)
	}

	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("model.temperature %v: want a value between 0 and 2", c.Model.Temperature)
	}
	if c.Chat.HistoryWindow <= 0 {
		return fmt.Errorf("chat.history_window %d: must be positive", c.Chat.HistoryWindow)
	}
	switch c.Chat.Regenerate {
	case "ask", "always", "never":
	default:
		return fmt.Errorf("chat.regenerate %q: want ask, always or never", c.Chat.Regenerate)
	}
	switch c.Extractor.Mode {
	case "pattern", "model":
	default:
		return fmt.Errorf("extractor.mode %q: want pattern or model", c.Extractor.Mode)
	}
	return nil
}

// ChatModel is the model name for the selected provider.
func (c Config) ChatModel() string {
	switch c.Model.Provider {
	case engine.ProviderOllama:
		return c.Ollama.Model
	case engine.ProviderOpenRouter:
		return c.OpenRouter.Model
	}
	return c.Model.ChatModel
}

// EngineOptions maps the config onto engine.Open's options.
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		Provider:         c.Model.Provider,
		GeminiAPIKey:     c.Gemini.APIKey,
		OpenRouterAPIKey: c.OpenRouter.APIKey,
		OllamaBaseURL:    c.Ollama.BaseURL,
		Temperature:      c.Model.Temperature,
	}
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
