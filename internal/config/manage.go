package config

import (
	"fmt"
	"strconv"
)

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all config key/value pairs from the current config.
// Secret values are masked.
func ShowAll(cfg Config) []KeyInfo {
	var result []KeyInfo
	for _, s := range specs {
		v := fmt.Sprintf("%v", s.extract(cfg))
		if s.secret {
			v = mask(v)
		}
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  v,
		})
	}
	return result
}

func mask(v string) string {
	if v == "" {
		return "(not set)"
	}
	if len(v) <= 8 {
		return "********"
	}
	return v[:4] + "…" + v[len(v)-4:]
}

// SetKey writes a config key to the platform backend. Secrets go to the
// platform secret store instead.
func SetKey(key, value string) error {
	return setKeyWith(newPlatformBackend(), keychainSet, key, value)
}

func setKeyWith(b ConfigBackend, setSecret func(service, account, value string) error, key, value string) error {
	s, ok := lookupSpec(key)
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}
	if s.secret {
		if err := setSecret(keychainService, s.account, value); err != nil {
			return fmt.Errorf("storing secret %s: %w", key, err)
		}
		return nil
	}

	// Validate enumerated and ranged keys before persisting.
	probe := defaults()
	switch s.typ {
	case kString:
		s.apply(&probe, value)
	case kInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		s.apply(&probe, i)
	case kFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number value for %s: %w", key, err)
		}
		s.apply(&probe, f)
	}
	probe.Gemini.APIKey, probe.OpenRouter.APIKey = "probe", "probe"
	if err := probe.Validate(); err != nil {
		return err
	}

	switch s.typ {
	case kInt:
		i, _ := strconv.Atoi(value)
		return b.SetInt(key, i)
	default:
		return b.SetString(key, fmt.Sprintf("%v", s.extract(probe)))
	}
}

// UnsetKey removes a stored value so the default (or environment) applies
// again. Secrets are removed from the platform secret store.
func UnsetKey(key string) error {
	return unsetKeyWith(newPlatformBackend(), keychainDelete, key)
}

func unsetKeyWith(b ConfigBackend, deleteSecret func(service, account string) error, key string) error {
	s, ok := lookupSpec(key)
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}
	if s.secret {
		if err := deleteSecret(keychainService, s.account); err != nil {
			return fmt.Errorf("removing secret %s: %w", key, err)
		}
		return nil
	}
	return b.Delete(key)
}

// ValidKeys returns the list of config key names, secrets included.
func ValidKeys() []string {
	keys := make([]string, 0, len(specs))
	for _, s := range specs {
		keys = append(keys, s.key)
	}
	return keys
}
