package config

// ConfigBackend reads and writes non-secret settings in the platform's
// native store: UserDefaults on macOS, a JSON file under XDG_CONFIG_HOME
// elsewhere. Delete removes a key so its default applies again.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}
