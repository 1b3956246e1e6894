package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the central typed configuration struct.
type Config struct {
	App AppConfig `mapstructure:"app"`
	Log LogConfig `mapstructure:"log"`

	// Values is the path of a YAML file with container overrides.
	Values string `mapstructure:"values"`
}

type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"` // local | production | testing
	Debug bool   `mapstructure:"debug"`
	Port  int    `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // text | json
	Sink   string `mapstructure:"sink"`   // slog | hclog
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:  "GoBakery",
			Env:   "local",
			Debug: true,
			Port:  8000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Sink:   "slog",
		},
	}
}

// sections maps an env prefix to the Config section it fills:
// APP_PORT → app.port, LOG_LEVEL → log.level.
var sections = map[string]string{
	"APP_": "app",
	"LOG_": "log",
}

// Load reads .env files and decodes the environment on top of Defaults.
// Values are weakly typed, so APP_DEBUG=1 and APP_PORT="9000" both decode.
//
// With no arguments a missing .env is ignored; explicitly named files must
// exist. Call once at bootstrap: cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		// Non-fatal: .env may not exist in production
		_ = godotenv.Load(".env")
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, errors.Wrapf(err, "config: load %s", strings.Join(envFiles, ", "))
	}

	cfg := Defaults()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, errors.Wrap(err, "config: decoder")
	}
	if err := dec.Decode(environment()); err != nil {
		return nil, errors.Wrap(err, "config: decode environment")
	}
	return cfg, nil
}

// environment snapshots the variables Config knows about as a nested map.
func environment() map[string]any {
	out := map[string]any{}
	for _, kv := range os.Environ() {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || val == "" {
			continue
		}
		if key == "VALUES_FILE" {
			out["values"] = val
			continue
		}
		for prefix, section := range sections {
			name, found := strings.CutPrefix(key, prefix)
			if !found || name == "" {
				continue
			}
			m, _ := out[section].(map[string]any)
			if m == nil {
				m = map[string]any{}
				out[section] = m
			}
			m[strings.ToLower(name)] = val
		}
	}
	return out
}

// LoadValues reads a YAML file of top-level name → value pairs, used as
// container overrides. An empty path yields no values.
func LoadValues(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: read values")
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, errors.Wrapf(err, "config: parse values %s", path)
	}
	return values, nil
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
