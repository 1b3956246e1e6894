package people

import "github.com/km-arc/go-bakery/framework/config"

// Settings configures the people service.
type Settings struct {
	DSN         string
	PoolMinSize int
	PoolMaxSize int
	LoggerName  string
}

// LoadSettings reads the service settings from the environment.
func LoadSettings() *Settings {
	return &Settings{
		DSN:         config.Get("PEOPLE_DSN", "memory://people"),
		PoolMinSize: config.GetInt("PEOPLE_POOL_MIN_SIZE", 5),
		PoolMaxSize: config.GetInt("PEOPLE_POOL_MAX_SIZE", 20),
		LoggerName:  config.Get("PEOPLE_LOGGER_NAME", "[Controller]"),
	}
}
