package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	configPath string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithConfigPath sets the config file path so that sync state (the
// incremental cursor and running flag) persists across runs. When
// empty, state lives only in memory.
func WithConfigPath(path string) Option {
	return func(a *application) {
		a.configPath = path
	}
}
