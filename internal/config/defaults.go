package config

const (
	defaultConfigPath          = "~/.config/abs-tag-sync/config.toml"
	projectConfigFile          = "abs-tag-sync.toml"
	dotEnvFile                 = ".env"
	defaultABSTimeoutSeconds   = 10
	defaultSource              = SourceDocker
	defaultContainer           = "readmeabook"
	defaultDockerBinary        = "docker"
	defaultDBUser              = "postgres"
	defaultDBName              = "readmeabook"
	defaultQueryTimeoutSeconds = 60
	defaultStateDir            = "~/.local/state/abs-tag-sync"
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Request-tracker sources.
const (
	SourceDocker   = "docker"
	SourcePostgres = "postgres"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Audiobookshelf: Audiobookshelf{
			TimeoutSeconds: defaultABSTimeoutSeconds,
		},
		ReadMeABook: ReadMeABook{
			Source:              defaultSource,
			Container:           defaultContainer,
			DockerBinary:        defaultDockerBinary,
			DBUser:              defaultDBUser,
			DBName:              defaultDBName,
			QueryTimeoutSeconds: defaultQueryTimeoutSeconds,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
