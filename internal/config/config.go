package config

type Config interface {
	EnvConfig
	TimeoutConfig
}

type EnvConfig interface {
	GetAPIBaseURL() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

func New() Config {
	return mainConfig{}
}

type mainConfig struct {
	EnvVars
	Timeouts
}
