package config

import "github.com/joho/godotenv"

type Config interface {
	EnvConfig
	ClientConfig
	DevServerConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Client
	DevServer
}

// New loads a .env file from the working directory, if present, and returns
// the environment backed configuration.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
