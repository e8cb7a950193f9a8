package config

import "os"

const (
	apiBaseURLVar = "API_BASE_URL"
	appNameVar    = "APP_NAME"
	folderEnvVar  = "FOLDER"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

// GetAPIBaseURL returns where the backend lives, e.g. "https://api.example.com/api".
// The one piece of configuration without a usable default.
func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:8000/api")
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Session Client")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
