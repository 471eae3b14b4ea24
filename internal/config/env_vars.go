package config

import (
	"os"
	"strings"
)

const (
	appNameVar   = "APP_NAME"
	envVar       = "ENV"
	logLevelVar  = "LOG_LEVEL"
	baseURLVar   = "API_BASE_URL"
	universeVar  = "UNIVERSE"
	loginPathVar = "LOGIN_ROUTE"
)

type EnvVars struct {
	source
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.get(appNameVar, "Admin CTL")
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.get(envVar, "DEV"))
}

func (e EnvVars) GetLogLevel() string {
	return e.get(logLevelVar, "info")
}

// GetBaseURL returns the REST backend base URL including its API prefix (e.g. "https://api.example.com/api/v1")
func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(e.get(baseURLVar, "http://localhost:8080/api/v1"), "/")
}

// GetStorageNamespace scopes persisted credentials so several deployments never share keys.
func (e EnvVars) GetStorageNamespace() string {
	return e.get(universeVar, strings.ToLower(e.GetEnv()))
}

func (e EnvVars) GetLoginRoute() string {
	return e.get(loginPathVar, "/login")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
