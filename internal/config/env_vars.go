package config

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	configFileEnvVar = "CONFIG_FILE"
	appNameVar       = "APP_NAME"
	baseURLVar       = "BASE_URL"
	logLevelVar      = "LOG_LEVEL"
)

var (
	v     *viper.Viper
	vOnce sync.Once
)

// values lazily builds the viper instance. Environment variables always win
// over the optional file named by CONFIG_FILE (any format viper understands).
func values() *viper.Viper {
	vOnce.Do(func() {
		v = viper.New()
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		if file := v.GetString(configFileEnvVar); file != "" {
			v.SetConfigFile(file)
			_ = v.ReadInConfig()
		}
	})
	return v
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Telco Console")
}

// GetBaseURL returns the backend base URL (e.g. "https://api.example.com").
// Every endpoint path is resolved against it.
func (EnvVars) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, "http://localhost:8080"), "/")
}

func (EnvVars) GetEnv() string {
	return GetEnv("ENV", "DEV")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func GetEnv(envVar, defaultValue string) string {
	value := values().GetString(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvInt(envVar string, defaultValue int) int {
	if values().GetString(envVar) == "" {
		return defaultValue
	}
	return values().GetInt(envVar)
}

func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	if values().GetString(envVar) == "" {
		return defaultValue
	}
	d := values().GetDuration(envVar)
	if d <= 0 {
		return defaultValue
	}
	return d
}
