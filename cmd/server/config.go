package main

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	AI       AIConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Path string
}

type SessionConfig struct {
	Secret string
}

type AIConfig struct {
	LogDir        string `mapstructure:"log_dir"`
	OllamaBaseURL string `mapstructure:"ollama_base_url"`
}

// LoadConfig reads config.yaml from path, with environment overrides. All
// settings have working local defaults, so a missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("EXAMTRAINER")
	viper.AutomaticEnv()

	viper.SetDefault("server.port", "8180")
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("database.path", "./examtrainer.db")
	viper.SetDefault("session.secret", "")
	viper.SetDefault("ai.log_dir", "")
	viper.SetDefault("ai.ollama_base_url", "")

	viper.BindEnv("server.port", "EXAMTRAINER_PORT")
	viper.BindEnv("server.mode", "EXAMTRAINER_MODE")
	viper.BindEnv("database.path", "EXAMTRAINER_DB_PATH")
	viper.BindEnv("session.secret", "EXAMTRAINER_SESSION_SECRET")
	viper.BindEnv("ai.log_dir", "EXAMTRAINER_AI_LOG_DIR")
	viper.BindEnv("ai.ollama_base_url", "EXAMTRAINER_OLLAMA_BASE_URL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
