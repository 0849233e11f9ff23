package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all static application configuration. Values are read from a
// .env file when present, with environment variables taking precedence.
type Config struct {
	AppPort      int    `mapstructure:"APP_PORT"`
	DatabasePath string `mapstructure:"DATABASE_PATH"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`

	// Copilot endpoint (any OpenAI-compatible chat-completion API).
	CopilotBaseURL string `mapstructure:"COPILOT_BASE_URL"`
	CopilotAPIKey  string `mapstructure:"COPILOT_API_KEY"`
	CopilotModel   string `mapstructure:"COPILOT_MODEL"`
	SystemPrompt   string `mapstructure:"SYSTEM_PROMPT"`

	// Notes source: "github", "local" or "mock".
	NotesSource string `mapstructure:"NOTES_SOURCE"`
	NotesDir    string `mapstructure:"NOTES_DIR"`
	GithubRepo  string `mapstructure:"GITHUB_REPO"`
	GithubRef   string `mapstructure:"GITHUB_REF"`
	GithubToken string `mapstructure:"GITHUB_TOKEN"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("DATABASE_PATH", "/data/notepilot.db")
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("COPILOT_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("COPILOT_MODEL", "gpt-4o-mini")
	viper.SetDefault("SYSTEM_PROMPT", "You are a helpful assistant for a personal notes collection. Use the provided tools to read files when the user refers to them.")
	viper.SetDefault("COPILOT_API_KEY", "")
	viper.SetDefault("NOTES_SOURCE", "mock")
	viper.SetDefault("NOTES_DIR", "./notes")
	viper.SetDefault("GITHUB_REPO", "")
	viper.SetDefault("GITHUB_REF", "main")
	viper.SetDefault("GITHUB_TOKEN", "")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./backend")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

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
