package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads the layered YAML configuration (base + environment overlay),
// applies environment-variable overrides, fills defaults and validates.
func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, e.g. config.production.yaml
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the usual locations so the service can be
// started from the repo root, a subdirectory, or a test package.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders inside string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		if strings.Contains(value, "${") {
			v.Set(key, os.ExpandEnv(value))
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "faq-assistant"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15000
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Assistant.MatchThreshold == 0 {
		cfg.Assistant.MatchThreshold = 0.3
	}
	if cfg.Assistant.HighConfidence == 0 {
		cfg.Assistant.HighConfidence = 0.7
	}
	if cfg.Assistant.EscalationScore == 0 {
		cfg.Assistant.EscalationScore = 3
	}
	if cfg.Assistant.ContextFloor == 0 {
		cfg.Assistant.ContextFloor = 0.1
	}
	if cfg.Assistant.ContextLimit == 0 {
		cfg.Assistant.ContextLimit = 3
	}
	if cfg.Assistant.TopK == 0 {
		cfg.Assistant.TopK = 3
	}

	if cfg.Session.TimeoutMinutes == 0 {
		cfg.Session.TimeoutMinutes = 30
	}
	if cfg.Session.MaxQuestions == 0 {
		cfg.Session.MaxQuestions = 50
	}

	if cfg.APIs.OpenAI.BaseURL == "" {
		cfg.APIs.OpenAI.BaseURL = "https://api.openai.com"
	}
	if cfg.APIs.OpenAI.Model == "" {
		cfg.APIs.OpenAI.Model = "gpt-3.5-turbo"
	}
	if cfg.APIs.OpenAI.MaxTokens == 0 {
		cfg.APIs.OpenAI.MaxTokens = 500
	}
	if cfg.APIs.OpenAI.Temperature == 0 {
		cfg.APIs.OpenAI.Temperature = 0.7
	}
	if cfg.APIs.OpenAI.Timeout == 0 {
		cfg.APIs.OpenAI.Timeout = 30000
	}
	if cfg.APIs.OpenAI.MaxRetries == 0 {
		cfg.APIs.OpenAI.MaxRetries = 2
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Assistant.MatchThreshold < 0 || cfg.Assistant.MatchThreshold > 1 {
		return fmt.Errorf("assistant.match_threshold must be in [0,1], got %v", cfg.Assistant.MatchThreshold)
	}
	if cfg.Assistant.HighConfidence < cfg.Assistant.MatchThreshold || cfg.Assistant.HighConfidence > 1 {
		return fmt.Errorf("assistant.high_confidence must be in [match_threshold,1], got %v", cfg.Assistant.HighConfidence)
	}
	if cfg.Assistant.EscalationScore < 1 {
		return fmt.Errorf("assistant.escalation_score must be positive, got %d", cfg.Assistant.EscalationScore)
	}
	if cfg.Assistant.ContextLimit < 1 {
		return fmt.Errorf("assistant.context_limit must be positive, got %d", cfg.Assistant.ContextLimit)
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	return nil
}
