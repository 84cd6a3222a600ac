package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	AI       AIConfig
	Tokens   TokenConfig
	Billing  BillingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type AIConfig struct {
	GeminiKey        string
	OpenAIKey        string
	AnthropicKey     string
	DefaultProvider  string
	FallbackProvider string
	MaxRetries       int

	// Model per operation; the original calibration targets gemini-2.5-flash
	// for every task.
	GenerationModel  string
	QuestionModel    string
	ExampleModel     string
	ImprovementModel string
}

// TokenConfig carries the flat token rates charged per operation type,
// independent of measured usage, plus the signup bonus credited to new users.
type TokenConfig struct {
	SignupBonus     int
	GenerationCost  int
	ImprovementCost int
	QuestionCost    int
	ExampleCost     int
}

type BillingConfig struct {
	StripeSecretKey     string
	StripeWebhookSecret string
	SuccessURL          string
	CancelURL           string
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxRetries, err := getEnvInt("AI_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid AI_MAX_RETRIES: %w", err)
	}

	signupBonus, err := getEnvInt("SIGNUP_BONUS_TOKENS", 1500)
	if err != nil {
		return nil, fmt.Errorf("invalid SIGNUP_BONUS_TOKENS: %w", err)
	}

	generationCost, err := getEnvInt("TOKEN_COST_GENERATION", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_COST_GENERATION: %w", err)
	}

	improvementCost, err := getEnvInt("TOKEN_COST_IMPROVEMENT", 12)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_COST_IMPROVEMENT: %w", err)
	}

	questionCost, err := getEnvInt("TOKEN_COST_QUESTIONS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_COST_QUESTIONS: %w", err)
	}

	exampleCost, err := getEnvInt("TOKEN_COST_EXAMPLES", 8)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_COST_EXAMPLES: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		AI: AIConfig{
			GeminiKey:        getEnv("GOOGLE_API_KEY", ""),
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			DefaultProvider:  getEnv("AI_DEFAULT_PROVIDER", "gemini"),
			FallbackProvider: getEnv("AI_FALLBACK_PROVIDER", ""),
			MaxRetries:       maxRetries,
			GenerationModel:  getEnv("AI_MODEL_PROMPT_GENERATION", "gemini-2.5-flash"),
			QuestionModel:    getEnv("AI_MODEL_QUESTION_GENERATION", "gemini-2.5-flash"),
			ExampleModel:     getEnv("AI_MODEL_EXAMPLE_GENERATION", "gemini-2.5-flash"),
			ImprovementModel: getEnv("AI_MODEL_PROMPT_IMPROVEMENT", "gemini-2.5-flash"),
		},
		Tokens: TokenConfig{
			SignupBonus:     signupBonus,
			GenerationCost:  generationCost,
			ImprovementCost: improvementCost,
			QuestionCost:    questionCost,
			ExampleCost:     exampleCost,
		},
		Billing: BillingConfig{
			StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			SuccessURL:          getEnv("STRIPE_SUCCESS_URL", "http://localhost:3000/dashboard?purchase=success"),
			CancelURL:           getEnv("STRIPE_CANCEL_URL", "http://localhost:3000/dashboard?purchase=cancelled"),
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
