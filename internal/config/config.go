package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config структура конфигурации приложения
type Config struct {
	Environment string `yaml:"environment"`

	Server struct {
		Port      int    `yaml:"port"`
		Host      string `yaml:"host"`
		GRPCPort  int    `yaml:"grpc_port"`
		StaticDir string `yaml:"static_dir"`
	} `yaml:"server"`

	Database struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Name     string `yaml:"name"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"ssl_mode"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"database"`

	DetectorAPI struct {
		BaseURL string `yaml:"base_url"`
		Timeout int    `yaml:"timeout_seconds"` // в секундах
	} `yaml:"detector_api"`

	Auth struct {
		JWTSecret       string `yaml:"jwt_secret"`
		ExpirationHours int    `yaml:"expiration_hours"`
		BcryptCost      int    `yaml:"bcrypt_cost"`
	} `yaml:"auth"`

	Gemini struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"gemini"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	cfg := &Config{Environment: "development"}

	cfg.Server.Port = 8080
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.GRPCPort = 9090
	cfg.Server.StaticDir = "static"

	cfg.Database.Host = "localhost"
	cfg.Database.Port = "5432"
	cfg.Database.Name = "posekit"
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.SSLMode = "disable"

	cfg.DetectorAPI.BaseURL = "http://localhost:8000"
	cfg.DetectorAPI.Timeout = 120

	cfg.Auth.ExpirationHours = 24
	cfg.Auth.BcryptCost = 12

	cfg.Gemini.Model = "gemini-1.5-flash"

	cfg.Logging.Level = "info"

	return cfg
}

// Load загружает конфигурацию: значения по умолчанию, затем YAML файл
// (если путь задан), затем переменные окружения
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv переопределяет значения переменными окружения
func (c *Config) applyEnv() {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	// Конфигурация сервера
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.GRPCPort = getEnvInt("GRPC_PORT", c.Server.GRPCPort)
	c.Server.StaticDir = getEnv("STATIC_DIR", c.Server.StaticDir)

	// Конфигурация базы данных
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.SSLMode = getEnv("DB_SSL_MODE", c.Database.SSLMode)
	c.Database.Debug = getEnvBool("DB_DEBUG", c.Database.Debug)

	// Конфигурация сервиса детекции
	c.DetectorAPI.BaseURL = getEnv("DETECTOR_API_BASE_URL", c.DetectorAPI.BaseURL)
	c.DetectorAPI.Timeout = getEnvInt("DETECTOR_API_TIMEOUT_SECONDS", c.DetectorAPI.Timeout)

	// Аутентификация
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.ExpirationHours = getEnvInt("JWT_EXPIRATION_HOURS", c.Auth.ExpirationHours)
	c.Auth.BcryptCost = getEnvInt("BCRYPT_COST", c.Auth.BcryptCost)

	c.Gemini.APIKey = getEnv("GEMINI_API_KEY", c.Gemini.APIKey)
	c.Gemini.Model = getEnv("GEMINI_MODEL", c.Gemini.Model)

	// Конфигурация логирования
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
}

// Validate проверяет диапазоны значений
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: server port out of range: %d", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("config error: grpc port out of range: %d", c.Server.GRPCPort)
	}
	if c.Server.GRPCPort == c.Server.Port {
		return fmt.Errorf("config error: grpc port must differ from server port")
	}
	if c.Auth.ExpirationHours < 1 {
		return fmt.Errorf("config error: JWT expiration must be at least 1 hour, got: %d", c.Auth.ExpirationHours)
	}
	if c.Auth.BcryptCost < 10 || c.Auth.BcryptCost > 14 {
		return fmt.Errorf("config error: bcrypt cost out of range: %d (must be 10-14)", c.Auth.BcryptCost)
	}
	if c.DetectorAPI.Timeout < 1 {
		return fmt.Errorf("config error: detector timeout must be positive")
	}
	return nil
}

// IsProduction сообщает, запущен ли сервис в production окружении
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
