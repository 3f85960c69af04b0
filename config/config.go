package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort         string `json:"server_port"`
	DatabasePath       string `json:"database_path"`
	JWTSecret          string `json:"jwt_secret"`
	Production         bool   `json:"production"`
	LogLevel           string `json:"log_level"`
	AllowedOrigins     string `json:"allowed_origins"`
	AccessTokenMinutes int    `json:"access_token_minutes"`
	RefreshTokenHours  int    `json:"refresh_token_hours"`

	path string
}

var (
	instance *Config
	once     sync.Once
)

func generateSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)
}

// DefaultPath returns $MESSENGER_CONFIG_DIR/config.json, or ~/.messenger/config.json.
func DefaultPath() string {
	configDir := os.Getenv("MESSENGER_CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			configDir = "."
		} else {
			configDir = filepath.Join(homeDir, ".messenger")
		}
	}
	return filepath.Join(configDir, "config.json")
}

// GetConfig loads the process-wide configuration once.
func GetConfig() *Config {
	once.Do(func() {
		// A missing .env is normal outside development.
		_ = godotenv.Load()

		cfg, err := Load(DefaultPath())
		if err != nil {
			panic(err)
		}
		instance = cfg
	})

	return instance
}

// Load reads the config file at path, fills defaults, persists any secrets
// it had to generate and then applies MESSENGER_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ServerPort:     "8080",
		LogLevel:       "info",
		AllowedOrigins: "http://localhost:5173,http://localhost:3000,http://localhost:8080",
		path:           path,
	}

	// A corrupted file leaves the defaults in place.
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, cfg)
	}

	if cfg.AccessTokenMinutes == 0 {
		cfg.AccessTokenMinutes = 15
	}
	if cfg.RefreshTokenHours == 0 {
		cfg.RefreshTokenHours = 7 * 24
	}

	needsSave := false
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = generateSecret(32)
		needsSave = true
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(filepath.Dir(path), "messenger.db")
		needsSave = true
	}

	// Environment overrides are never persisted.
	if needsSave {
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("MESSENGER_PORT"); port != "" {
		c.ServerPort = port
	}
	if dbPath := os.Getenv("MESSENGER_DB_PATH"); dbPath != "" {
		c.DatabasePath = dbPath
	}
	if secret := os.Getenv("MESSENGER_JWT_SECRET"); secret != "" {
		c.JWTSecret = secret
	}
	if os.Getenv("MESSENGER_PRODUCTION") == "true" {
		c.Production = true
	}
	if level := os.Getenv("MESSENGER_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if origins := os.Getenv("MESSENGER_ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = origins
	}
	if v, err := strconv.Atoi(os.Getenv("MESSENGER_ACCESS_TOKEN_MINUTES")); err == nil && v > 0 {
		c.AccessTokenMinutes = v
	}
	if v, err := strconv.Atoi(os.Getenv("MESSENGER_REFRESH_TOKEN_HOURS")); err == nil && v > 0 {
		c.RefreshTokenHours = v
	}
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenHours) * time.Hour
}

func (c *Config) Save() error {
	configPath := c.path
	if configPath == "" {
		configPath = DefaultPath()
	}

	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}
