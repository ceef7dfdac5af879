package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const mongoPasswordPlaceholder = "<db_password>"

type Config struct {
	Environment    string   `env:"ENV" env-default:"development"`
	Port           string   `env:"PORT" env-default:"8080"`
	RedisURI       string   `env:"REDIS_URI" env-default:"redis://localhost:6379/0"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:8080"`

	Mongo      MongoConfig
	Postgres   PostgresConfig
	Session    SessionConfig
	Cloudinary CloudinaryConfig
}

// MongoConfig locates the user account store. ConnectionString may contain
// the <db_password> placeholder, which is replaced by Password.
type MongoConfig struct {
	ConnectionString string `env:"DB_CONNECTION_STRING" env-default:"mongodb://localhost:27017/lego"`
	Password         string `env:"DB_PASSWORD"`
	Database         string `env:"MONGO_DB_NAME" env-default:"lego"`
}

// PostgresConfig locates the catalog store. URI wins over the discrete fields.
type PostgresConfig struct {
	URI      string `env:"POSTGRES_URI"`
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Database string `env:"DB_DATABASE" env-default:"lego"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"require"`
}

type SessionConfig struct {
	CookieName     string        `env:"SESSION_COOKIE_NAME" env-default:"session"`
	Duration       time.Duration `env:"SESSION_DURATION" env-default:"30m"`
	ActiveDuration time.Duration `env:"SESSION_ACTIVE_DURATION" env-default:"5m"`
}

type CloudinaryConfig struct {
	CloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `env:"CLOUDINARY_API_KEY"`
	APISecret string `env:"CLOUDINARY_API_SECRET"`
}

// Enabled reports whether all Cloudinary credentials are present.
func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Load reads the configuration from the environment. Call godotenv.Load
// first if a .env file should be honoured.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Mongo.ConnectionString) == "" {
		return errors.New("DB_CONNECTION_STRING is required")
	}
	if c.Session.Duration <= 0 {
		return errors.New("SESSION_DURATION must be positive")
	}
	if c.Session.ActiveDuration < 0 {
		return errors.New("SESSION_ACTIVE_DURATION must not be negative")
	}
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	return nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// URI returns the connection string with the password placeholder filled in.
func (m MongoConfig) URI() string {
	return strings.ReplaceAll(m.ConnectionString, mongoPasswordPlaceholder, m.Password)
}

// DatabaseName returns the database named in the connection string path,
// falling back to Database.
func (m MongoConfig) DatabaseName() string {
	u, err := url.Parse(m.URI())
	if err != nil {
		return m.Database
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return m.Database
}

// DSN returns the PostgreSQL connection string.
func (p PostgresConfig) DSN() string {
	if p.URI != "" {
		return p.URI
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	return u.String()
}
