package postgres

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Config points at the Supabase Postgres database. DATABASE_URL wins over
// the individual SUPABASE_DB_* settings when both are present.
type Config struct {
	URL      string
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
	SSLMode  string
}

func NewConfigFromEnv() *Config {
	return &Config{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     os.Getenv("SUPABASE_DB_HOST"),
		Port:     os.Getenv("SUPABASE_DB_PORT"),
		Username: os.Getenv("SUPABASE_DB_USER"),
		Password: os.Getenv("SUPABASE_DB_PASSWORD"),
		DBName:   os.Getenv("SUPABASE_DB_NAME"),
		SSLMode:  os.Getenv("SUPABASE_DB_SSL_MODE"),
	}
}

// Enabled reports whether any database setting was given at all. Billing
// persistence is optional.
func (c *Config) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

func (c *Config) Setup() *Config {
	const (
		defaultPort     = "5432"
		defaultUsername = "postgres"
		defaultDBName   = "postgres"
		defaultSSLMode  = "require"
	)

	c.Port = cmp.Or(c.Port, defaultPort)
	if _, err := strconv.Atoi(c.Port); err != nil {
		c.Port = defaultPort
	}
	c.Username = cmp.Or(c.Username, defaultUsername)
	c.DBName = cmp.Or(c.DBName, defaultDBName)
	c.SSLMode = cmp.Or(c.SSLMode, defaultSSLMode)

	return c
}

func (c *Config) String() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.DBName, c.Password, c.SSLMode,
	)
}

const _connectTimeout = 10 * time.Second

func NewDB(ctx context.Context, cfg *Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, _connectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.String())
	if err != nil {
		return nil, fmt.Errorf("%w: can't connect to postgres", err)
	}
	return db, nil
}
