package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"             validate:"required"`
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns the host:port the HTTP server listens on.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"   validate:"required,oneof=pgx postgres"`
	Host     string `mapstructure:"host"     validate:"required_without=URL"`
	Port     int    `mapstructure:"port"     validate:"gte=0,lt=65536"`
	Username string `mapstructure:"username" validate:"required_without=URL"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"     validate:"required_without=URL"`
	Schema   string `mapstructure:"schema"`
	SSLMode  string `mapstructure:"sslmode"  validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	// URL overrides the DSN built from the individual fields when set.
	URL string `mapstructure:"url"`

	MaxOpenConns     int           `mapstructure:"max_open_conns"    validate:"gte=0"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"   validate:"gte=0"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout" validate:"gte=0"`
}

// DSN returns the connection string handed to the database driver.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", c.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// String describes the target database without credentials.
func (c DatabaseConfig) String() string {
	if c.URL != "" {
		return fmt.Sprintf("%s (url)", c.Driver)
	}
	return fmt.Sprintf("%s://%s:%d/%s", c.Driver, c.Host, c.Port, c.Name)
}
