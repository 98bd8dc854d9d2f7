package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "TODO"

// legacyEnv maps config keys to the unprefixed variable names accepted for
// compatibility with existing deployments. Prefixed names win.
var legacyEnv = map[string][]string{
	"server.host":       {"APP_HOST"},
	"server.port":       {"APP_PORT"},
	"server.log_level":  {"LOGGING_LEVEL"},
	"database.driver":   {"DB_DRIVER"},
	"database.host":     {"DB_HOST"},
	"database.port":     {"DB_PORT"},
	"database.username": {"DB_USERNAME"},
	"database.password": {"DB_PASSWORD"},
	"database.name":     {"DB_DATABASE"},
	"database.schema":   {"DB_SCHEMA"},
	"database.url":      {"DATABASE_URL"},
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"host":      "server.host",
	"port":      "server.port",
	"log-level": "server.log_level",
}

// RegisterFlags adds the configuration flags understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (yaml, json or toml)")
	fs.String("env-file", ".env", "path to a dotenv file loaded before reading the environment")
	fs.String("host", "", "HTTP bind host")
	fs.Int("port", 0, "HTTP bind port")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
}

// Load configuration from flags, environment variables and optionally config files.
// Precedence from highest to lowest: flags, environment, config file, defaults.
// flags may be nil. Returns a populated Config struct or an error if
// loading/validation fails.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if err := loadDotEnv(flags); err != nil {
		return nil, err
	}

	setDefaults(v)

	if err := readConfigFile(v, flags); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "pgx")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "db_tmp")
	v.SetDefault("database.password", "db_tmp")
	v.SetDefault("database.name", "db_tmp")
	v.SetDefault("database.schema", "todo_list")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.connect_timeout", "5s")
	v.SetDefault("database.statement_timeout", "5s")
}

// loadDotEnv exports the variables of the dotenv file into the process
// environment. Variables that are already set keep their values.
func loadDotEnv(flags *pflag.FlagSet) error {
	path := ".env"
	if flags != nil {
		if p, err := flags.GetString("env-file"); err == nil {
			path = p
		}
	}
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func readConfigFile(v *viper.Viper, flags *pflag.FlagSet) error {
	var path string
	if flags != nil {
		if p, err := flags.GetString("config"); err == nil {
			path = p
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}
