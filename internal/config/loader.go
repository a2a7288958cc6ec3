package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "EXAMS"

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config captures environment driven configuration values for the exam scheduler.
type Config struct {
	HTTPPort        int
	DatabaseDriver  string
	DatabaseDSN     string
	MaxOpenConns    int
	BusyTimeout     time.Duration
	TxMaxRetries    int
	TxRetryDelay    time.Duration
	AutoMigrate     bool
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load parses configuration values from the process environment, after
// loading the optional dotenv file named by EXAMS_ENV_FILE (".env" by default).
// Variables already present in the environment win over the file.
//
// Defaults are applied for optional fields; every missing or invalid value is
// collected and reported in one error.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault("http_port", "8080")
	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("database_max_open_conns", "0")
	v.SetDefault("busy_timeout", "5s")
	v.SetDefault("tx_max_retries", "5")
	v.SetDefault("tx_retry_delay", "20ms")
	v.SetDefault("auto_migrate", "true")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("shutdown_timeout", "10s")

	cfg := Config{
		DatabaseDSN: strings.TrimSpace(v.GetString("database_dsn")),
		LogLevel:    strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFormat:   strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)
	key := func(name string) string { return envPrefix + "_" + strings.ToUpper(name) }

	positiveInt := func(name string, allowZero bool, dst *int) {
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(name)))
		if err != nil || n < 0 || (!allowZero && n == 0) {
			invalid = append(invalid, key(name))
			return
		}
		*dst = n
	}
	duration := func(name string, dst *time.Duration) {
		d, err := time.ParseDuration(strings.TrimSpace(v.GetString(name)))
		if err != nil || d <= 0 {
			invalid = append(invalid, key(name))
			return
		}
		*dst = d
	}

	positiveInt("http_port", false, &cfg.HTTPPort)
	positiveInt("database_max_open_conns", true, &cfg.MaxOpenConns)
	positiveInt("tx_max_retries", true, &cfg.TxMaxRetries)
	duration("busy_timeout", &cfg.BusyTimeout)
	duration("tx_retry_delay", &cfg.TxRetryDelay)
	duration("shutdown_timeout", &cfg.ShutdownTimeout)

	if migrate, err := strconv.ParseBool(strings.TrimSpace(v.GetString("auto_migrate"))); err != nil {
		invalid = append(invalid, key("auto_migrate"))
	} else {
		cfg.AutoMigrate = migrate
	}

	switch driver := strings.ToLower(strings.TrimSpace(v.GetString("database_driver"))); driver {
	case DriverSQLite:
		cfg.DatabaseDriver = driver
		if cfg.DatabaseDSN == "" {
			cfg.DatabaseDSN = "file:exams.db"
		}
	case DriverPostgres:
		cfg.DatabaseDriver = driver
		if cfg.DatabaseDSN == "" {
			missing = append(missing, key("database_dsn"))
		}
	case DriverMemory:
		cfg.DatabaseDriver = driver
	default:
		invalid = append(invalid, key("database_driver"))
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, key("log_level"))
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		invalid = append(invalid, key("log_format"))
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("config: required settings are missing: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("config: invalid settings: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func loadEnvFile() error {
	path := strings.TrimSpace(os.Getenv(envPrefix + "_ENV_FILE"))
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("config: env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load env file %s: %w", path, err)
	}
	return nil
}
