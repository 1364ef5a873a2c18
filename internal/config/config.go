// Package config assembles the service configuration from defaults, an optional
// JSON file, environment variables (.env is honoured outside production) and
// command-line flags, in increasing order of priority.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	// EnvProduction disables .env loading.
	EnvProduction = "production"

	defaultSessionSecret = "thisshouldbeabettersecret"
)

// Config holds every tunable of the service.
type Config struct {
	RunAddr                string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	LogLevel               string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	AppEnv                 string        `env:"APP_ENV" json:"app_env" validate:"appenv"`
	DatabaseURL            string        `env:"ATLASDB_URL" json:"database_url"`
	DBName                 string        `env:"DB_NAME" json:"db_name" validate:"required"`
	DBFileName             string        `env:"FILE_STORAGE_PATH" json:"file_storage_path" validate:"filepath"`
	DBConnectionTimeout    time.Duration `env:"DB_CONNECTION_TIMEOUT" json:"db_connection_timeout" validate:"gt=0"`
	MigrationsDir          string        `env:"MIGRATIONS_DIR" json:"migrations_dir"`
	SessionSecret          string        `env:"SECRET" json:"secret" validate:"min=8"`
	SessionCookieName      string        `env:"SESSION_COOKIE_NAME" json:"session_cookie_name" validate:"required"`
	SessionMaxAge          time.Duration `env:"SESSION_MAX_AGE" json:"session_max_age" validate:"gt=0"`
	SessionTouchAfter      time.Duration `env:"SESSION_TOUCH_AFTER" json:"session_touch_after" validate:"gte=0"`
	SessionSweepInterval   time.Duration `env:"SESSION_SWEEP_INTERVAL" json:"session_sweep_interval" validate:"gt=0"`
	CascadeReviewsOnDelete bool          `env:"CASCADE_REVIEWS_ON_DELETE" json:"cascade_reviews_on_delete"`
	TrustedSubnet          string        `env:"TRUSTED_SUBNET" json:"trusted_subnet" validate:"omitempty,cidr"`
	ConfigFile             string        `env:"CONFIG" json:"-"`
}

var defaultConfig = Config{
	RunAddr:              ":8080",
	LogLevel:             "info",
	AppEnv:               "development",
	DatabaseURL:          "",
	DBName:               "wanderlust",
	DBFileName:           "",
	DBConnectionTimeout:  10 * time.Second,
	MigrationsDir:        "cmd/wanderlust/migrations",
	SessionSecret:        defaultSessionSecret,
	SessionCookieName:    "wanderlust.sid",
	SessionMaxAge:        7 * 24 * time.Hour,
	SessionTouchAfter:    24 * time.Hour,
	SessionSweepInterval: time.Hour,
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func validateAppEnv(fieldLevel validator.FieldLevel) bool {
	switch fieldLevel.Field().String() {
	case "development", "test", EnvProduction:
		return true
	}
	return false
}

func (c *Config) validate() error {
	validate := validator.New()

	validators := map[string]validator.Func{
		"loglevel": validateLogLevel,
		"filepath": validateFilePath,
		"appenv":   validateAppEnv,
	}
	for tag, fn := range validators {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}

	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.AppEnv == EnvProduction && c.SessionSecret == defaultSessionSecret {
		return errors.New("the SECRET must be set in production")
	}

	return nil
}

// InitOption tweaks how New gathers values.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips command-line flags. Tests use it to keep
// the testing package's flags away from the config.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

type flagValues struct {
	configFile    string
	runAddr       string
	logLevel      string
	appEnv        string
	databaseURL   string
	dbFileName    string
	sessionSecret string
	trustedSubnet string
}

func parseFlags() (*flagValues, error) {
	values := &flagValues{}
	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.StringVar(&values.configFile, "c", "", "path to the JSON config file")
	flagSet.StringVar(&values.runAddr, "a", "", "address and port to run server")
	flagSet.StringVar(&values.logLevel, "l", "", "logger level")
	flagSet.StringVar(&values.appEnv, "e", "", "execution mode: development, test or production")
	flagSet.StringVar(&values.databaseURL, "d", "", "database connection URL (mongodb:// or postgres://)")
	flagSet.StringVar(&values.dbFileName, "f", "", "JSON file name with database")
	flagSet.StringVar(&values.sessionSecret, "s", "", "session signing secret")
	flagSet.StringVar(&values.trustedSubnet, "t", "", "CIDR allowed to read internal stats")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return nil, err
	}

	return values, nil
}

func applyDefaults(values *Config, defaults Config) {
	configFile := values.ConfigFile
	*values = defaults
	values.ConfigFile = configFile
}

func loadJSON(fileName string, values *Config) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `os.ReadFile()` calling: %w", err)
	}

	var fromFile struct {
		Config
		DBConnectionTimeout  string `json:"db_connection_timeout"`
		SessionMaxAge        string `json:"session_max_age"`
		SessionTouchAfter    string `json:"session_touch_after"`
		SessionSweepInterval string `json:"session_sweep_interval"`
	}
	fromFile.Config = *values
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `json.Unmarshal()` calling: %w", err)
	}

	durations := []struct {
		raw    string
		target *time.Duration
	}{
		{fromFile.DBConnectionTimeout, &fromFile.Config.DBConnectionTimeout},
		{fromFile.SessionMaxAge, &fromFile.Config.SessionMaxAge},
		{fromFile.SessionTouchAfter, &fromFile.Config.SessionTouchAfter},
		{fromFile.SessionSweepInterval, &fromFile.Config.SessionSweepInterval},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `time.ParseDuration()` calling: %w", err)
		}
		*d.target = parsed
	}

	*values = fromFile.Config

	return nil
}

func overrideString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

// New gathers the configuration. Priority: flags > env > JSON file > defaults.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if os.Getenv("APP_ENV") != EnvProduction {
		// A missing .env file is fine.
		_ = godotenv.Load()
	}

	flags := &flagValues{}
	if !options.disableFlagsParsing {
		var err error
		flags, err = parseFlags()
		if err != nil {
			return nil, err
		}
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	configFile := os.Getenv("CONFIG")
	overrideString(&configFile, flags.configFile)
	if configFile != "" {
		if err := loadJSON(configFile, values); err != nil {
			return nil, err
		}
	}

	// env.Parse only touches fields whose variables are set, so file values survive.
	if err := env.Parse(values); err != nil {
		return nil, err
	}

	overrideString(&values.RunAddr, flags.runAddr)
	overrideString(&values.LogLevel, flags.logLevel)
	overrideString(&values.AppEnv, flags.appEnv)
	overrideString(&values.DatabaseURL, flags.databaseURL)
	overrideString(&values.DBFileName, flags.dbFileName)
	overrideString(&values.SessionSecret, flags.sessionSecret)
	overrideString(&values.TrustedSubnet, flags.trustedSubnet)
	values.ConfigFile = configFile

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}
