// Package config loads the service configuration once at startup.
//
// Sources are applied in increasing priority: built-in defaults, a JSON file
// named by the CONFIG variable or the -c flag, the environment (optionally
// seeded from a .env file), and finally command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the immutable process configuration.
type Config struct {
	RunAddr               string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel              string        `env:"LOG_LEVEL" validate:"loglevel"`
	StorageDir            string        `env:"FILE_STORAGE_PATH" validate:"filepath"`
	DatabaseDSN           string        `env:"DATABASE_DSN"`
	RedisAddr             string        `env:"REDIS_ADDRESS" validate:"omitempty,hostname_port"`
	RedisPassword         string        `env:"REDIS_PASSWORD"`
	RedisDB               int           `env:"REDIS_DB" validate:"gte=0"`
	TokenSigningSecretKey string        `env:"TOKEN_SECRET_KEY" validate:"required"`
	TokenTTL              time.Duration `env:"TOKEN_TTL" validate:"gt=0"`
	TrustedSubnet         string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	DBConnectionTimeout   time.Duration `env:"DB_CONNECTION_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout       time.Duration `env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	ConfigFile            string        `env:"CONFIG"`
}

var defaultConfig = Config{
	RunAddr:               ":3000",
	LogLevel:              "info",
	StorageDir:            ".",
	TokenSigningSecretKey: "secreto seguro",
	TokenTTL:              time.Hour,
	DBConnectionTimeout:   10 * time.Second,
	ShutdownTimeout:       10 * time.Second,
}

// fileConfig mirrors Config for the JSON file, where durations are written
// as strings such as "1h" or "30s".
type fileConfig struct {
	RunAddr               string `json:"server_address"`
	LogLevel              string `json:"log_level"`
	StorageDir            string `json:"file_storage_path"`
	DatabaseDSN           string `json:"database_dsn"`
	RedisAddr             string `json:"redis_address"`
	RedisPassword         string `json:"redis_password"`
	RedisDB               int    `json:"redis_db"`
	TokenSigningSecretKey string `json:"token_secret_key"`
	TokenTTL              string `json:"token_ttl"`
	TrustedSubnet         string `json:"trusted_subnet"`
	DBConnectionTimeout   string `json:"db_connection_timeout"`
	ShutdownTimeout       string `json:"shutdown_timeout"`
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	info, err := os.Stat(path)

	return os.IsNotExist(err) || (err == nil && info.IsDir())
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

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

// WithDisableFlagsParsing skips command-line flags entirely. Tests use it.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs parses args instead of os.Args[1:].
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

// New builds and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := Config{}
	applyDefaults(&values, defaultConfig)

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}

	var valuesFromFlags Config
	var flagSet *flag.FlagSet
	if !options.disableFlagsParsing {
		flagSet, err = parseFlags(&valuesFromFlags, options.args)
		if err != nil {
			return nil, err
		}
	}

	configFile := valuesFromEnv.ConfigFile
	if valuesFromFlags.ConfigFile != "" {
		configFile = valuesFromFlags.ConfigFile
	}
	if configFile != "" {
		valuesFromFile, err := loadFile(configFile)
		if err != nil {
			return nil, err
		}
		merge(&values, valuesFromFile)
	}

	merge(&values, valuesFromEnv)
	merge(&values, valuesFromFlags)

	// Flags explicitly set to their zero value still win.
	if flagSet != nil {
		flagSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "f":
				values.StorageDir = valuesFromFlags.StorageDir
			case "d":
				values.DatabaseDSN = valuesFromFlags.DatabaseDSN
			case "r":
				values.RedisAddr = valuesFromFlags.RedisAddr
			case "t":
				values.TrustedSubnet = valuesFromFlags.TrustedSubnet
			}
		})
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return &values, nil
}

func parseFlags(values *Config, args []string) (*flag.FlagSet, error) {
	flagSet := flag.NewFlagSet("tareas", flag.ContinueOnError)
	flagSet.StringVar(&values.RunAddr, "a", "", "address and port to run server")
	flagSet.StringVar(&values.LogLevel, "l", "", "logger level")
	flagSet.StringVar(&values.StorageDir, "f", "", "directory holding the JSON collection files")
	flagSet.StringVar(&values.DatabaseDSN, "d", "", "PostgreSQL connection string")
	flagSet.StringVar(&values.RedisAddr, "r", "", "Redis address")
	flagSet.StringVar(&values.TokenSigningSecretKey, "s", "", "token signing secret key")
	flagSet.StringVar(&values.TrustedSubnet, "t", "", "trusted subnet in CIDR notation")
	flagSet.StringVar(&values.ConfigFile, "c", "", "JSON configuration file")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}

	return flagSet, nil
}

func loadFile(fileName string) (Config, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return Config{}, fmt.Errorf(
			"in internal/config/config.go/loadFile(): error while `os.ReadFile()` calling: %w",
			err,
		)
	}

	var raw fileConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf(
			"in internal/config/config.go/loadFile(): error while `json.Unmarshal()` calling: %w",
			err,
		)
	}

	result := Config{
		RunAddr:               raw.RunAddr,
		LogLevel:              raw.LogLevel,
		StorageDir:            raw.StorageDir,
		DatabaseDSN:           raw.DatabaseDSN,
		RedisAddr:             raw.RedisAddr,
		RedisPassword:         raw.RedisPassword,
		RedisDB:               raw.RedisDB,
		TokenSigningSecretKey: raw.TokenSigningSecretKey,
		TrustedSubnet:         raw.TrustedSubnet,
	}

	durations := []struct {
		raw    string
		target *time.Duration
	}{
		{raw.TokenTTL, &result.TokenTTL},
		{raw.DBConnectionTimeout, &result.DBConnectionTimeout},
		{raw.ShutdownTimeout, &result.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return Config{}, errors.Join(fmt.Errorf("invalid duration %q in %s", d.raw, fileName), err)
		}
		*d.target = parsed
	}

	return result, nil
}

func applyDefaults(values *Config, defaults Config) {
	merge(values, defaults)
}

// merge copies every non-zero field of source over target.
func merge(target *Config, source Config) {
	if source.RunAddr != "" {
		target.RunAddr = source.RunAddr
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.StorageDir != "" {
		target.StorageDir = source.StorageDir
	}
	if source.DatabaseDSN != "" {
		target.DatabaseDSN = source.DatabaseDSN
	}
	if source.RedisAddr != "" {
		target.RedisAddr = source.RedisAddr
	}
	if source.RedisPassword != "" {
		target.RedisPassword = source.RedisPassword
	}
	if source.RedisDB != 0 {
		target.RedisDB = source.RedisDB
	}
	if source.TokenSigningSecretKey != "" {
		target.TokenSigningSecretKey = source.TokenSigningSecretKey
	}
	if source.TokenTTL != 0 {
		target.TokenTTL = source.TokenTTL
	}
	if source.TrustedSubnet != "" {
		target.TrustedSubnet = source.TrustedSubnet
	}
	if source.DBConnectionTimeout != 0 {
		target.DBConnectionTimeout = source.DBConnectionTimeout
	}
	if source.ShutdownTimeout != 0 {
		target.ShutdownTimeout = source.ShutdownTimeout
	}
	if source.ConfigFile != "" {
		target.ConfigFile = source.ConfigFile
	}
}
