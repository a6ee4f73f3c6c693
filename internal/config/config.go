package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Host              string         `validate:"required"`
	Port              string         `validate:"required,numeric"`
	APIURL            string         `validate:"required,url"`
	ReadHeaderTimeout time.Duration  `validate:"gt=0"`
	LivenessEndpoint  string         `validate:"required,startswith=/"`
	GatewayTimeout    time.Duration  `validate:"gt=0"`
	GatewayMaxRetries int            `validate:"gte=1,lte=10"`
	GatewayBackoff    time.Duration  `validate:"gte=0"`
	Location          *time.Location `validate:"required"`
	PickerTTL         time.Duration  `validate:"gt=0"`
	LogLevel          string         `validate:"oneof=debug info warn error"`
	LogFile           string         `validate:"omitempty"`
	JaegerEndpoint    string         `validate:"omitempty,url"`
	ServiceName       string         `validate:"required"`
}

// Load reads an optional .env file from the working directory, then the
// process environment, which wins over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	return FromEnv(os.LookupEnv)
}

// FromEnv builds the config from lookup, applying defaults for unset keys.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	e := env{lookup: lookup}

	tz := e.str("RESORT_TIMEZONE", "Asia/Manila")

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}

	conf := &Config{
		Host:              e.str("HOST", "localhost"),
		Port:              e.str("PORT", "8092"),
		APIURL:            e.str("API_URL", "http://localhost:8000/api"),
		ReadHeaderTimeout: e.duration("READ_HEADER_TIMEOUT", 20*time.Second),
		LivenessEndpoint:  e.str("LIVENESS_ENDPOINT", "/liveness"),
		GatewayTimeout:    e.duration("GATEWAY_TIMEOUT", 10*time.Second),
		GatewayMaxRetries: e.int("GATEWAY_MAX_RETRIES", 3),
		GatewayBackoff:    e.duration("GATEWAY_BACKOFF", 200*time.Millisecond),
		Location:          loc,
		PickerTTL:         e.duration("PICKER_TTL", 30*time.Minute),
		LogLevel:          e.str("LOG_LEVEL", "info"),
		LogFile:           e.str("LOG_FILE", ""),
		JaegerEndpoint:    e.str("JAEGER_ENDPOINT", ""),
		ServiceName:       e.str("SERVICE_NAME", "resortslots"),
	}

	if len(e.errs) > 0 {
		return nil, fmt.Errorf("read config: %w", errors.Join(e.errs...))
	}

	if err = validator.New(validator.WithRequiredStructEnabled()).Struct(conf); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return conf, nil
}

type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}

	return def
}

func (e *env) int(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))

		return def
	}

	return n
}

// duration accepts Go durations ("15s") and bare integers as seconds.
func (e *env) duration(key string, def time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}

	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))

		return def
	}

	return d
}
