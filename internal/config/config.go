// Package config holds the server configuration and the command line that
// fills it from flags, MANITO_* environment variables and .env files.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mmynk/manito/pkg/logging"
)

// MinSecretLength is the shortest accepted session signing secret, in bytes.
const MinSecretLength = 32

const envPrefix = "MANITO"

// Config is the server configuration, assembled from flags, MANITO_*
// environment variables and an optional .env file, in that order of priority.
type Config struct {
	Bind       string
	Port       int
	DBPath     string
	BaseURL    string
	JWTSecret  string
	SessionTTL time.Duration
	LogLevel   string
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("--db-path must not be empty")
	}
	if len(c.JWTSecret) < MinSecretLength {
		return fmt.Errorf("--jwt-secret must be at least %d bytes (env: MANITO_JWT_SECRET)", MinSecretLength)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("invalid session ttl: %s", c.SessionTTL)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base url (must be an absolute http or https url): %q", c.BaseURL)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// Level is the configured log level. Call after Validate.
func (c *Config) Level() slog.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}

// LoadEnvFiles loads variables from .env files into the process environment
// without overriding ones already set. Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// NewCommand builds the root command. Once flags and environment are applied
// and cfg validates, run is called with the command's context.
func NewCommand(cfg *Config, version string, run func(ctx context.Context, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "manito",
		Short:   "Secret gift-giver rooms: draw targets, claim names, reveal together.",
		Args:    cobra.ExactArgs(0),
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()

	flags.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	flags.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: MANITO_BIND)")
	flags.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: MANITO_PORT)")
	flags.StringVar(&cfg.DBPath, "db-path", "./data/manito.db", "path to the sqlite database (env: MANITO_DB_PATH)")
	flags.StringVar(&cfg.BaseURL, "base-url", "http://localhost:8080", "public url used in entry links and QR codes (env: MANITO_BASE_URL)")
	flags.StringVar(&cfg.JWTSecret, "jwt-secret", "", "secret for signing session tokens, at least 32 bytes (env: MANITO_JWT_SECRET)")
	flags.DurationVar(&cfg.SessionTTL, "session-ttl", 24*time.Hour, "lifetime of participant session tokens (env: MANITO_SESSION_TTL)")
	flags.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error (env: MANITO_LOG_LEVEL)")

	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = flags.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("manito v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
