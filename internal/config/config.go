// Package config provides functionality for managing configuration options
// for the server using command-line flags, environment variables, a .env
// file and an optional config file.
package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Options holds the configuration values for the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string

	// Config is the path to the Config file.
	Config string

	// Seed inserts the demo catalog on startup when the database is empty.
	Seed bool

	// LogLevel is the zap level name.
	LogLevel string

	JWT      JWTOptions
	Upload   UploadOptions
	Redis    RedisOptions
	TLS      TLSOptions
	Purge    PurgeOptions
	StatsTTL time.Duration
}

// JWTOptions configures access token issuing.
type JWTOptions struct {
	Secret     string
	Expiration time.Duration
}

// UploadOptions configures document uploads.
type UploadOptions struct {
	Dir               string
	MaxBytes          int64
	AllowedExtensions []string
}

// RedisOptions configures the optional stats cache. An empty Addr disables it.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// TLSOptions enables HTTPS when both files are set.
type TLSOptions struct {
	CertFile string
	KeyFile  string
}

// Enabled reports whether HTTPS should be served.
func (t TLSOptions) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

// PurgeOptions configures the purge of soft-deleted documents.
type PurgeOptions struct {
	Interval  time.Duration
	Retention time.Duration
}

// DefaultMaxUploadBytes is the default upload limit (16 MiB).
const DefaultMaxUploadBytes = 16 << 20

// DefaultAllowedExtensions lists the accepted upload extensions.
var DefaultAllowedExtensions = []string{"pdf", "doc", "docx", "ppt", "pptx", "jpg", "jpeg", "png"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", "localhost:8080")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "dev-secret-key-change-in-production")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)
	v.SetDefault("ALLOWED_EXTENSIONS", strings.Join(DefaultAllowedExtensions, ","))
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STATS_CACHE_TTL", "1m")
	v.SetDefault("TLS_CERT_FILE", "")
	v.SetDefault("TLS_KEY_FILE", "")
	v.SetDefault("PURGE_INTERVAL", "1h")
	v.SetDefault("PURGE_RETENTION", "720h")
}

// Parse parses os.Args and the environment. It exits on malformed input,
// matching how the server treats configuration errors as fatal.
func Parse() *Options {
	opts, err := Load(os.Args[1:])
	if err != nil {
		flag.Usage()
		os.Exit(2)
	}
	return opts
}

// Load builds Options from args, environment variables, a .env file and
// the config file named by -c/-config or $CONFIG. Explicit flags win over
// everything else; environment wins over the config file.
func Load(args []string) (*Options, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		addr, dsn, cfgPath, level string
		seed                      bool
	)
	fs.StringVar(&addr, "a", "", "run on ip:port server")
	fs.StringVar(&dsn, "d", "", "db address")
	fs.StringVar(&cfgPath, "config", "", "path to config file")
	fs.StringVar(&cfgPath, "c", "", "path to config file (shorthand)")
	fs.StringVar(&level, "log-level", "", "log level")
	fs.BoolVar(&seed, "seed", false, "insert demo catalog when empty")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG")
	}
	if cfgPath != "" {
		if _, err := os.Stat(cfgPath); err == nil {
			v.SetConfigFile(cfgPath)
			if err := v.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return nil, err
				}
			}
		}
	}

	opts := &Options{
		Port:        v.GetString("SERVER_ADDRESS"),
		DatabaseDSN: v.GetString("DATABASE_DSN"),
		Config:      cfgPath,
		Seed:        seed,
		LogLevel:    v.GetString("LOG_LEVEL"),
		JWT: JWTOptions{
			Secret:     v.GetString("JWT_SECRET"),
			Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		},
		Upload: UploadOptions{
			Dir:               v.GetString("UPLOAD_DIR"),
			MaxBytes:          v.GetInt64("MAX_UPLOAD_BYTES"),
			AllowedExtensions: splitAndTrim(v.GetString("ALLOWED_EXTENSIONS")),
		},
		Redis: RedisOptions{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		TLS: TLSOptions{
			CertFile: v.GetString("TLS_CERT_FILE"),
			KeyFile:  v.GetString("TLS_KEY_FILE"),
		},
		Purge: PurgeOptions{
			Interval:  parseDuration(v.GetString("PURGE_INTERVAL"), time.Hour),
			Retention: parseDuration(v.GetString("PURGE_RETENTION"), 30*24*time.Hour),
		},
		StatsTTL: parseDuration(v.GetString("STATS_CACHE_TTL"), time.Minute),
	}

	if addr != "" {
		opts.Port = addr
	}
	if dsn != "" {
		opts.DatabaseDSN = dsn
	}
	if level != "" {
		opts.LogLevel = level
	}
	if opts.Upload.MaxBytes <= 0 {
		opts.Upload.MaxBytes = DefaultMaxUploadBytes
	}

	return opts, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p), ".")))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
