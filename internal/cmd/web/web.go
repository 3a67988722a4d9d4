// Package web parses web service configuration and launches the server.
package web

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/postshelf/internal/platform/cmd"
	"github.com/louisbranch/postshelf/internal/services/content/auth"
	"github.com/louisbranch/postshelf/internal/services/content/collection"
	"github.com/louisbranch/postshelf/internal/services/content/seed"
	"github.com/louisbranch/postshelf/internal/services/content/storage"
	"github.com/louisbranch/postshelf/internal/services/content/storage/memory"
	"github.com/louisbranch/postshelf/internal/services/content/storage/sqlite"
	"github.com/louisbranch/postshelf/internal/services/web"
	"github.com/louisbranch/postshelf/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/postshelf/internal/services/web/platform/scopecookie"
)

// durableCookieAge is how long a durable-mode client keeps its scope cookie.
const durableCookieAge = 365 * 24 * time.Hour

// Config holds the web command configuration.
type Config struct {
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:"localhost:8080"`
	Storage        string        `env:"STORAGE" envDefault:"session"`
	DBPath         string        `env:"DB_PATH" envDefault:"data/postshelf.db"`
	Fixture        string        `env:"FIXTURE" envDefault:"embedded:"`
	FixtureTimeout time.Duration `env:"FIXTURE_TIMEOUT" envDefault:"10s"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	SessionSecret  string        `env:"SESSION_SECRET"`
	AdminUsername  string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminHash      string        `env:"ADMIN_PASSWORD_HASH"`
	// ClearOnLogout is "auto", "true" or "false". Auto wipes session scopes
	// and keeps durable ones.
	ClearOnLogout       string `env:"CLEAR_ON_LOGOUT" envDefault:"auto"`
	TrustForwardedProto bool   `env:"TRUST_FORWARDED_PROTO" envDefault:"false"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	err := entrypoint.ParseConfigFromArgs(&cfg, fs, args, func(fs *flag.FlagSet, cfg *Config) {
		fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
		fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage mode: session or durable")
		fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite path for durable storage")
		fs.StringVar(&cfg.Fixture, "fixture", cfg.Fixture, "Seed fixture path, URL, or embedded:")
		fs.DurationVar(&cfg.FixtureTimeout, "fixture-timeout", cfg.FixtureTimeout, "Seed fixture load timeout")
		fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "Idle time before a scope is evicted")
	})
	if err != nil {
		return Config{}, err
	}
	if _, err := storage.ParseMode(cfg.Storage); err != nil {
		return Config{}, err
	}
	if _, err := parseClearOnLogout(cfg.ClearOnLogout, storage.ModeSession); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the web server.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWeb, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
}

func run(ctx context.Context, cfg Config) error {
	logger := log.Default()
	mode, err := storage.ParseMode(cfg.Storage)
	if err != nil {
		return err
	}

	backend, err := openBackend(mode, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Printf("close storage err=%v", err)
		}
	}()

	loader, err := seed.NewLoader(seed.Config{
		Source:  cfg.Fixture,
		Timeout: cfg.FixtureTimeout,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("init seed loader: %w", err)
	}
	scopes := collection.NewRegistry(backend, loader, logger)

	clearOnLogout, err := parseClearOnLogout(cfg.ClearOnLogout, mode)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.AdminHash) == "" {
		logger.Printf("admin password hash is not configured; login is disabled")
	}

	policy := requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto}
	secret, err := sessionSecret(cfg.SessionSecret, logger)
	if err != nil {
		return err
	}
	cookieCfg := scopecookie.Config{Secret: secret, Policy: policy}
	if mode == storage.ModeDurable {
		cookieCfg.Persistent = true
		cookieCfg.MaxAge = durableCookieAge
	}
	cookies, err := scopecookie.New(cookieCfg)
	if err != nil {
		return fmt.Errorf("init scope cookies: %w", err)
	}

	server, err := web.NewServer(ctx, web.Config{
		HTTPAddr: cfg.HTTPAddr,
		Scopes:   scopes,
		Gate: auth.Gate{
			Verifier:      auth.StaticVerifier{Username: cfg.AdminUsername, PasswordHash: cfg.AdminHash},
			Scopes:        scopes,
			ClearOnLogout: clearOnLogout,
		},
		Cookies:  cookies,
		Policy:   policy,
		IdleTTL:  cfg.SessionTTL,
		WipeIdle: mode == storage.ModeSession,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("init web server: %w", err)
	}
	defer server.Close()

	logger.Printf("storage mode=%s fixture=%s", mode, loader.Source())
	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve web: %w", err)
	}
	return nil
}

func openBackend(mode storage.Mode, dbPath string) (storage.Backend, error) {
	if mode == storage.ModeDurable {
		store, err := sqlite.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open durable storage: %w", err)
		}
		return store, nil
	}
	return memory.New(), nil
}

func parseClearOnLogout(value string, mode storage.Mode) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return mode == storage.ModeSession, nil
	default:
		wipe, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return false, errors.New("clear on logout must be auto, true or false")
		}
		return wipe, nil
	}
}

// sessionSecret returns the configured signing secret, or a random one that
// only lives as long as the process.
func sessionSecret(configured string, logger *log.Logger) ([]byte, error) {
	if configured = strings.TrimSpace(configured); configured != "" {
		if len(configured) < scopecookie.MinSecretBytes {
			return nil, fmt.Errorf("session secret must be at least %d bytes", scopecookie.MinSecretBytes)
		}
		return []byte(configured), nil
	}
	secret := make([]byte, scopecookie.MinSecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	logger.Printf("session secret is not configured; using a random secret, clients lose their scope on restart")
	return secret, nil
}
