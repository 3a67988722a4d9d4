// Package seed parses seed command flags and loads the fixture into durable
// storage scopes.
package seed

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/postshelf/internal/platform/cmd"
	"github.com/louisbranch/postshelf/internal/services/content/auth"
	"github.com/louisbranch/postshelf/internal/services/content/collection"
	contentseed "github.com/louisbranch/postshelf/internal/services/content/seed"
	"github.com/louisbranch/postshelf/internal/services/content/storage/sqlite"
)

// Config holds seed command configuration.
type Config struct {
	DBPath         string        `env:"DB_PATH" envDefault:"data/postshelf.db"`
	Fixture        string        `env:"FIXTURE" envDefault:"embedded:"`
	FixtureTimeout time.Duration `env:"FIXTURE_TIMEOUT" envDefault:"10s"`
	Scope          string
	Reset          bool
	List           bool
	HashPassword   bool
	Verbose        bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	err := entrypoint.ParseConfigFromArgs(&cfg, fs, args, func(fs *flag.FlagSet, cfg *Config) {
		fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite path for durable storage")
		fs.StringVar(&cfg.Fixture, "fixture", cfg.Fixture, "Seed fixture path, URL, or embedded:")
		fs.DurationVar(&cfg.FixtureTimeout, "fixture-timeout", cfg.FixtureTimeout, "Seed fixture load timeout")
		fs.StringVar(&cfg.Scope, "scope", "", "scope id to seed")
		fs.BoolVar(&cfg.Reset, "reset", false, "replace existing collections with the fixture")
		fs.BoolVar(&cfg.List, "list", false, "list scopes stored in the database")
		fs.BoolVar(&cfg.HashPassword, "hash-password", false, "read a password from stdin and print its bcrypt hash")
		fs.BoolVar(&cfg.Verbose, "v", false, "verbose output")
	})
	if err != nil {
		return Config{}, err
	}
	cfg.Scope = strings.TrimSpace(cfg.Scope)
	if !cfg.List && !cfg.HashPassword && cfg.Scope == "" {
		return Config{}, errors.New("scope is required (use -scope)")
	}
	return cfg, nil
}

// Run executes the seed command.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer, errOut io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSeed, func(ctx context.Context) error {
		return run(ctx, cfg, in, out, errOut)
	})
}

func run(ctx context.Context, cfg Config, in io.Reader, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	if cfg.HashPassword {
		return hashPassword(in, out)
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.Verbose {
		logger = log.New(errOut, "[SEED] ", log.LstdFlags)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open durable storage: %w", err)
	}
	defer store.Close()

	if cfg.List {
		scopes, err := store.Scopes(ctx)
		if err != nil {
			return err
		}
		if len(scopes) == 0 {
			fmt.Fprintln(out, "No scopes stored.")
			return nil
		}
		fmt.Fprintln(out, "Stored scopes:")
		for _, scope := range scopes {
			fmt.Fprintf(out, "  %s\n", scope)
		}
		return nil
	}

	loader, err := contentseed.NewLoader(contentseed.Config{
		Source:  cfg.Fixture,
		Timeout: cfg.FixtureTimeout,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("init seed loader: %w", err)
	}
	kv, err := store.Scope(cfg.Scope)
	if err != nil {
		return err
	}
	content, err := collection.Open(ctx, kv, loader, collection.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("initialize scope: %w", err)
	}
	if cfg.Reset {
		if err := content.Reseed(ctx); err != nil {
			return fmt.Errorf("reset scope: %w", err)
		}
	} else if err := content.Persist(ctx); err != nil {
		return fmt.Errorf("persist scope: %w", err)
	}

	fmt.Fprintf(out, "scope=%s posts=%d downloads=%d reset=%t\n",
		cfg.Scope,
		len(collection.GetAll(content, collection.Posts)),
		len(collection.GetAll(content, collection.Downloads)),
		cfg.Reset,
	)
	return nil
}

func hashPassword(in io.Reader, out io.Writer) error {
	if in == nil {
		return errors.New("password input is required")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("password is empty")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hash)
	return nil
}
