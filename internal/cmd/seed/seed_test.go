package seed

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestParseConfigRequiresScope(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected error without -scope")
	}
}

func TestParseConfigFlags(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-scope", " demo ", "-reset"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.Scope != "demo" || !cfg.Reset {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Fixture != "embedded:" {
		t.Fatalf("Fixture = %q, want embedded:", cfg.Fixture)
	}
}

func TestParseConfigListFlag(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-list"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if !cfg.List {
		t.Fatal("expected list flag to be true")
	}
}

func TestRunSeedsAndListsScope(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "postshelf.db")
	cfg := Config{DBPath: dbPath, Fixture: "embedded:", Scope: "demo"}

	var out bytes.Buffer
	if err := Run(context.Background(), cfg, nil, &out, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := out.String(); !strings.Contains(got, "scope=demo posts=2 downloads=1 reset=false") {
		t.Fatalf("output = %q", got)
	}
	out.Reset()
	if err := Run(context.Background(), Config{DBPath: dbPath, List: true}, nil, &out, nil); err != nil {
		t.Fatalf("Run(list) error = %v", err)
	}
	if got := out.String(); !strings.Contains(got, "  demo") {
		t.Fatalf("list output after seeding = %q", got)
	}

	cfg.Reset = true
	out.Reset()
	if err := Run(context.Background(), cfg, nil, &out, nil); err != nil {
		t.Fatalf("Run(reset) error = %v", err)
	}
	if got := out.String(); !strings.Contains(got, "reset=true") {
		t.Fatalf("output = %q", got)
	}

	out.Reset()
	if err := Run(context.Background(), Config{DBPath: dbPath, List: true}, nil, &out, nil); err != nil {
		t.Fatalf("Run(list) error = %v", err)
	}
	if got := out.String(); !strings.Contains(got, "  demo") {
		t.Fatalf("list output = %q", got)
	}
}

func TestRunHashPassword(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := Run(context.Background(), Config{HashPassword: true}, strings.NewReader("senha123\n"), &out, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	hash := strings.TrimSpace(out.String())
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("senha123")); err != nil {
		t.Fatalf("hash does not match password: %v", err)
	}

	if err := Run(context.Background(), Config{HashPassword: true}, strings.NewReader("\n"), &out, nil); err == nil {
		t.Fatal("expected error for empty password")
	}
}
