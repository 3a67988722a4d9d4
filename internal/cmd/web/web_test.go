package web

import (
	"flag"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/postshelf/internal/services/content/storage"
	"github.com/louisbranch/postshelf/internal/services/content/storage/memory"
	"github.com/louisbranch/postshelf/internal/services/content/storage/sqlite"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "localhost:8080" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "localhost:8080")
	}
	if cfg.Storage != "session" {
		t.Fatalf("Storage = %q, want %q", cfg.Storage, "session")
	}
	if cfg.Fixture != "embedded:" {
		t.Fatalf("Fixture = %q, want %q", cfg.Fixture, "embedded:")
	}
	if cfg.FixtureTimeout != 10*time.Second {
		t.Fatalf("FixtureTimeout = %s, want 10s", cfg.FixtureTimeout)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("SessionTTL = %s, want 30m", cfg.SessionTTL)
	}
	if cfg.AdminUsername != "admin" {
		t.Fatalf("AdminUsername = %q, want %q", cfg.AdminUsername, "admin")
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("POSTSHELF_HTTP_ADDR", "0.0.0.0:9000")
	t.Setenv("POSTSHELF_STORAGE", "durable")

	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", "127.0.0.1:7000"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:7000" {
		t.Fatalf("HTTPAddr = %q, want flag value", cfg.HTTPAddr)
	}
	if cfg.Storage != "durable" {
		t.Fatalf("Storage = %q, want env value", cfg.Storage)
	}
}

func TestParseConfigRejectsInvalidValues(t *testing.T) {
	for name, env := range map[string][2]string{
		"storage":         {"POSTSHELF_STORAGE", "cloud"},
		"clear on logout": {"POSTSHELF_CLEAR_ON_LOGOUT", "sometimes"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env[0], env[1])
			fs := flag.NewFlagSet("web", flag.ContinueOnError)
			if _, err := ParseConfig(fs, nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseClearOnLogout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		mode  storage.Mode
		want  bool
	}{
		{value: "auto", mode: storage.ModeSession, want: true},
		{value: "", mode: storage.ModeDurable, want: false},
		{value: "true", mode: storage.ModeDurable, want: true},
		{value: "false", mode: storage.ModeSession, want: false},
	}
	for _, tc := range tests {
		got, err := parseClearOnLogout(tc.value, tc.mode)
		if err != nil {
			t.Fatalf("parseClearOnLogout(%q) error = %v", tc.value, err)
		}
		if got != tc.want {
			t.Fatalf("parseClearOnLogout(%q, %s) = %t, want %t", tc.value, tc.mode, got, tc.want)
		}
	}
}

func TestSessionSecret(t *testing.T) {
	t.Parallel()
	logger := log.New(io.Discard, "", 0)

	if _, err := sessionSecret("short", logger); err == nil {
		t.Fatal("expected short secret to fail")
	}
	configured := strings.Repeat("s", 40)
	got, err := sessionSecret(configured, logger)
	if err != nil {
		t.Fatalf("sessionSecret() error = %v", err)
	}
	if string(got) != configured {
		t.Fatal("expected configured secret")
	}
	first, err := sessionSecret("", logger)
	if err != nil {
		t.Fatalf("sessionSecret() error = %v", err)
	}
	second, _ := sessionSecret("", logger)
	if len(first) != 32 || string(first) == string(second) {
		t.Fatal("expected distinct random secrets")
	}
}

func TestOpenBackend(t *testing.T) {
	t.Parallel()

	session, err := openBackend(storage.ModeSession, "")
	if err != nil {
		t.Fatalf("openBackend(session) error = %v", err)
	}
	if _, ok := session.(*memory.Backend); !ok {
		t.Fatalf("session backend = %T, want *memory.Backend", session)
	}

	durable, err := openBackend(storage.ModeDurable, t.TempDir()+"/postshelf.db")
	if err != nil {
		t.Fatalf("openBackend(durable) error = %v", err)
	}
	defer durable.Close()
	if _, ok := durable.(*sqlite.Store); !ok {
		t.Fatalf("durable backend = %T, want *sqlite.Store", durable)
	}
}
