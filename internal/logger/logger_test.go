package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Stderr(t *testing.T) {
	log, closer, err := New(Config{Level: "debug"})
	if err != nil {
		t.Fatal(err)
	}
	if log == nil {
		t.Fatal("nil logger")
	}
	if closer != nil {
		t.Error("expected no closer for stderr logging")
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appmcpd.log")
	log, closer, err := New(Config{File: path})
	if err != nil {
		t.Fatal(err)
	}
	if closer == nil {
		t.Fatal("expected closer for file logging")
	}
	defer closer.Close()

	log.Info("handle minted", "handle", "app_test", "pid", 42)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "handle minted") {
		t.Errorf("log file missing entry: %q", data)
	}
	if !strings.Contains(string(data), "app_test") {
		t.Errorf("log file missing attribute: %q", data)
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"", "info", "debug", "warn", "warning", "error", "DEBUG"} {
		if _, err := parseLevel(s); err != nil {
			t.Errorf("parseLevel(%q) unexpected error: %v", s, err)
		}
	}
}
