package config

import (
	"testing"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
)

func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()

	var cli struct {
		Config
	}
	parser, err := kong.New(&cli, kong.Name("neotron"), kong.Exit(func(int) {}))
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	_, err = parser.Parse(args)
	return &cli.Config, err
}

func TestDefaults(t *testing.T) {
	cfg, err := parse(t)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Rows != 25 || cfg.Cols != 80 {
		t.Errorf("expected 25x80, got %dx%d", cfg.Rows, cfg.Cols)
	}
	if cfg.Baud != 115200 {
		t.Errorf("expected baud 115200, got %d", cfg.Baud)
	}
	if !cfg.Audio {
		t.Error("expected audio enabled by default")
	}
	if cfg.Level() != logrus.InfoLevel {
		t.Errorf("expected info level, got %v", cfg.Level())
	}
	if cfg.SystemStartAddr() != nil {
		t.Error("expected no system start")
	}
	if cfg.Mode().String() != "80x25" {
		t.Errorf("expected mode 80x25, got %s", cfg.Mode())
	}
}

func TestFlags(t *testing.T) {
	cfg, err := parse(t, "--rows", "50", "--no-audio", "--log-level", "debug", "--system-start", "0x4000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Rows != 50 {
		t.Errorf("expected 50 rows, got %d", cfg.Rows)
	}
	if cfg.Audio {
		t.Error("expected audio disabled")
	}
	if cfg.Level() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %v", cfg.Level())
	}
	if addr := cfg.SystemStartAddr(); addr == nil || *addr != 0x4000 {
		t.Errorf("expected system start 0x4000, got %v", addr)
	}
}

func TestEnvironment(t *testing.T) {
	t.Setenv("NEOTRON_COLS", "40")
	t.Setenv("NEOTRON_LISTEN", ":9000")

	cfg, err := parse(t)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Cols != 40 {
		t.Errorf("expected 40 cols, got %d", cfg.Cols)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("expected listen ':9000', got %q", cfg.Listen)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero rows", []string{"--rows", "0"}},
		{"too many cols", []string{"--cols", "300"}},
		{"bad audio rate", []string{"--audio-rate", "100"}},
		{"bad log level", []string{"--log-level", "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parse(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
