package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Server:    "zabbix.example.com",
				Port:      10052,
				Host:      "web-01",
				Timeout:   "3s",
				Interval:  "1s",
				Retries:   4,
				KeepAlive: &trueVal,
				Verbose:   &trueVal,
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Server:    "zabbix.example.com",
				Port:      10052,
				Host:      "web-01",
				Timeout:   3 * time.Second,
				Interval:  time.Second,
				Retries:   4,
				KeepAlive: true,
				Verbose:   true,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				Server: "file.example.com",
				Port:   10052,
			},
			changed: map[string]bool{"zabbix-server": true},
			initial: Config{
				Server: "flag.example.com",
				Port:   10051,
			},
			expected: Config{
				Server: "flag.example.com", // unchanged because flag was set
				Port:   10052,
			},
		},
		{
			name:       "keeps defaults for unset values",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    DefaultConfig(),
			expected:   DefaultConfig(),
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{Timeout: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	tomlContent := `
server = "zabbix.example.com"
port = 10052
host = "web-01"
timeout = "3s"
retries = 2
keepalive = true
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.Server != "zabbix.example.com" {
		t.Errorf("Server = %v, want zabbix.example.com", fc.Server)
	}
	if fc.Port != 10052 {
		t.Errorf("Port = %v, want 10052", fc.Port)
	}
	if fc.Timeout != "3s" {
		t.Errorf("Timeout = %v, want 3s", fc.Timeout)
	}
	if fc.KeepAlive == nil || !*fc.KeepAlive {
		t.Errorf("KeepAlive = %v, want true", fc.KeepAlive)
	}
	if fc.Verbose != nil {
		t.Errorf("Verbose = %v, want nil", fc.Verbose)
	}
}

func TestLoadFileConfigErrors(t *testing.T) {
	if _, err := LoadFileConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadFileConfig() expected error for a missing file")
	}

	configPath := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(configPath, []byte("server = [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFileConfig(configPath); err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if FileExists(path) {
		t.Error("FileExists() = true before creation")
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Error("FileExists() = false after creation")
	}
}
