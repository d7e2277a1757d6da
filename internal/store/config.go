package store

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type GlobalConfig struct {
	CurrentWorkspace string `yaml:"current_workspace,omitempty"`

	// Email identifies the signed-in account; it scopes admin checks on policies.
	Email string `yaml:"email,omitempty"`

	// Locale drives translations and tag sorting (BCP 47, e.g. "en", "es").
	Locale string `yaml:"locale,omitempty"`

	Remote      RemoteConfig      `yaml:"remote,omitempty"`
	Log         LogConfig         `yaml:"log,omitempty"`
	Permissions PermissionsConfig `yaml:"permissions,omitempty"`

	// TUI holds optional user preferences for the interactive TUI.
	TUI *TUIConfig `yaml:"tui,omitempty"`
}

type RemoteConfig struct {
	// Endpoint is the base URL of the expense API. Empty means loopback (offline-first, every write acked locally).
	Endpoint string `yaml:"endpoint,omitempty"`
	// TimeoutSeconds bounds a single remote call.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

type LogConfig struct {
	// Level is one of debug|info|warn|error.
	Level string `yaml:"level,omitempty"`
	// Format is text or json.
	Format string `yaml:"format,omitempty"`
}

type PermissionsConfig struct {
	// Location controls how the simulated device answers a location permission request:
	// grant|deny|block|ask. "ask" prompts on the terminal.
	Location string `yaml:"location,omitempty"`
	// Settings overrides the command used to open the OS privacy settings.
	Settings string `yaml:"settings,omitempty"`
	// Latitude and Longitude are the simulated device location.
	Latitude  float64 `yaml:"latitude,omitempty"`
	Longitude float64 `yaml:"longitude,omitempty"`
}

type TUIConfig struct {
	// Profile is the appearance profile id ("default", "contrast").
	Profile string `yaml:"profile,omitempty"`
	// NarrowWidth is the column count below which the tags screen uses the narrow layout.
	NarrowWidth int `yaml:"narrow_width,omitempty"`
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.expense).
	if v := strings.TrimSpace(os.Getenv("EXPENSE_HOME")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".expense"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	// CLI and TUI may both write the config; a unique temp name + rename keeps it whole.
	return atomicWriteFile(dir, "config.yaml.*.tmp", path, b, 0o600)
}

func NormalizeWorkspaceName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("workspace name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errors.New("workspace name must be a plain directory name")
	}
	return name, nil
}

func WorkspaceDir(name string) (string, error) {
	name, err := NormalizeWorkspaceName(name)
	if err != nil {
		return "", err
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "workspaces", name), nil
}

func ListWorkspaces() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	out := []string{}
	ents, err := os.ReadDir(filepath.Join(dir, "workspaces"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, err
	}
	for _, e := range ents {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
