package permission

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// SystemSettings opens the OS privacy settings with the platform launcher.
type SystemSettings struct {
	// Command overrides the launcher (split on spaces). Empty uses the platform default.
	Command string
	// lookPath and run are swapped in tests.
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

func NewSystemSettings(command string) *SystemSettings {
	return &SystemSettings{
		Command:  command,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			_, err := startAndReap(exec.CommandContext(ctx, name, args...))
			return err
		},
	}
}

// startAndReap starts cmd without waiting for it and collects its exit in the
// background. The channel receives the Wait result.
func startAndReap(cmd *exec.Cmd) (<-chan error, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	return done, nil
}

func (s *SystemSettings) argv() []string {
	if c := strings.Fields(s.Command); len(c) > 0 {
		return c
	}
	switch runtime.GOOS {
	case "darwin":
		return []string{"open", "x-apple.systempreferences:com.apple.preference.security?Privacy_LocationServices"}
	case "windows":
		return []string{"cmd", "/c", "start", "ms-settings:privacy-location"}
	default:
		return []string{"xdg-open", "settings://privacy"}
	}
}

// Available reports whether the launcher binary exists.
func (s *SystemSettings) Available() bool {
	argv := s.argv()
	_, err := s.lookPath(argv[0])
	return err == nil
}

func (s *SystemSettings) OpenSettings(ctx context.Context) error {
	argv := s.argv()
	if err := s.run(ctx, argv[0], argv[1:]...); err != nil {
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}
