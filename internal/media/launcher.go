package media

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// Launcher opens event links in an external application, the system
// browser unless a command is configured.
type Launcher struct {
	opener []string
}

// startCommand is replaced in tests.
var startCommand = func(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	// Start GUI applications detached
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

// NewLauncher uses command (split on whitespace) when set, and the
// platform's default opener otherwise.
func NewLauncher(command string) *Launcher {
	opener := strings.Fields(command)
	if len(opener) == 0 {
		opener = defaultOpener(runtime.GOOS)
	}
	return &Launcher{opener: opener}
}

func defaultOpener(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	default:
		return []string{"xdg-open"}
	}
}

// Open starts the opener on rawURL. Only absolute http(s) links are opened.
func (l *Launcher) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("refusing to open %q: not an http(s) link", rawURL)
	}

	args := append(append([]string(nil), l.opener[1:]...), u.String())
	if err := startCommand(l.opener[0], args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.opener[0], err)
	}
	return nil
}
