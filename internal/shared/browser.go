package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// browserCommand returns the launcher for goos, or false when there is none.
func browserCommand(goos, target string) (string, []string, bool) {
	switch goos {
	case "darwin":
		return "open", []string{target}, true
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{target}, true
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, true
	}
	return "", nil, false
}

// OpenBrowser shows an http(s) page such as the backend's token page or the
// remote scanner pairing page in the system browser.
func OpenBrowser(target string) error {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: refusing to open %q", ErrInvalidInput, target)
	}

	name, args, ok := browserCommand(runtime.GOOS, u.String())
	if !ok {
		return fmt.Errorf("%w: cannot open browser on %s", ErrNotImplemented, runtime.GOOS)
	}
	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
