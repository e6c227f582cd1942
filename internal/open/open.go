package open

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// launch starts the platform command; swapped out in tests.
var launch = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// URL hands a link to the desktop browser. Only http and https links are
// allowed through, so a hostile page title can never smuggle in a local path.
func URL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open URL with scheme %q (only http/https allowed)", u.Scheme)
	}

	switch runtime.GOOS {
	case "darwin":
		return launch("open", rawURL)
	case "windows":
		// rundll32 avoids shell interpretation of the URL
		return launch("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return launch("xdg-open", rawURL)
	}
}
