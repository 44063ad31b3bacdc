// Package browser opens remote pages in the system web browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"spacesync/internal/ports"
)

// Opener implements ports.BrowserOpener
type Opener struct {
	host string // when set, only URLs on this host are opened
	goos string
	run  func(*exec.Cmd) error
}

// Ensure Opener implements BrowserOpener
var _ ports.BrowserOpener = (*Opener)(nil)

// NewOpener creates an opener restricted to the host of baseURL. An empty baseURL allows any host.
func NewOpener(baseURL string) *Opener {
	o := &Opener{goos: runtime.GOOS, run: (*exec.Cmd).Run}
	if u, err := url.Parse(baseURL); err == nil {
		o.host = strings.ToLower(u.Host)
	}
	return o
}

// OpenURL opens a page URL in the default browser
func (o *Opener) OpenURL(rawURL string) error {
	cmd, err := o.Command(rawURL)
	if err != nil {
		return err
	}
	return o.run(cmd)
}

// Command validates the URL and returns the platform command that opens it
func (o *Opener) Command(rawURL string) (*exec.Cmd, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", rawURL, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("refusing to open %q: not an http(s) URL", rawURL)
	}
	if o.host != "" && !strings.EqualFold(u.Host, o.host) {
		return nil, fmt.Errorf("refusing to open %q: host is not %s", rawURL, o.host)
	}

	switch o.goos {
	case "darwin":
		return exec.Command("open", u.String()), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", u.String()), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", u.String()), nil
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", o.goos)
	}
}
