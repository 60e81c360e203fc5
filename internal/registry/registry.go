// Package registry registers a native-messaging host manifest with a
// browser so it can find the host by name.
//
// On Windows the browser looks the manifest up through a per-user registry
// key. Elsewhere it reads the manifest from a fixed per-user directory, so
// registering copies the manifest there.
package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Browser identifies a Chromium-based browser.
type Browser string

const (
	Chrome   Browser = "chrome"
	Chromium Browser = "chromium"
	Edge     Browser = "edge"
)

// ErrNotRegistered is returned by Lookup when the host is not registered.
var ErrNotRegistered = errors.New("native messaging host not registered")

// ErrUnknownBrowser is returned for a browser this package cannot register with.
var ErrUnknownBrowser = errors.New("unknown browser")

// Browsers lists every supported browser.
func Browsers() []Browser {
	return []Browser{Chrome, Chromium, Edge}
}

// ParseBrowser maps a name such as "Chrome" to a Browser.
func ParseBrowser(name string) (Browser, error) {
	b := Browser(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Browsers() {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBrowser, name)
}

// Register makes manifestPath the manifest for host name in browser and
// returns where the registration was recorded.
func Register(browser Browser, name, manifestPath string) (string, error) {
	return register(browser, name, manifestPath)
}

// Unregister removes the registration of host name. Removing a missing
// registration is not an error.
func Unregister(browser Browser, name string) error {
	return unregister(browser, name)
}

// Lookup returns the manifest path registered for host name.
func Lookup(browser Browser, name string) (string, error) {
	return lookup(browser, name)
}
