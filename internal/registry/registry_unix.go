//go:build !windows

package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// hostsDir returns the per-user directory browser reads host manifests from.
func hostsDir(browser Browser) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if runtime.GOOS == "darwin" {
		support := filepath.Join(home, "Library", "Application Support")
		switch browser {
		case Chrome:
			return filepath.Join(support, "Google", "Chrome", "NativeMessagingHosts"), nil
		case Chromium:
			return filepath.Join(support, "Chromium", "NativeMessagingHosts"), nil
		case Edge:
			return filepath.Join(support, "Microsoft Edge", "NativeMessagingHosts"), nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownBrowser, browser)
	}

	config := filepath.Join(home, ".config")
	switch browser {
	case Chrome:
		return filepath.Join(config, "google-chrome", "NativeMessagingHosts"), nil
	case Chromium:
		return filepath.Join(config, "chromium", "NativeMessagingHosts"), nil
	case Edge:
		return filepath.Join(config, "microsoft-edge", "NativeMessagingHosts"), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBrowser, browser)
}

func register(browser Browser, name, manifestPath string) (string, error) {
	dir, err := hostsDir(browser)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return "", fmt.Errorf("read manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	dest := filepath.Join(dir, name+".json")
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	return dest, nil
}

func unregister(browser Browser, name string) error {
	dir, err := hostsDir(browser)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(dir, name+".json")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func lookup(browser Browser, name string) (string, error) {
	dir, err := hostsDir(browser)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".json")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", ErrNotRegistered
	} else if err != nil {
		return "", err
	}
	return path, nil
}
