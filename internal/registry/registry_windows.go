//go:build windows

package registry

import (
	"errors"
	"fmt"

	winreg "golang.org/x/sys/windows/registry"
)

func keyPath(browser Browser, name string) (string, error) {
	var base string
	switch browser {
	case Chrome:
		base = `Software\Google\Chrome\NativeMessagingHosts`
	case Chromium:
		base = `Software\Chromium\NativeMessagingHosts`
	case Edge:
		base = `Software\Microsoft\Edge\NativeMessagingHosts`
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBrowser, browser)
	}
	return base + `\` + name, nil
}

func register(browser Browser, name, manifestPath string) (string, error) {
	path, err := keyPath(browser, name)
	if err != nil {
		return "", err
	}
	key, _, err := winreg.CreateKey(winreg.CURRENT_USER, path, winreg.SET_VALUE)
	if err != nil {
		return "", fmt.Errorf("create HKCU\\%s: %w", path, err)
	}
	defer key.Close()

	if err := key.SetStringValue("", manifestPath); err != nil {
		return "", fmt.Errorf("set HKCU\\%s: %w", path, err)
	}
	return `HKCU\` + path, nil
}

func unregister(browser Browser, name string) error {
	path, err := keyPath(browser, name)
	if err != nil {
		return err
	}
	if err := winreg.DeleteKey(winreg.CURRENT_USER, path); err != nil && !errors.Is(err, winreg.ErrNotExist) {
		return fmt.Errorf("delete HKCU\\%s: %w", path, err)
	}
	return nil
}

func lookup(browser Browser, name string) (string, error) {
	path, err := keyPath(browser, name)
	if err != nil {
		return "", err
	}
	key, err := winreg.OpenKey(winreg.CURRENT_USER, path, winreg.QUERY_VALUE)
	if errors.Is(err, winreg.ErrNotExist) {
		return "", ErrNotRegistered
	}
	if err != nil {
		return "", fmt.Errorf("open HKCU\\%s: %w", path, err)
	}
	defer key.Close()

	value, _, err := key.GetStringValue("")
	if errors.Is(err, winreg.ErrNotExist) {
		return "", ErrNotRegistered
	}
	if err != nil {
		return "", fmt.Errorf("read HKCU\\%s: %w", path, err)
	}
	return value, nil
}
