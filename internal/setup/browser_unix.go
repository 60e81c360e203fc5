//go:build !windows

package setup

import (
	"os"
	"os/exec"
	"runtime"
)

func findChrome() string {
	if runtime.GOOS == "darwin" {
		bundle := "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
		if _, err := os.Stat(bundle); err == nil {
			return bundle
		}
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func fileManager() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}
