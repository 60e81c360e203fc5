//go:build !windows

package player

import (
	"os"
	"os/exec"
	"runtime"
	"syscall"
)

// detach puts the player in a new session so it survives the host exiting.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// fixPlayerPath maps an empty player to the installed VLC.
func fixPlayerPath(path string) string {
	if path == "" {
		return FindVLC()
	}
	return path
}

// FindVLC looks for vlc on PATH and, on macOS, in the application bundle.
func FindVLC() string {
	if path, err := exec.LookPath("vlc"); err == nil {
		return path
	}
	if runtime.GOOS == "darwin" {
		bundle := "/Applications/VLC.app/Contents/MacOS/VLC"
		if _, err := os.Stat(bundle); err == nil {
			return bundle
		}
	}
	return ""
}
