//go:build windows

package player

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

// detach starts the player in its own process group without a console, so
// it outlives the host and does not flash a console window.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.DETACHED_PROCESS | windows.CREATE_NEW_PROCESS_GROUP,
	}
}

// fixPlayerPath maps an empty or bare player name to the installed VLC.
func fixPlayerPath(path string) string {
	switch strings.ToLower(path) {
	case "", "vlc", "vlc.exe":
		if found := FindVLC(); found != "" {
			return found
		}
		if path == "" {
			return ""
		}
		return "vlc.exe"
	}
	return path
}

// FindVLC looks for vlc.exe in the usual installation locations and returns
// "" when it is not installed.
func FindVLC() string {
	for _, pf := range programFiles() {
		candidate := filepath.Join(pf, "VideoLAN", "VLC", "vlc.exe")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	// Scoop
	if home := os.Getenv("USERPROFILE"); home != "" {
		scoopPath := filepath.Join(home, "scoop", "apps", "vlc", "current", "vlc.exe")
		if _, err := os.Stat(scoopPath); err == nil {
			return scoopPath
		}
	}

	// PATH, skipping WindowsApps store stubs
	if path, err := exec.LookPath("vlc.exe"); err == nil {
		if !strings.Contains(strings.ToLower(path), "windowsapps") {
			return path
		}
	}

	return ""
}

func programFiles() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, dir := range []string{
		os.Getenv("ProgramFiles"),
		os.Getenv("ProgramFiles(x86)"),
		os.Getenv("ProgramW6432"),
		`C:\Program Files`,
		`C:\Program Files (x86)`,
	} {
		if dir == "" || seen[strings.ToLower(dir)] {
			continue
		}
		seen[strings.ToLower(dir)] = true
		dirs = append(dirs, dir)
	}
	return dirs
}
