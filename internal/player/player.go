// Package player starts the external media player for a URL.
//
// A launch is fire-and-forget: success means the player process was created,
// not that the media opened. The player is never waited on, tracked or
// stopped by the caller.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"vlc-opener/internal/logging"
)

// ErrPlayerNotFound is returned when no player path is configured and none
// could be found in the usual install locations.
var ErrPlayerNotFound = errors.New("media player not found")

// LaunchError reports a failure to create the player process.
type LaunchError struct {
	Player string
	Err    error
}

func (e *LaunchError) Error() string {
	if e.Player == "" {
		return fmt.Sprintf("failed to start player: %v", e.Err)
	}
	return fmt.Sprintf("failed to start %s: %v", e.Player, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

type Options struct {
	// Player is the executable to run. Empty or a bare "vlc" means search the
	// usual install locations.
	Player string
	// MpvIPC, when set, is the JSON IPC endpoint of an mpv instance to hand
	// the URL to before starting a new player.
	MpvIPC string
	Logger *slog.Logger
}

// Launcher starts the configured player.
type Launcher struct {
	player string
	ipc    string
	logger *slog.Logger
}

func NewLauncher(opts Options) *Launcher {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Launcher{
		player: opts.Player,
		ipc:    opts.MpvIPC,
		logger: logger,
	}
}

// Resolve returns the executable the launcher would run.
func (l *Launcher) Resolve() (string, error) {
	path := fixPlayerPath(l.player)
	if path == "" {
		return "", ErrPlayerNotFound
	}
	return path, nil
}

// IsMpv reports whether path names the mpv executable. Only mpv understands
// --input-ipc-server.
func IsMpv(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return strings.TrimSuffix(base, ".exe") == "mpv"
}

// Launch starts the player with target as its only argument and returns as
// soon as the process exists. With MpvIPC configured it first offers target
// to a running mpv, and a newly started mpv is told to listen there.
func (l *Launcher) Launch(ctx context.Context, target string) error {
	if l.ipc != "" {
		err := enqueue(ctx, l.ipc, target)
		if err == nil {
			l.logger.Info("handed url to running player", "ipc", l.ipc, "target", target)
			return nil
		}
		l.logger.Debug("no running player on ipc endpoint", "ipc", l.ipc, "error", err)
	}

	path, err := l.Resolve()
	if err != nil {
		logging.PlayerLaunch(l.logger, l.player, target, err)
		return &LaunchError{Player: l.player, Err: err}
	}

	args := []string{target}
	if l.ipc != "" && IsMpv(path) {
		args = []string{"--input-ipc-server=" + l.ipc, target}
	}

	// Stdin, stdout and stderr stay nil so the player gets the null device
	// and never touches the native-messaging pipes.
	cmd := exec.Command(path, args...)
	detach(cmd)
	if err := cmd.Start(); err != nil {
		logging.PlayerLaunch(l.logger, path, target, err)
		return &LaunchError{Player: path, Err: err}
	}

	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		l.logger.Debug("release player process", "pid", pid, "error", err)
	}
	logging.PlayerLaunch(l.logger, path, target, nil, "pid", pid)
	return nil
}
