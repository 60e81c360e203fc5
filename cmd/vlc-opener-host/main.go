// Command vlc-opener-host is the native-messaging host started by the
// browser. It reads one request from stdin, starts the media player with the
// requested URL and writes one response to stdout.
//
// A success response means the player process was started. The host does
// not wait for the player and cannot tell whether the media actually played.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"vlc-opener/internal/bridge"
	"vlc-opener/internal/config"
	"vlc-opener/internal/logging"
	"vlc-opener/internal/player"
)

var version = "dev"

// CLI accepts whatever the browser passes on the command line. Chrome passes
// the calling origin (plus --parent-window on Windows); Firefox passes the
// manifest path and the extension id.
type CLI struct {
	Config       string           `name:"config" help:"Path to config.json (default: next to the executable)" type:"path"`
	ParentWindow int64            `name:"parent-window" help:"Window handle of the calling browser" hidden:""`
	Version      kong.VersionFlag `name:"version" help:"Print version information and exit"`
	Caller       []string         `arg:"" optional:"" help:"Caller details passed by the browser"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("vlc-opener-host"),
		kong.Description("Native messaging host that opens media URLs in an external player."),
		kong.Vars{"version": version},
	)
	os.Exit(run(context.Background(), cli, os.Stdin, os.Stdout, os.Stderr))
}

// run serves one request and returns the process exit code. stdout carries
// only the protocol frame; diagnostics go to stderr or the log file.
func run(ctx context.Context, cli CLI, stdin io.Reader, stdout, stderr io.Writer) int {
	cfgPath := cli.Config
	if cfgPath == "" {
		var err error
		if cfgPath, err = config.DefaultPath(); err != nil {
			fmt.Fprintf(stderr, "vlc-opener-host: %v\n", err)
			return 1
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "vlc-opener-host: %v\n", err)
		return 1
	}

	logOut := stderr
	if cfg.LogFile != "" {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			fmt.Fprintf(stderr, "vlc-opener-host: %v\n", err)
		} else {
			defer f.Close()
			logOut = f
		}
	}
	logger := logging.New(logOut, logging.ParseLevel(cfg.LogLevel), logging.ParseFormat(cfg.LogFormat)).
		With("invocation", uuid.NewString())
	logger.Debug("host started",
		"version", version,
		"config", cfgPath,
		"caller", cli.Caller,
		"parent_window", cli.ParentWindow)

	launcher := player.NewLauncher(player.Options{
		Player: cfg.Player,
		MpvIPC: cfg.MpvIPC,
		Logger: logger,
	})
	if err := bridge.New(launcher, logger).Serve(ctx, stdin, stdout); err != nil {
		logger.Error("request failed", "error", err)
		return 1
	}
	return 0
}
