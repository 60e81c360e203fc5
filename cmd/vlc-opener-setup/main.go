// Command vlc-opener-setup installs and registers the VLC Opener native
// messaging host for the current user.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/alecthomas/kong"

	"vlc-opener/internal/logging"
	"vlc-opener/internal/manifest"
	"vlc-opener/internal/player"
	"vlc-opener/internal/registry"
	"vlc-opener/internal/setup"
)

var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Root     string `name:"root" help:"Installation directory (default: per-user app data)" type:"path"`
	HostName string `name:"host-name" help:"Native messaging host name" default:"com.vlc.opener"`
	Verbose  bool   `name:"verbose" short:"v" help:"Log progress to stderr"`

	out io.Writer `kong:"-"`
}

// CLI defines the command-line interface for vlc-opener-setup.
type CLI struct {
	Globals

	Detect         DetectCmd         `cmd:"" help:"Check for VLC and Chrome"`
	Install        InstallCmd        `cmd:"" default:"withargs" help:"Install and register the native messaging host (default command)"`
	SetExtensionID SetExtensionIDCmd `cmd:"" name:"set-extension-id" help:"Allow a loaded extension to call the host"`
	Status         StatusCmd         `cmd:"" help:"Show installation and registration state"`
	Uninstall      UninstallCmd      `cmd:"" help:"Remove registrations and installed files"`
	Version        kong.VersionFlag  `name:"version" help:"Print version information and exit"`
}

func (g *Globals) installer(opts setup.Options) (*setup.Installer, error) {
	opts.Root = g.Root
	opts.HostName = g.HostName
	opts.Logger = logging.GetLogger()
	if !g.Verbose {
		opts.Logger = logging.Nop()
	}
	return setup.New(opts)
}

func parseBrowsers(names []string) ([]registry.Browser, error) {
	var browsers []registry.Browser
	for _, name := range names {
		b, err := registry.ParseBrowser(name)
		if err != nil {
			return nil, err
		}
		browsers = append(browsers, b)
	}
	return browsers, nil
}

// DetectCmd reports which prerequisites were found.
type DetectCmd struct{}

func (c *DetectCmd) Run(g *Globals) error {
	pre := setup.Detect()
	fmt.Fprintf(g.out, "VLC Media Player: %s\n", found(pre.Player))
	fmt.Fprintf(g.out, "Google Chrome:    %s\n", found(pre.Chrome))
	if pre.Player == "" {
		return setup.ErrNoPlayer
	}
	return nil
}

func found(path string) string {
	if path == "" {
		return "not found"
	}
	return "found: " + path
}

// InstallCmd installs the host.
type InstallCmd struct {
	Player      string   `name:"player" help:"Path to the media player (default: detected VLC)" type:"existingfile"`
	Host        string   `name:"host" help:"Host executable to install (default: next to this program)" type:"existingfile"`
	ExtensionID string   `name:"extension-id" help:"ID of the loaded extension allowed to call the host"`
	Browser     []string `name:"browser" help:"Browsers to register with (chrome, chromium, edge)" default:"chrome"`
	MpvIPC      bool     `name:"mpv-ipc" help:"Hand URLs to a running mpv over its JSON IPC endpoint (needs --player pointing at mpv)"`
	OpenBrowser bool     `name:"open-browser" help:"Open the extensions page and the extension folder afterwards"`
}

func (c *InstallCmd) Run(g *Globals) error {
	pre := setup.Detect()
	logging.Info("detected prerequisites", "player", pre.Player, "chrome", pre.Chrome)
	playerPath := c.Player
	if playerPath == "" {
		playerPath = pre.Player
	}
	hostPath := c.Host
	if hostPath == "" {
		var err error
		if hostPath, err = setup.DefaultHostExecutable(); err != nil {
			return err
		}
	}
	logging.Debug("installing host executable", "source", hostPath)
	browsers, err := parseBrowsers(c.Browser)
	if err != nil {
		return err
	}

	opts := setup.Options{
		Player:         playerPath,
		HostExecutable: hostPath,
		ExtensionID:    c.ExtensionID,
		Browsers:       browsers,
	}
	if c.MpvIPC {
		opts.MpvIPC = player.DefaultIPCPath
	}
	inst, err := g.installer(opts)
	if err != nil {
		return err
	}

	res, err := inst.Install()
	if err != nil {
		return err
	}

	fmt.Fprintf(g.out, "Installed to %s\n", res.Paths.Root)
	fmt.Fprintf(g.out, "Player:       %s\n", playerPath)
	fmt.Fprintf(g.out, "Manifest:     %s\n", res.ManifestPath)
	printRegistrations(g.out, res.Registrations)

	if len(res.Manifest.AllowedOrigins) == 0 {
		fmt.Fprintf(g.out, "\nNext steps:\n")
		fmt.Fprintf(g.out, "  1. Open chrome://extensions and enable Developer Mode\n")
		fmt.Fprintf(g.out, "  2. Click \"Load unpacked\" and select %s\n", res.Paths.Extension)
		fmt.Fprintf(g.out, "  3. Run: vlc-opener-setup set-extension-id <extension id>\n")
	}

	if c.OpenBrowser {
		ctx := context.Background()
		if pre.Chrome != "" {
			if err := setup.OpenExtensionsPage(ctx, pre.Chrome); err != nil {
				logging.Warn("could not open extensions page", "error", err)
			}
		}
		if err := setup.OpenFolder(ctx, res.Paths.Extension); err != nil {
			logging.Warn("could not open extension folder", "error", err)
		}
	}
	return nil
}

// SetExtensionIDCmd applies the extension id to the host manifest.
type SetExtensionIDCmd struct {
	ID      string   `arg:"" help:"Extension ID shown on chrome://extensions"`
	Browser []string `name:"browser" help:"Browsers to re-register with" default:"chrome"`
}

func (c *SetExtensionIDCmd) Run(g *Globals) error {
	browsers, err := parseBrowsers(c.Browser)
	if err != nil {
		return err
	}
	inst, err := g.installer(setup.Options{Browsers: browsers})
	if err != nil {
		return err
	}
	m, err := inst.SetExtensionID(c.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.out, "Allowed origins: %v\n", m.AllowedOrigins)
	fmt.Fprintf(g.out, "You can now right-click media links in the browser and select \"Open in VLC\".\n")
	return nil
}

// StatusCmd prints what is installed.
type StatusCmd struct{}

func (c *StatusCmd) Run(g *Globals) error {
	inst, err := g.installer(setup.Options{})
	if err != nil {
		return err
	}
	st, err := inst.Status()
	if err != nil {
		return err
	}
	if !st.Installed() {
		fmt.Fprintf(g.out, "Not installed in %s\n", st.Paths.Root)
		printRegistrations(g.out, st.Registrations)
		return nil
	}

	fmt.Fprintf(g.out, "Installed in %s\n", st.Paths.Root)
	fmt.Fprintf(g.out, "Host:         %s\n", st.Manifest.Path)
	if st.Config != nil {
		fmt.Fprintf(g.out, "Player:       %s\n", st.Config.Player)
	}
	if ids := st.Manifest.ExtensionIDs(); len(ids) > 0 {
		fmt.Fprintf(g.out, "Extensions:   %v\n", ids)
	} else {
		fmt.Fprintf(g.out, "Extensions:   none allowed yet\n")
	}
	if err := st.Manifest.Validate(); err != nil {
		fmt.Fprintf(g.out, "Warning:      %v\n", err)
	}
	printRegistrations(g.out, st.Registrations)
	return nil
}

// UninstallCmd removes the installation.
type UninstallCmd struct{}

func (c *UninstallCmd) Run(g *Globals) error {
	inst, err := g.installer(setup.Options{})
	if err != nil {
		return err
	}
	if err := inst.Uninstall(); err != nil {
		return err
	}
	fmt.Fprintf(g.out, "Uninstalled. Remove the extension from the browser manually.\n")
	return nil
}

func printRegistrations(w io.Writer, regs map[registry.Browser]string) {
	if len(regs) == 0 {
		fmt.Fprintf(w, "Registered:   nowhere\n")
		return
	}
	browsers := make([]string, 0, len(regs))
	for b := range regs {
		browsers = append(browsers, string(b))
	}
	sort.Strings(browsers)
	for _, b := range browsers {
		fmt.Fprintf(w, "Registered:   %s -> %s\n", b, regs[registry.Browser(b)])
	}
}

func main() {
	cli := CLI{Globals: Globals{out: os.Stdout}}
	ctx := kong.Parse(&cli,
		kong.Name("vlc-opener-setup"),
		kong.Description("Install the VLC Opener native messaging host."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	level := logging.LevelWarn
	if cli.Verbose {
		level = logging.LevelDebug
	}
	logging.InitLogger(os.Stderr, level, logging.FormatText)

	err := ctx.Run(&cli.Globals)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, manifest.ErrInvalid) {
			msg += "\n\nCheck the value and try again."
		}
		logging.Error("setup failed", "command", ctx.Command(), "error", err)
		showFatalError(msg)
		os.Exit(1)
	}
}
