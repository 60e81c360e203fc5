// Package setup provisions the native-messaging host for the current user:
// it installs the host binary and its config, writes the host manifest and
// the unpacked extension, and registers the manifest with the browsers.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"vlc-opener/internal/config"
	"vlc-opener/internal/logging"
	"vlc-opener/internal/manifest"
	"vlc-opener/internal/player"
	"vlc-opener/internal/registry"
)

// HostBinary is the base name of the host executable.
const HostBinary = "vlc-opener-host"

var (
	// ErrNoPlayer is returned when no player was given or detected.
	ErrNoPlayer = errors.New("no media player configured; install VLC or pass its path")
	// ErrNoHostExecutable is returned when the host binary to install is unknown.
	ErrNoHostExecutable = errors.New("host executable not found")
	// ErrNotInstalled is returned by Uninstall for a directory that holds no
	// installation.
	ErrNotInstalled = errors.New("no installation found")
	// ErrIPCNeedsMpv is returned when mpv IPC is requested for another player.
	ErrIPCNeedsMpv = errors.New("mpv IPC requires mpv as the player")
)

// Prerequisites is what Detect found on this machine.
type Prerequisites struct {
	Player string
	Chrome string
}

// Detect looks for VLC and Chrome in their usual locations.
func Detect() Prerequisites {
	return Prerequisites{
		Player: player.FindVLC(),
		Chrome: findChrome(),
	}
}

// Paths is the layout of an installation.
type Paths struct {
	Root       string
	Bin        string
	NativeHost string
	Extension  string
}

func NewPaths(root string) Paths {
	return Paths{
		Root:       root,
		Bin:        filepath.Join(root, "bin"),
		NativeHost: filepath.Join(root, "native_host"),
		Extension:  filepath.Join(root, "extension"),
	}
}

// Host is the installed host executable.
func (p Paths) Host() string {
	return filepath.Join(p.Bin, hostBinaryName())
}

// Config is the host's config file, next to the executable.
func (p Paths) Config() string {
	return filepath.Join(p.Bin, config.FileName)
}

// Manifest is the host manifest for host name.
func (p Paths) Manifest(name string) string {
	return filepath.Join(p.NativeHost, name+".json")
}

// LogFile is where the installed host logs.
func (p Paths) LogFile() string {
	return filepath.Join(p.Root, "logs", "host.log")
}

// owned lists the directories Install creates under Root.
func (p Paths) owned() []string {
	return []string{p.Bin, p.NativeHost, p.Extension, filepath.Dir(p.LogFile())}
}

func hostBinaryName() string {
	if runtime.GOOS == "windows" {
		return HostBinary + ".exe"
	}
	return HostBinary
}

// DefaultRoot is %LOCALAPPDATA%\VLCOpener on Windows and the user config
// directory elsewhere.
func DefaultRoot() (string, error) {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, "VLCOpener"), nil
		}
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config directory: %w", err)
	}
	return filepath.Join(dir, "vlc-opener"), nil
}

// DefaultHostExecutable is the host binary shipped next to the running
// setup executable.
func DefaultHostExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	path := filepath.Join(filepath.Dir(exe), hostBinaryName())
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoHostExecutable, path)
	}
	return path, nil
}

type Options struct {
	Root           string // installation directory; empty means DefaultRoot
	HostName       string // empty means manifest.DefaultHostName
	Player         string
	MpvIPC         string
	HostExecutable string // host binary to copy into Root
	ExtensionID    string // optional; can be set later with SetExtensionID
	Browsers       []registry.Browser
	Logger         *slog.Logger
}

type Installer struct {
	opts   Options
	paths  Paths
	logger *slog.Logger
}

func New(opts Options) (*Installer, error) {
	if opts.Root == "" {
		root, err := DefaultRoot()
		if err != nil {
			return nil, err
		}
		opts.Root = root
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	opts.Root = root

	if opts.HostName == "" {
		opts.HostName = manifest.DefaultHostName
	}
	if !manifest.ValidHostName(opts.HostName) {
		return nil, fmt.Errorf("%w: name %q", manifest.ErrInvalid, opts.HostName)
	}
	if len(opts.Browsers) == 0 {
		opts.Browsers = []registry.Browser{registry.Chrome}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Installer{opts: opts, paths: NewPaths(opts.Root), logger: logger}, nil
}

func (i *Installer) Paths() Paths {
	return i.paths
}

// Result describes a finished installation.
type Result struct {
	Paths         Paths
	ManifestPath  string
	Manifest      *manifest.HostManifest
	Registrations map[registry.Browser]string
}

// Install lays out the installation and registers the host. Running it
// again over an existing installation updates it in place.
func (i *Installer) Install() (*Result, error) {
	if i.opts.Player == "" {
		return nil, ErrNoPlayer
	}
	if filepath.IsAbs(i.opts.Player) {
		if _, err := os.Stat(i.opts.Player); err != nil {
			return nil, fmt.Errorf("player %s: %w", i.opts.Player, err)
		}
	}
	if i.opts.MpvIPC != "" && !player.IsMpv(i.opts.Player) {
		return nil, fmt.Errorf("%w: %s", ErrIPCNeedsMpv, i.opts.Player)
	}
	if i.opts.HostExecutable == "" {
		return nil, ErrNoHostExecutable
	}

	i.logger.Info("creating directories", "root", i.paths.Root)
	for _, dir := range []string{i.paths.Bin, i.paths.NativeHost, i.paths.Extension} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := copyFile(i.opts.HostExecutable, i.paths.Host(), 0755); err != nil {
		return nil, fmt.Errorf("install host executable: %w", err)
	}

	cfg := config.Default()
	cfg.Player = i.opts.Player
	cfg.MpvIPC = i.opts.MpvIPC
	cfg.LogFile = i.paths.LogFile()
	if err := config.Save(i.paths.Config(), cfg); err != nil {
		return nil, fmt.Errorf("write host config: %w", err)
	}

	if err := writeExtension(i.paths.Extension, i.opts.HostName); err != nil {
		return nil, fmt.Errorf("write extension: %w", err)
	}

	m := manifest.New(i.opts.HostName, manifest.DefaultDescription, i.paths.Host())
	if i.opts.ExtensionID != "" {
		if err := m.SetExtensionID(i.opts.ExtensionID); err != nil {
			return nil, err
		}
	} else if prev, err := manifest.Read(i.paths.Manifest(i.opts.HostName)); err == nil {
		// Reinstalling keeps an extension id applied earlier.
		m.AllowedOrigins = prev.AllowedOrigins
	}
	manifestPath := i.paths.Manifest(i.opts.HostName)
	if err := manifest.Write(manifestPath, m); err != nil {
		return nil, fmt.Errorf("write host manifest: %w", err)
	}

	i.logger.Info("registering native messaging host", "name", i.opts.HostName)
	registrations, err := i.register(manifestPath)
	if err != nil {
		return nil, err
	}

	i.logger.Info("installation complete", "root", i.paths.Root)
	return &Result{
		Paths:         i.paths,
		ManifestPath:  manifestPath,
		Manifest:      m,
		Registrations: registrations,
	}, nil
}

func (i *Installer) register(manifestPath string) (map[registry.Browser]string, error) {
	registrations := make(map[registry.Browser]string, len(i.opts.Browsers))
	for _, b := range i.opts.Browsers {
		location, err := registry.Register(b, i.opts.HostName, manifestPath)
		if err != nil {
			return nil, fmt.Errorf("register with %s: %w", b, err)
		}
		i.logger.Debug("registered", "browser", b, "location", location)
		registrations[b] = location
	}
	return registrations, nil
}

// SetExtensionID allows extension id to call the host and refreshes the
// registrations.
func (i *Installer) SetExtensionID(id string) (*manifest.HostManifest, error) {
	var probe manifest.HostManifest
	if err := probe.SetExtensionID(id); err != nil {
		return nil, err
	}

	manifestPath := i.paths.Manifest(i.opts.HostName)
	m, err := manifest.Read(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("not installed: %w", err)
	}
	m.AllowedOrigins = probe.AllowedOrigins
	if err := manifest.Write(manifestPath, m); err != nil {
		return nil, err
	}
	if _, err := i.register(manifestPath); err != nil {
		return nil, err
	}
	i.logger.Info("extension id applied", "extension_id", id)
	return m, nil
}

// Uninstall removes every browser registration of the host and the files
// Install created. Root itself is removed only when nothing else is left in
// it. A directory without the host manifest or host binary is not touched.
func (i *Installer) Uninstall() error {
	if !i.installed() {
		return fmt.Errorf("%w: %s", ErrNotInstalled, i.paths.Root)
	}

	var errs []error
	for _, b := range registry.Browsers() {
		if err := registry.Unregister(b, i.opts.HostName); err != nil {
			errs = append(errs, fmt.Errorf("unregister from %s: %w", b, err))
		}
	}

	for _, dir := range i.paths.owned() {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", dir, err))
		}
	}

	root := i.paths.Root
	entries, err := os.ReadDir(root)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		errs = append(errs, fmt.Errorf("read %s: %w", root, err))
	case len(entries) == 0:
		if err := os.Remove(root); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", root, err))
		}
	default:
		i.logger.Info("keeping non-empty installation directory", "root", root, "entries", len(entries))
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	i.logger.Info("uninstalled", "root", root)
	return nil
}

// installed reports whether Root holds the host manifest or the host binary.
func (i *Installer) installed() bool {
	for _, path := range []string{i.paths.Manifest(i.opts.HostName), i.paths.Host()} {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// Status is the state of an installation.
type Status struct {
	Paths         Paths
	Config        *config.Config
	Manifest      *manifest.HostManifest
	Registrations map[registry.Browser]string
}

// Installed reports whether the host manifest exists.
func (s *Status) Installed() bool {
	return s.Manifest != nil
}

// Status reports what is installed and where the host is registered.
func (i *Installer) Status() (*Status, error) {
	st := &Status{
		Paths:         i.paths,
		Registrations: make(map[registry.Browser]string),
	}

	m, err := manifest.Read(i.paths.Manifest(i.opts.HostName))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		st.Manifest = m
	}

	if _, err := os.Stat(i.paths.Config()); err == nil {
		cfg, err := config.Load(i.paths.Config())
		if err != nil {
			return nil, err
		}
		st.Config = &cfg
	}

	for _, b := range registry.Browsers() {
		location, err := registry.Lookup(b, i.opts.HostName)
		if errors.Is(err, registry.ErrNotRegistered) {
			continue
		}
		if err != nil {
			return nil, err
		}
		st.Registrations[b] = location
	}
	return st, nil
}

// OpenExtensionsPage opens the browser's extension management page so the
// unpacked extension can be loaded.
func OpenExtensionsPage(ctx context.Context, browserPath string) error {
	return player.NewLauncher(player.Options{Player: browserPath}).Launch(ctx, "chrome://extensions/")
}

// OpenFolder shows dir in the platform file manager.
func OpenFolder(ctx context.Context, dir string) error {
	return player.NewLauncher(player.Options{Player: fileManager()}).Launch(ctx, dir)
}

func copyFile(src, dst string, perm os.FileMode) error {
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return err
	}
	if srcAbs == dstAbs {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
