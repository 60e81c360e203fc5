package setup

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vlc-opener/internal/config"
	"vlc-opener/internal/manifest"
	"vlc-opener/internal/registry"
)

const testExtensionID = "abcdefghijklmnopabcdefghijklmnop"

type fixture struct {
	root   string
	host   string
	player string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("registration writes to HKCU on Windows")
	}
	t.Setenv("HOME", t.TempDir())

	src := t.TempDir()
	host := filepath.Join(src, HostBinary)
	require.NoError(t, os.WriteFile(host, []byte("#!/bin/sh\n"), 0755))
	player := filepath.Join(src, "vlc")
	require.NoError(t, os.WriteFile(player, []byte("#!/bin/sh\n"), 0755))

	return fixture{
		root:   filepath.Join(t.TempDir(), "VLCOpener"),
		host:   host,
		player: player,
	}
}

func (f fixture) installer(t *testing.T, mutate func(*Options)) *Installer {
	t.Helper()
	opts := Options{
		Root:           f.root,
		Player:         f.player,
		HostExecutable: f.host,
	}
	if mutate != nil {
		mutate(&opts)
	}
	inst, err := New(opts)
	require.NoError(t, err)
	return inst
}

func TestInstall(t *testing.T) {
	f := newFixture(t)
	inst := f.installer(t, nil)

	res, err := inst.Install()
	require.NoError(t, err)
	paths := res.Paths

	assert.FileExists(t, paths.Host())
	info, err := os.Stat(paths.Host())
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0100, "host is executable")

	cfg, err := config.Load(paths.Config())
	require.NoError(t, err)
	assert.Equal(t, f.player, cfg.Player)
	assert.Equal(t, paths.LogFile(), cfg.LogFile)

	m, err := manifest.Read(res.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, manifest.DefaultHostName, m.Name)
	assert.Equal(t, paths.Host(), m.Path)
	assert.Equal(t, manifest.TypeStdio, m.Type)
	assert.Empty(t, m.AllowedOrigins)

	assert.FileExists(t, filepath.Join(paths.Extension, "manifest.json"))
	assert.FileExists(t, filepath.Join(paths.Extension, "background.js"))

	require.Contains(t, res.Registrations, registry.Chrome)
	registered, err := registry.Lookup(registry.Chrome, manifest.DefaultHostName)
	require.NoError(t, err)
	assert.Equal(t, res.Registrations[registry.Chrome], registered)
}

func TestInstallWithExtensionID(t *testing.T) {
	f := newFixture(t)
	inst := f.installer(t, func(o *Options) {
		o.ExtensionID = testExtensionID
		o.Browsers = []registry.Browser{registry.Chrome, registry.Edge}
	})

	res, err := inst.Install()
	require.NoError(t, err)
	assert.Equal(t, []string{manifest.OriginForExtension(testExtensionID)}, res.Manifest.AllowedOrigins)
	assert.Len(t, res.Registrations, 2)

	_, err = registry.Lookup(registry.Edge, manifest.DefaultHostName)
	assert.NoError(t, err)
}

func TestInstallRequiresPlayer(t *testing.T) {
	f := newFixture(t)

	_, err := f.installer(t, func(o *Options) { o.Player = "" }).Install()
	assert.ErrorIs(t, err, ErrNoPlayer)

	_, err = f.installer(t, func(o *Options) { o.Player = filepath.Join(f.root, "missing", "vlc") }).Install()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInstallRequiresHostExecutable(t *testing.T) {
	f := newFixture(t)
	_, err := f.installer(t, func(o *Options) { o.HostExecutable = "" }).Install()
	assert.ErrorIs(t, err, ErrNoHostExecutable)
}

func TestNewRejectsBadHostName(t *testing.T) {
	_, err := New(Options{Root: t.TempDir(), HostName: "VLC Opener"})
	assert.ErrorIs(t, err, manifest.ErrInvalid)
}

func TestCustomHostNameReachesExtension(t *testing.T) {
	f := newFixture(t)
	inst := f.installer(t, func(o *Options) { o.HostName = "org.example.player" })

	res, err := inst.Install()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(res.Paths.NativeHost, "org.example.player.json"), res.ManifestPath)

	js, err := os.ReadFile(filepath.Join(res.Paths.Extension, "background.js"))
	require.NoError(t, err)
	assert.Contains(t, string(js), `const HOST_NAME = "org.example.player";`)
	assert.False(t, strings.Contains(string(js), manifest.DefaultHostName))
}

func TestSetExtensionID(t *testing.T) {
	f := newFixture(t)
	inst := f.installer(t, nil)
	_, err := inst.Install()
	require.NoError(t, err)

	m, err := inst.SetExtensionID(testExtensionID)
	require.NoError(t, err)
	assert.Equal(t, []string{testExtensionID}, m.ExtensionIDs())

	registered, err := registry.Lookup(registry.Chrome, manifest.DefaultHostName)
	require.NoError(t, err)
	copied, err := manifest.Read(registered)
	require.NoError(t, err)
	assert.Equal(t, []string{testExtensionID}, copied.ExtensionIDs(), "registration sees the new origin")

	_, err = inst.SetExtensionID("EXTENSION_ID")
	assert.ErrorIs(t, err, manifest.ErrInvalid)
}

func TestReinstallKeepsExtensionID(t *testing.T) {
	f := newFixture(t)
	inst := f.installer(t, nil)
	_, err := inst.Install()
	require.NoError(t, err)
	_, err = inst.SetExtensionID(testExtensionID)
	require.NoError(t, err)

	res, err := inst.Install()
	require.NoError(t, err)
	assert.Equal(t, []string{testExtensionID}, res.Manifest.ExtensionIDs())
}

func TestSetExtensionIDNotInstalled(t *testing.T) {
	f := newFixture(t)
	_, err := f.installer(t, nil).SetExtensionID(testExtensionID)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStatusAndUninstall(t *testing.T) {
	f := newFixture(t)
	inst := f.installer(t, nil)

	st, err := inst.Status()
	require.NoError(t, err)
	assert.False(t, st.Installed())
	assert.Empty(t, st.Registrations)

	_, err = inst.Install()
	require.NoError(t, err)

	st, err = inst.Status()
	require.NoError(t, err)
	assert.True(t, st.Installed())
	require.NotNil(t, st.Config)
	assert.Equal(t, f.player, st.Config.Player)
	assert.Contains(t, st.Registrations, registry.Chrome)

	require.NoError(t, inst.Uninstall())
	assert.NoDirExists(t, f.root)
	_, err = registry.Lookup(registry.Chrome, manifest.DefaultHostName)
	assert.ErrorIs(t, err, registry.ErrNotRegistered)

	st, err = inst.Status()
	require.NoError(t, err)
	assert.False(t, st.Installed())
}

func TestCopyFileSamePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0755))

	require.NoError(t, copyFile(path, path, 0755))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "binary", string(data))
}

func TestNewPaths(t *testing.T) {
	p := NewPaths(filepath.Join("root", "VLCOpener"))
	assert.Equal(t, filepath.Join("root", "VLCOpener", "bin"), p.Bin)
	assert.Equal(t, filepath.Join("root", "VLCOpener", "native_host", "com.vlc.opener.json"), p.Manifest("com.vlc.opener"))
	assert.Equal(t, filepath.Join("root", "VLCOpener", "bin", config.FileName), p.Config())
}

func TestUninstallKeepsUnrelatedFiles(t *testing.T) {
	f := newFixture(t)
	inst := f.installer(t, nil)
	_, err := inst.Install()
	require.NoError(t, err)

	other := filepath.Join(f.root, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("keep me"), 0644))
	logs := filepath.Dir(inst.Paths().LogFile())
	require.NoError(t, os.MkdirAll(logs, 0755))
	require.NoError(t, os.WriteFile(inst.Paths().LogFile(), []byte("log line\n"), 0644))

	require.NoError(t, inst.Uninstall())
	assert.FileExists(t, other)
	for _, dir := range []string{inst.Paths().Bin, inst.Paths().NativeHost, inst.Paths().Extension, logs} {
		assert.NoDirExists(t, dir)
	}
	_, err = registry.Lookup(registry.Chrome, manifest.DefaultHostName)
	assert.ErrorIs(t, err, registry.ErrNotRegistered)
}

func TestUninstallRefusesDirectoryWithoutInstallation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(f.root, "bin"), 0755))
	doc := filepath.Join(f.root, "thesis.docx")
	require.NoError(t, os.WriteFile(doc, []byte("draft"), 0644))
	kept := filepath.Join(f.root, "bin", "tool")
	require.NoError(t, os.WriteFile(kept, []byte("#!/bin/sh\n"), 0755))

	err := f.installer(t, nil).Uninstall()
	assert.ErrorIs(t, err, ErrNotInstalled)
	assert.FileExists(t, doc)
	assert.FileExists(t, kept)
}

func TestInstallMpvIPCRequiresMpv(t *testing.T) {
	f := newFixture(t)

	_, err := f.installer(t, func(o *Options) { o.MpvIPC = "/tmp/vlc-opener-mpv.sock" }).Install()
	assert.ErrorIs(t, err, ErrIPCNeedsMpv)
	assert.NoFileExists(t, NewPaths(f.root).Config())

	mpv := filepath.Join(t.TempDir(), "mpv")
	require.NoError(t, os.WriteFile(mpv, []byte("#!/bin/sh\n"), 0755))
	res, err := f.installer(t, func(o *Options) {
		o.Player = mpv
		o.MpvIPC = "/tmp/vlc-opener-mpv.sock"
	}).Install()
	require.NoError(t, err)

	cfg, err := config.Load(res.Paths.Config())
	require.NoError(t, err)
	assert.Equal(t, mpv, cfg.Player)
	assert.Equal(t, "/tmp/vlc-opener-mpv.sock", cfg.MpvIPC)
}
