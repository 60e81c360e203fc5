package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vlc-opener/internal/manifest"
	"vlc-opener/internal/registry"
	"vlc-opener/internal/setup"
)

const testExtensionID = "abcdefghijklmnopabcdefghijklmnop"

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Vars{"version": version}, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return cli, ctx
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		args    []string
		command string
	}{
		{nil, "install"},
		{[]string{"detect"}, "detect"},
		{[]string{"install", "--browser=chrome,edge", "--mpv-ipc"}, "install"},
		{[]string{"set-extension-id", testExtensionID}, "set-extension-id <id>"},
		{[]string{"status"}, "status"},
		{[]string{"uninstall", "--root=/tmp/vlc-opener"}, "uninstall"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			cli, ctx := parse(t, tt.args...)
			assert.Equal(t, tt.command, ctx.Command())
			assert.Equal(t, manifest.DefaultHostName, cli.HostName)
		})
	}
}

func TestInstallIsDefaultWithFlags(t *testing.T) {
	cli, ctx := parse(t, "--extension-id", testExtensionID, "--browser=edge")
	assert.Equal(t, "install", ctx.Command())
	assert.Equal(t, testExtensionID, cli.Install.ExtensionID)
	assert.Equal(t, []string{"edge"}, cli.Install.Browser)
}

func TestParseInstallFlags(t *testing.T) {
	cli, _ := parse(t, "install", "--browser=chrome,edge", "--extension-id", testExtensionID, "--open-browser")
	assert.Equal(t, []string{"chrome", "edge"}, cli.Install.Browser)
	assert.Equal(t, testExtensionID, cli.Install.ExtensionID)
	assert.True(t, cli.Install.OpenBrowser)
	assert.False(t, cli.Install.MpvIPC)
}

func TestParseBrowsers(t *testing.T) {
	browsers, err := parseBrowsers([]string{"chrome", "edge"})
	require.NoError(t, err)
	assert.Equal(t, []registry.Browser{registry.Chrome, registry.Edge}, browsers)

	_, err = parseBrowsers([]string{"netscape"})
	assert.ErrorIs(t, err, registry.ErrUnknownBrowser)
}

func TestInstallStatusUninstall(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("registration writes to HKCU on Windows")
	}
	t.Setenv("HOME", t.TempDir())

	src := t.TempDir()
	host := filepath.Join(src, "vlc-opener-host")
	require.NoError(t, os.WriteFile(host, []byte("#!/bin/sh\n"), 0755))
	player := filepath.Join(src, "vlc")
	require.NoError(t, os.WriteFile(player, []byte("#!/bin/sh\n"), 0755))

	var out bytes.Buffer
	g := &Globals{
		Root:     filepath.Join(t.TempDir(), "VLCOpener"),
		HostName: manifest.DefaultHostName,
		out:      &out,
	}

	install := InstallCmd{Player: player, Host: host, Browser: []string{"chrome"}}
	require.NoError(t, install.Run(g))
	assert.Contains(t, out.String(), "Installed to "+g.Root)
	assert.Contains(t, out.String(), "set-extension-id")

	out.Reset()
	setID := SetExtensionIDCmd{ID: testExtensionID, Browser: []string{"chrome"}}
	require.NoError(t, setID.Run(g))
	assert.Contains(t, out.String(), manifest.OriginForExtension(testExtensionID))

	out.Reset()
	require.NoError(t, (&StatusCmd{}).Run(g))
	assert.Contains(t, out.String(), "Installed in "+g.Root)
	assert.Contains(t, out.String(), testExtensionID)
	assert.Contains(t, out.String(), "Registered:   chrome -> ")

	out.Reset()
	require.NoError(t, (&UninstallCmd{}).Run(g))
	assert.NoDirExists(t, g.Root)

	out.Reset()
	require.NoError(t, (&StatusCmd{}).Run(g))
	assert.Contains(t, out.String(), "Not installed")
	assert.Contains(t, out.String(), "Registered:   nowhere")
}

func TestInstallMpvIPCWithVLCFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("registration writes to HKCU on Windows")
	}
	t.Setenv("HOME", t.TempDir())

	src := t.TempDir()
	host := filepath.Join(src, "vlc-opener-host")
	require.NoError(t, os.WriteFile(host, []byte("#!/bin/sh\n"), 0755))
	vlc := filepath.Join(src, "vlc")
	require.NoError(t, os.WriteFile(vlc, []byte("#!/bin/sh\n"), 0755))

	g := &Globals{Root: filepath.Join(t.TempDir(), "VLCOpener"), HostName: manifest.DefaultHostName, out: &bytes.Buffer{}}
	err := (&InstallCmd{Player: vlc, Host: host, Browser: []string{"chrome"}, MpvIPC: true}).Run(g)
	assert.ErrorIs(t, err, setup.ErrIPCNeedsMpv)
	assert.NoDirExists(t, g.Root)
}

func TestUninstallWithoutInstallation(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "thesis.docx")
	require.NoError(t, os.WriteFile(keep, []byte("draft"), 0644))

	g := &Globals{Root: root, HostName: manifest.DefaultHostName, out: &bytes.Buffer{}}
	err := (&UninstallCmd{}).Run(g)
	assert.ErrorIs(t, err, setup.ErrNotInstalled)
	assert.FileExists(t, keep)
}

func TestSetExtensionIDRejectsBadID(t *testing.T) {
	g := &Globals{Root: t.TempDir(), HostName: manifest.DefaultHostName, out: &bytes.Buffer{}}
	err := (&SetExtensionIDCmd{ID: "not-an-id", Browser: []string{"chrome"}}).Run(g)
	assert.ErrorIs(t, err, manifest.ErrInvalid)
}
