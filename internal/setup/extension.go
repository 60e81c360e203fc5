package setup

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vlc-opener/internal/manifest"
)

//go:embed extension/*
var extensionFS embed.FS

const hostNameLine = `const HOST_NAME = "` + manifest.DefaultHostName + `";`

// writeExtension unpacks the embedded browser extension into dir, pointing
// its background script at hostName.
func writeExtension(dir, hostName string) error {
	return fs.WalkDir(extensionFS, "extension", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		data, err := extensionFS.ReadFile(path)
		if err != nil {
			return err
		}
		if path == "extension/background.js" && hostName != manifest.DefaultHostName {
			data = []byte(strings.Replace(string(data),
				hostNameLine,
				fmt.Sprintf(`const HOST_NAME = %q;`, hostName),
				1))
		}

		dest := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(path, "extension/")))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		return os.WriteFile(dest, data, 0644)
	})
}
