// Package manifest reads and writes the native-messaging host manifest the
// browser uses to find and authorize the host.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// DefaultHostName is the logical name the extension connects to.
	DefaultHostName = "com.vlc.opener"
	// DefaultDescription is shown by the browser for the host.
	DefaultDescription = "Open media in VLC"
	// TypeStdio is the only transport browsers support for native hosts.
	TypeStdio = "stdio"
)

const originScheme = "chrome-extension://"

var (
	hostNamePattern    = regexp.MustCompile(`^[a-z0-9_]+(\.[a-z0-9_]+)*$`)
	extensionIDPattern = regexp.MustCompile(`^[a-p]{32}$`)
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid host manifest")

// HostManifest is the JSON document registered with the browser.
type HostManifest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Path           string   `json:"path"`
	Type           string   `json:"type"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// New returns a stdio manifest for the host executable at path. It allows no
// origins until an extension id is set.
func New(name, description, path string) *HostManifest {
	return &HostManifest{
		Name:           name,
		Description:    description,
		Path:           path,
		Type:           TypeStdio,
		AllowedOrigins: []string{},
	}
}

// ValidHostName reports whether name is acceptable to the browser: dot
// separated segments of lowercase letters, digits and underscores.
func ValidHostName(name string) bool {
	return hostNamePattern.MatchString(name)
}

// ValidExtensionID reports whether id looks like a Chrome extension id.
func ValidExtensionID(id string) bool {
	return extensionIDPattern.MatchString(id)
}

// OriginForExtension returns the origin string that allows extension id.
func OriginForExtension(id string) string {
	return originScheme + id + "/"
}

// SetExtensionID replaces the allowed origins with the one for id.
func (m *HostManifest) SetExtensionID(id string) error {
	id = strings.TrimSpace(id)
	if !ValidExtensionID(id) {
		return fmt.Errorf("%w: extension id %q must be 32 characters a-p", ErrInvalid, id)
	}
	m.AllowedOrigins = []string{OriginForExtension(id)}
	return nil
}

// ExtensionIDs returns the extension ids named by the allowed origins.
func (m *HostManifest) ExtensionIDs() []string {
	var ids []string
	for _, origin := range m.AllowedOrigins {
		id := strings.TrimSuffix(strings.TrimPrefix(origin, originScheme), "/")
		if ValidExtensionID(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Validate checks the fields the browser checks before starting the host.
// An empty origin list is valid; such a host simply cannot be called yet.
func (m *HostManifest) Validate() error {
	if !ValidHostName(m.Name) {
		return fmt.Errorf("%w: name %q", ErrInvalid, m.Name)
	}
	if m.Path == "" || !filepath.IsAbs(m.Path) {
		return fmt.Errorf("%w: path %q must be absolute", ErrInvalid, m.Path)
	}
	if m.Type != TypeStdio {
		return fmt.Errorf("%w: type %q must be %q", ErrInvalid, m.Type, TypeStdio)
	}
	for _, origin := range m.AllowedOrigins {
		id := strings.TrimSuffix(strings.TrimPrefix(origin, originScheme), "/")
		if !strings.HasPrefix(origin, originScheme) || !strings.HasSuffix(origin, "/") || !ValidExtensionID(id) {
			return fmt.Errorf("%w: allowed origin %q", ErrInvalid, origin)
		}
	}
	return nil
}

// Read loads a manifest from path.
func Read(path string) (*HostManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m HostManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Write validates m and stores it at path, creating parent directories.
func Write(path string, m *HostManifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
