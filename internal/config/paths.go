package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvHome overrides the hawk home directory.
	EnvHome = "HAWK_HOME"

	defaultHomeDir  = ".config/hawk"
	configFileName  = "config.yaml"
	dirLayerDirName = ".hawk"
	profilesDirName = "profiles"
	registryDirName = "registry"
	cacheDirName    = "cache"
	lockFileName    = ".lock"
)

// Test seams.
var (
	userHomeDir = os.UserHomeDir
	getenv      = os.Getenv
)

// DefaultHome returns $HAWK_HOME or ~/.config/hawk.
func DefaultHome() (string, error) {
	if h := getenv(EnvHome); h != "" {
		return ExpandHome(h)
	}
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user home directory: %w", err)
	}
	return filepath.Join(home, defaultHomeDir), nil
}

// UserHome returns the user's home directory.
func UserHome() (string, error) {
	return userHomeDir()
}

// ExpandHome resolves a leading "~" and makes p absolute.
func ExpandHome(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := userHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not expand %q: %w", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// GlobalPath is the global config document.
func GlobalPath(home string) string { return filepath.Join(home, configFileName) }

// ProfilesPath is the directory holding profile documents.
func ProfilesPath(home string) string { return filepath.Join(home, profilesDirName) }

// ProfilePath is the document of a named profile.
func ProfilePath(home, name string) string {
	return filepath.Join(ProfilesPath(home), name+".yaml")
}

// DirectoryLayerPath is the layer document of a registered directory.
func DirectoryLayerPath(dir string) string {
	return filepath.Join(dir, dirLayerDirName, configFileName)
}

// RegistryPath is the component store root.
func RegistryPath(home string) string { return filepath.Join(home, registryDirName) }

// CachePath is the root of persisted caches.
func CachePath(home string) string { return filepath.Join(home, cacheDirName) }

// LockPath is the advisory lock taken by mutating commands.
func LockPath(home string) string { return filepath.Join(home, lockFileName) }
