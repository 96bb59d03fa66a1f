// Package platformdir resolves the platform-standard config directory
// used for both the credential store and the pricing cache file.
package platformdir

import (
	"os"
	"path/filepath"
	"runtime"
)

const dirName = "ultra-mcp"

// ConfigDir returns the platform-standard config directory for ultra-mcp:
// %APPDATA%\ultra-mcp-nodejs\ on Windows, ~/.config/ultra-mcp/ elsewhere.
// The directory is created if it does not already exist.
func ConfigDir() (string, error) {
	var base string
	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			base = filepath.Join(home, "AppData", "Roaming")
		}
		base = filepath.Join(base, dirName+"-nodejs")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config", dirName)
	}

	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	return base, nil
}

// Path joins the config directory with the given relative path elements.
func Path(elem ...string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dir}, elem...)...), nil
}
