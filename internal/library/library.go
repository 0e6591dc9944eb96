// Package library discovers the Steam library folders on this machine.
package library

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/steamwake/steamwake/internal/manifest"
)

// DefaultInstallDirs are the Steam installs probed under the home directory:
// the native package and the Flatpak.
var DefaultInstallDirs = []string{
	".local/share/Steam",
	".var/app/com.valvesoftware.Steam/data/Steam",
}

const libraryFoldersFile = "steamapps/libraryfolders.vdf"

// Locator lists library roots. The zero value probes the default installs
// under the current user's home directory.
type Locator struct {
	// Override, when set, is the only root returned.
	Override string
	// Home replaces the user's home directory.
	Home   string
	Logger *slog.Logger
}

// Roots returns the library roots in the order manifests should be searched.
// It never fails: unreadable sources are skipped and the result may be empty.
func (l Locator) Roots() []string {
	if l.Override != "" {
		return []string{l.Override}
	}

	home := l.Home
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			l.debug("No home directory, no libraries to search", "error", err)
			return nil
		}
		home = h
	}

	var roots []string
	for _, dir := range DefaultInstallDirs {
		p := filepath.Join(home, dir, libraryFoldersFile)
		folders, err := ReadLibraryFolders(p)
		if err != nil {
			l.debug("Skipping library folders file", "path", p, "error", err)
			continue
		}
		roots = append(roots, folders...)
	}
	return roots
}

func (l Locator) debug(msg string, args ...any) {
	if l.Logger != nil {
		l.Logger.Debug(msg, args...)
	}
}

// ReadLibraryFolders returns the library paths listed in a
// libraryfolders.vdf file, ordered by their numeric folder key.
func ReadLibraryFolders(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := manifest.ParseKeyValues(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	section, ok := manifest.LookupSection(doc, "libraryfolders")
	if !ok {
		return nil, fmt.Errorf("%s: no libraryfolders record", path)
	}
	return folderPaths(section), nil
}

// folderPaths handles both layouts Steam has used: numbered records with a
// "path" field, and the older numbered plain strings.
func folderPaths(section map[string]interface{}) []string {
	type folder struct {
		index uint64
		path  string
	}
	var folders []folder
	for key, value := range section {
		index, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			continue
		}
		var p string
		switch v := value.(type) {
		case string:
			p = v
		case map[string]interface{}:
			p, _ = manifest.LookupString(v, "path")
		}
		if p == "" {
			continue
		}
		folders = append(folders, folder{index: index, path: p})
	}

	sort.Slice(folders, func(i, j int) bool { return folders[i].index < folders[j].index })

	paths := make([]string, 0, len(folders))
	for _, f := range folders {
		paths = append(paths, f.path)
	}
	return paths
}
