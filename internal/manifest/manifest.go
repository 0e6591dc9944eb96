// Package manifest resolves Steam app IDs to display names by reading
// appmanifest_<id>.acf files from the library roots.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// ErrInvalidManifest is returned when a manifest exists but cannot be read
// or does not carry an AppState name.
var ErrInvalidManifest = errors.New("invalid app manifest")

// Path returns where the manifest for appid lives under root.
func Path(root string, appid uint64) string {
	return filepath.Join(root, "steamapps", "appmanifest_"+strconv.FormatUint(appid, 10)+".acf")
}

// ReadName reads the display name from the manifest at path.
func ReadName(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	defer f.Close()

	name, err := parseName(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return name, nil
}

func parseName(r io.Reader) (string, error) {
	doc, err := ParseKeyValues(r)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	state, ok := LookupSection(doc, "AppState")
	if !ok {
		return "", fmt.Errorf("%w: no AppState record", ErrInvalidManifest)
	}
	name, ok := LookupString(state, "name")
	if !ok {
		return "", fmt.Errorf("%w: AppState has no name", ErrInvalidManifest)
	}
	return name, nil
}
