package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath converts a file:// URI or a user-supplied path into an absolute
// local path. A leading "~/" is expanded to the home directory.
func ResolvePath(uri string) (string, error) {
	path := strings.TrimPrefix(uri, "file://")
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", uri, err)
	}
	return abs, nil
}
