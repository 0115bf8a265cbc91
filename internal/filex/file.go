// Package filex resolves the on-disk directories the server works in.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveBaseDir turns a configured storage root into an absolute directory
// and makes sure it exists. Relative roots are joined onto the process
// working directory; absolute roots are used as given.
func ResolveBaseDir(root string, mode os.FileMode) (string, error) {
	dir := root
	if !filepath.IsAbs(root) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, root)
	}

	if err := os.MkdirAll(dir, mode); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}

	return dir, nil
}
