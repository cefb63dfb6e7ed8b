package filex

import (
	"fmt"
	"os"
)

// EnsureDir creates dir (and any missing parents) if it does not already
// exist and returns it unchanged, so callers can chain it into a path
// expression.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
