package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func validateFileFlag(name, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%s file is required", name)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s path: %w", name, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("%s file does not exist: %w", name, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s path %s is a directory", name, abs)
	}

	return nil
}
