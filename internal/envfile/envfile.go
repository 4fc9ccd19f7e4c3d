// Package envfile reads the optional .env file once per process.
package envfile

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/joho/godotenv"
)

var (
	once    sync.Once
	loadErr error
)

// Load reads .env into the environment without overriding variables that are
// already set. Later calls return the first result. A missing file is fine.
func Load() error {
	once.Do(func() {
		loadErr = load(".env")
	})
	return loadErr
}

func load(files ...string) error {
	err := godotenv.Load(files...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to read .env: %w", err)
}
