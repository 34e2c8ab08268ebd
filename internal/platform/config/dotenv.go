package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotenv loads KEY=VALUE files into the process environment without overriding variables
// that are already set. With no arguments it reads ENV_FILE, falling back to .env. Missing
// files are skipped
func LoadDotenv(files ...string) ([]string, error) {
	if len(files) == 0 {
		files = []string{".env"}
		if f := strings.TrimSpace(os.Getenv("ENV_FILE")); f != "" {
			files = strings.Split(f, ",")
		}
	}
	var loaded []string
	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, err
		}
		loaded = append(loaded, f)
	}
	return loaded, nil
}
