package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, os.ModePerm)
}

// ReadJSON reads a JSON file and unmarshals it into the provided value.
// Unknown fields are rejected so typos in overlay files surface early.
func ReadJSON(path string, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON writes data to a JSON file, creating parent directories
func WriteJSON(path string, v any) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FindFiles finds files matching a comma separated list of glob patterns in a
// directory tree. Results are sorted so callers picking the first match are stable.
func FindFiles(dir, pattern string) ([]string, error) {
	var files []string

	patterns := strings.Split(pattern, ",")

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			matched, err := filepath.Match(p, info.Name())
			if err != nil {
				return err
			}
			if matched {
				files = append(files, path)
				break
			}
		}
		return nil
	})

	sort.Strings(files)
	return files, err
}
