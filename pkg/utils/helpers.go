// Package utils provides utility functions and constants for common operations
// throughout the application.
package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// AreAddressesEqual compares two Ethereum addresses for equality, ignoring case.
func AreAddressesEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Map applies f to every element of l and returns the results in order.
func Map[A any, B any](l []A, f func(A, uint64) B) []B {
	out := make([]B, len(l))
	for i, item := range l {
		out[i] = f(item, uint64(i))
	}
	return out
}

// ReadJsonFile decodes the JSON file at path into v.
//
// Returns:
//   - bool: false when the file does not exist (v is left untouched)
//   - error: read or decode failures
func ReadJsonFile(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to read %s", path)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, errors.Wrapf(err, "failed to decode %s", path)
	}
	return true, nil
}

// WriteJsonFile writes v to path as indented JSON, creating parent directories.
func WriteJsonFile(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return errors.Wrap(err, "failed to encode json")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
