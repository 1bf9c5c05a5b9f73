package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJSONFile writes any value as two-space indented JSON to the specified
// file path, followed by a newline. The file is written to a temporary name
// in the same directory and renamed into place.
func WriteJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	return WriteFileAtomic(path, data, 0o644)
}

// ReadJSONFile decodes the JSON document at path into v.
func ReadJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// WriteFileAtomic writes data next to path and renames it into place.
// Failures are tagged with ErrWriteFailure.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), TempPrefix+"*")
	if err != nil {
		return errors.Join(ErrWriteFailure, fmt.Errorf("create temp file for %s: %w", path, err))
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Join(ErrWriteFailure, fmt.Errorf("write %s: %w", path, err))
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return errors.Join(ErrWriteFailure, fmt.Errorf("chmod %s: %w", path, err))
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(ErrWriteFailure, fmt.Errorf("close %s: %w", path, err))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Join(ErrWriteFailure, fmt.Errorf("rename %s: %w", path, err))
	}
	return nil
}
