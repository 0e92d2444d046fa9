package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const defaultFileMode fs.FileMode = 0o644

var errNotArray = errors.New("expected a JSON array of expenses")

// fileMode returns the permissions of the existing file at path, or
// defaultFileMode when there is none.
func fileMode(path string) fs.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return defaultFileMode
}

// Save writes every expense, in insertion order, as an indented JSON array.
// The content is fully serialized and written to a sibling temp file before
// it replaces path. An existing file keeps its permissions.
func (t *Tracker) Save(path string) error {
	records := t.expenses
	if records == nil {
		records = []Expense{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &StorageError{Op: "save", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(fileMode(path)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// Load replaces the whole sequence with the contents of path. A missing file
// yields an empty tracker; any other top-level value than an array fails. Any decode or validation failure leaves the
// current sequence untouched; validation failures keep their
// *ValidationError reachable through errors.As.
func (t *Tracker) Load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		t.replace(nil)
		return nil
	}
	if err != nil {
		return &StorageError{Op: "load", Path: path, Err: err}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return &StorageError{Op: "load", Path: path, Err: err}
	}
	if raw == nil {
		return &StorageError{Op: "load", Path: path, Err: errNotArray}
	}

	loaded := make([]Expense, 0, len(raw))
	for i, item := range raw {
		var e Expense
		if err := json.Unmarshal(item, &e); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return fmt.Errorf("load %s: record %d: %w", path, i, verr)
			}
			return &StorageError{Op: "load", Path: path, Err: fmt.Errorf("record %d: %w", i, err)}
		}
		loaded = append(loaded, e)
	}
	t.replace(loaded)
	return nil
}
