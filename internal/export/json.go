package export

import (
	"fmt"
	"os"

	"github.com/dhkang92/lodo/internal/todo"
)

// ToJSON writes the full tracker state to path as a versioned backup
// envelope, the same shape ImportFile and the friend service's backup
// endpoint accept.
func ToJSON(state todo.State, path string) error {
	data, err := todo.ExportJSON(state)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// ImportFile reads a backup file and returns the normalized state. The
// file may hold the versioned envelope or a bare state object, possibly
// with paste artifacts.
func ImportFile(path string) (todo.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return todo.State{}, fmt.Errorf("read backup file: %w", err)
	}
	return todo.ImportJSON(string(data))
}
