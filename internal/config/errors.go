package config

import (
	"fmt"
	"io/fs"
)

// DocumentNotFoundError is returned when a configuration document path does not resolve.
type DocumentNotFoundError struct {
	Path string
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("config document not found: %s", e.Path)
}

// Unwrap lets callers match with errors.Is(err, fs.ErrNotExist).
func (e *DocumentNotFoundError) Unwrap() error {
	return fs.ErrNotExist
}

// DocumentEmptyError is returned when a document parses to no content.
type DocumentEmptyError struct {
	Path string
}

func (e *DocumentEmptyError) Error() string {
	return fmt.Sprintf("config document is empty: %s", e.Path)
}

// DocumentParseError is returned for malformed YAML or a document whose shape
// does not match the expected structure.
type DocumentParseError struct {
	Path string
	Err  error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("parsing config document %s: %v", e.Path, e.Err)
}

func (e *DocumentParseError) Unwrap() error {
	return e.Err
}

// MissingHyperparameterError is returned when a named hyperparameter is absent
// from its section of the hyperparameters document.
type MissingHyperparameterError struct {
	Section string
	Key     string
}

func (e *MissingHyperparameterError) Error() string {
	return fmt.Sprintf("hyperparameter %s.%s is not set", e.Section, e.Key)
}
