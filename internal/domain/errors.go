package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrEmptyDocument       = errors.New("no text could be extracted from the document")
	ErrInvalidFilename     = errors.New("invalid filename")
	ErrArtifactNotFound    = errors.New("artifact not found")
	ErrArtifactExists      = errors.New("artifact already exists")
)

// ModelCallError reports a model backend that was unreachable or answered with an error.
type ModelCallError struct {
	Provider string
	Model    string
	Stage    string // "primary" or a category name
	Err      error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model call %s failed (%s/%s): %v", e.Stage, e.Provider, e.Model, e.Err)
}

func (e *ModelCallError) Unwrap() error {
	return e.Err
}

// FragmentParseError reports a category fragment that is not a JSON object after cleaning.
type FragmentParseError struct {
	Category Category
	Raw      string
	Err      error
}

func (e *FragmentParseError) Error() string {
	return fmt.Sprintf("parsing %s fragment: %v", e.Category, e.Err)
}

func (e *FragmentParseError) Unwrap() error {
	return e.Err
}

// AssemblyError aggregates the fragments that could not be parsed. The record
// returned next to it is still complete in shape; failed sections hold defaults.
type AssemblyError struct {
	Failures []*FragmentParseError
}

func (e *AssemblyError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, string(f.Category))
	}
	return fmt.Sprintf("assembly incomplete: %d fragment(s) unparseable: %s", len(e.Failures), strings.Join(names, ", "))
}

// Unwrap exposes the individual fragment failures to errors.As.
func (e *AssemblyError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// Categories lists the failed categories in the order they were recorded.
func (e *AssemblyError) Categories() []Category {
	out := make([]Category, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Category)
	}
	return out
}

// RenderError is returned when a record handed to structured rendering lacks a whole section.
type RenderError struct {
	Section string
	Reason  string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render: section %q: %s", e.Section, e.Reason)
}
