package config

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalid matches every *ValidationError.
var ErrInvalid = errors.New("invalid config")

// ValidationError reports one invalid manifest field.
type ValidationError struct {
	Field   string // e.g. "operators[1].library"
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Details)
}

// Is makes errors.Is(err, ErrInvalid) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Validate checks the manifest for values no component can run with.
func (c Config) Validate() error {
	if c.InstallDir == "" {
		return &ValidationError{Field: "install_dir", Details: "must not be empty"}
	}
	switch c.Source {
	case SourceNative, SourceBuiltin:
	default:
		return &ValidationError{Field: "source", Details: fmt.Sprintf("unknown source %q (want %q or %q)", c.Source, SourceNative, SourceBuiltin)}
	}
	if c.ABIVersion < 0 {
		return &ValidationError{Field: "abi_version", Details: "must not be negative"}
	}
	if c.Source == SourceNative {
		if c.LibraryDir == "" {
			return &ValidationError{Field: "library_dir", Details: "must not be empty"}
		}
		if c.AutoBuild && (c.BuildCommand == "" || c.RecipeDir == "") {
			return &ValidationError{Field: "build_command", Details: "auto_build needs build_command and recipe_dir"}
		}
	}
	if len(c.Operators) == 0 {
		return &ValidationError{Field: "operators", Details: "at least one operator is required"}
	}

	names := make(map[string]int, len(c.Operators))
	for i, op := range c.Operators {
		field := fmt.Sprintf("operators[%d]", i)
		if op.Name == "" {
			return &ValidationError{Field: field + ".name", Details: "must not be empty"}
		}
		if j, dup := names[op.Name]; dup {
			return &ValidationError{Field: field + ".name", Details: fmt.Sprintf("%q already declared at operators[%d]", op.Name, j)}
		}
		names[op.Name] = i
		if op.Slope != nil && *op.Slope < 0 {
			return &ValidationError{Field: field + ".slope", Details: "must not be negative"}
		}
		if c.Source == SourceNative && op.Library == "" {
			return &ValidationError{Field: field + ".library", Details: "must not be empty"}
		}
	}
	return nil
}
