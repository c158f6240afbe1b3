package errors

import (
	"fmt"
	"regexp"
	"strings"
)

// maxNameLength is the longest node name the control tree accepts.
const maxNameLength = 255

// nameRegex matches the names accepted for devices and their entities.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9._\- ]+$`)

// ValidateName validates a device or entity name.
// Names become directory names in the control tree, so they must be a
// single path component.
//
// Validation rules:
//   - No empty names
//   - Maximum length of 255 bytes
//   - Only letters, digits, '.', '_', '-' and spaces
//   - Not "." or ".."
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "name too long (max %d characters)", maxNameLength)
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidName, "name cannot be %q", name)
	}

	if !nameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "name %q contains invalid characters (allowed: letters, digits, '.', '_', '-', space)", name)
	}

	return nil
}

// Violation is a single structural problem found in a topology.
type Violation struct {
	Entity string // e.g. `plane "p0"` or `device "dev1"`
	Field  string // e.g. "possible_crtcs"; empty for the entity itself
	Value  string // offending value, if any
	Reason string
}

// String formats the violation as a single line.
func (v Violation) String() string {
	var b strings.Builder
	b.WriteString(v.Entity)
	if v.Field != "" {
		fmt.Fprintf(&b, ": %s", v.Field)
	}
	if v.Value != "" {
		fmt.Fprintf(&b, " %q", v.Value)
	}
	fmt.Fprintf(&b, ": %s", v.Reason)
	return b.String()
}

// ValidationError reports every structural violation found in a topology.
// It is never truncated to the first problem.
type ValidationError struct {
	Device     string
	Violations []Violation
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		lines = append(lines, v.String())
	}
	return fmt.Sprintf("%s: device %q has %d violation(s): %s",
		ErrCodeInvalidTopology, e.Device, len(e.Violations), strings.Join(lines, "; "))
}

// Add records a violation.
func (e *ValidationError) Add(entity, field, value, reason string) {
	e.Violations = append(e.Violations, Violation{Entity: entity, Field: field, Value: value, Reason: reason})
}

// ErrOrNil returns e if it holds at least one violation, nil otherwise.
func (e *ValidationError) ErrOrNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}
