package rules

import (
	"fmt"
	"regexp"
)

// Predicate reports whether a value should be excluded
type Predicate func(string) bool

// CompileError identifies the pattern that failed to compile
type CompileError struct {
	Field   string
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("regex %q for %s did not compile: %v", e.Pattern, e.Field, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Matchers holds the compiled exclusion predicates
type Matchers struct {
	Mountpoint Predicate
	Device     Predicate
}

// Compile builds both exclusion predicates. Matching is case-insensitive and
// anchored at the start of the subject. An empty pattern never excludes.
func Compile(doc *Document) (*Matchers, error) {
	mountpoint, err := compilePattern("mountpoint_ignore_patterns", doc.MountpointIgnorePatterns)
	if err != nil {
		return nil, err
	}
	device, err := compilePattern("filesystem_ignore_patterns", doc.FilesystemIgnorePatterns)
	if err != nil {
		return nil, err
	}
	return &Matchers{Mountpoint: mountpoint, Device: device}, nil
}

func compilePattern(field, pattern string) (Predicate, error) {
	if pattern == "" {
		return func(string) bool { return false }, nil
	}

	// validate the pattern on its own first so errors point at user input
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, &CompileError{Field: field, Pattern: pattern, Err: err}
	}
	re, err := regexp.Compile(`(?i)^(?:` + pattern + `)`)
	if err != nil {
		return nil, &CompileError{Field: field, Pattern: pattern, Err: err}
	}
	return re.MatchString, nil
}
