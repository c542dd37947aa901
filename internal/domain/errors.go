package domain

import "fmt"

// LoadError reports that the source table could not be fetched or decoded.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load station table from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// NotLoadedError reports an operation invoked before its prerequisite
// pipeline step has run, e.g. computing means before extraction.
type NotLoadedError struct {
	Op string
}

func (e *NotLoadedError) Error() string {
	return e.Op + ": station table not loaded"
}

// MalformedNumberError reports a pattern match whose captured text is not a
// valid floating-point number. ExtractAll treats this as "no measurement"
// for the row; callers of ExtractOne see the error directly.
type MalformedNumberError struct {
	Kind    string
	Capture string
	Err     error
}

func (e *MalformedNumberError) Error() string {
	return fmt.Sprintf("pattern %q captured malformed number %q", e.Kind, e.Capture)
}

func (e *MalformedNumberError) Unwrap() error { return e.Err }
