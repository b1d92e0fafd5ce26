package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per error kind. Use errors.Is to classify a returned error.
var (
	ErrSyntax = errors.New("rule syntax error")
	ErrBuild  = errors.New("matcher build error")
	ErrURL    = errors.New("url error")
)

// SyntaxError reports a malformed rule line. Construction stops at the first one.
type SyntaxError struct {
	Line   int
	Text   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: invalid rule syntax %q: %s", e.Line, e.Text, e.Reason)
}

// Is makes errors.Is(err, ErrSyntax) true.
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// BuildError reports a rule that parsed but could not be compiled into its matcher.
type BuildError struct {
	Line int
	Text string
	Err  error
}

func (e *BuildError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("failed to build matcher: %v", e.Err)
	}
	return fmt.Sprintf("line %d: failed to build matcher for %q: %v", e.Line, e.Text, e.Err)
}

// Unwrap returns the underlying compiler error.
func (e *BuildError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrBuild) true.
func (e *BuildError) Is(target error) bool { return target == ErrBuild }

// URLError reports a URL that cannot be decomposed into at least a scheme and a host.
// It never affects the engine that returned it.
type URLError struct {
	URL string
	Err error
}

func (e *URLError) Error() string {
	return fmt.Sprintf("invalid url %q: %v", e.URL, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *URLError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrURL) true.
func (e *URLError) Is(target error) bool { return target == ErrURL }
