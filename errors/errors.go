package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in module processing the error occurred
type Phase string

const (
	PhaseResolve  Phase = "resolve"  // specifier resolution
	PhaseFetch    Phase = "fetch"    // source retrieval
	PhaseCompile  Phase = "compile"  // engine compilation
	PhaseRegister Phase = "register" // registry mutation
	PhaseLink     Phase = "link"     // resolution callback / instantiation
	PhaseEvaluate Phase = "evaluate" // module evaluation
	PhaseSnapshot Phase = "snapshot" // snapshot encode/decode
)

// Kind categorizes the error
type Kind string

const (
	KindResolution    Kind = "resolution"     // loader cannot map specifier to name
	KindFetch         Kind = "fetch"          // source unavailable
	KindCompile       Kind = "compile"        // engine diagnostic, carried verbatim
	KindAssertion     Kind = "assertion"      // invalid/unsupported import assertion
	KindDuplicateMain Kind = "duplicate_main" // second main-module registration
	KindInternal      Kind = "internal"       // registry/engine desynchronization
	KindParse         Kind = "parse"          // malformed JSON module text
	KindCycle         Kind = "cycle"          // alias chain never reaches a module
	KindInvalidData   Kind = "invalid_data"   // malformed snapshot payload
	KindNotFound      Kind = "not_found"      // unknown module, handle or id
)

// Error is the structured error type used throughout the host
type Error struct {
	Cause     error
	Phase     Phase
	Kind      Kind
	Specifier string
	Referrer  string
	Detail    string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Specifier != "" {
		b.WriteString(": ")
		b.WriteString(fmt.Sprintf("%q", e.Specifier))
		if e.Referrer != "" {
			b.WriteString(" from ")
			b.WriteString(fmt.Sprintf("%q", e.Referrer))
		}
	}

	if e.Detail != "" {
		if e.Specifier != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by phase and kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Specifier sets the module specifier involved
func (b *Builder) Specifier(s string) *Builder {
	b.err.Specifier = s
	return b
}

// Referrer sets the importing module's name
func (b *Builder) Referrer(r string) *Builder {
	b.err.Referrer = r
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Resolution creates an error for a specifier the loader cannot resolve
func Resolution(specifier, referrer string, cause error) *Error {
	return &Error{
		Phase:     PhaseResolve,
		Kind:      KindResolution,
		Specifier: specifier,
		Referrer:  referrer,
		Cause:     cause,
	}
}

// Fetch creates an error for unavailable module source
func Fetch(name string, cause error) *Error {
	return &Error{
		Phase:     PhaseFetch,
		Kind:      KindFetch,
		Specifier: name,
		Cause:     cause,
	}
}

// Compile wraps an engine diagnostic without reinterpreting it.
// The diagnostic stays reachable through Unwrap for user-visible reporting.
func Compile(name string, diagnostic error) *Error {
	return &Error{
		Phase:     PhaseCompile,
		Kind:      KindCompile,
		Specifier: name,
		Cause:     diagnostic,
	}
}

// Assertion creates an error for an invalid or unsupported import assertion
func Assertion(specifier, detail string) *Error {
	return &Error{
		Phase:     PhaseCompile,
		Kind:      KindAssertion,
		Specifier: specifier,
		Detail:    detail,
	}
}

// DuplicateMain reports a second main-module registration.
// Both the attempted and the pre-existing main module are named.
func DuplicateMain(attempted, existing string) *Error {
	return &Error{
		Phase:     PhaseRegister,
		Kind:      KindDuplicateMain,
		Specifier: attempted,
		Detail:    fmt.Sprintf("trying to create main module %q when one already exists (%q)", attempted, existing),
	}
}

// Internal reports registry/engine desynchronization. Not recoverable;
// hosts must treat it as fatal.
func Internal(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindInternal,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Parse wraps a JSON parser diagnostic for a module body
func Parse(name string, diagnostic error) *Error {
	return &Error{
		Phase:     PhaseCompile,
		Kind:      KindParse,
		Specifier: name,
		Cause:     diagnostic,
	}
}

// Cycle reports an alias chain that never terminates at a concrete module
func Cycle(name string, chain []string) *Error {
	return &Error{
		Phase:     PhaseResolve,
		Kind:      KindCycle,
		Specifier: name,
		Detail:    fmt.Sprintf("alias cycle: %s", strings.Join(chain, " -> ")),
	}
}

// InvalidData creates an error for malformed persisted or input data
func InvalidData(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindNotFound,
		Specifier: name,
		Detail:    fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
