package inject

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FailureClass partitions injector failures by retry policy.
type FailureClass int

const (
	// ClassTransient marks timing/buffer/decode failures; the same method
	// is safe to retry on a later call once any cooldown expires.
	ClassTransient FailureClass = iota
	// ClassFatal marks missing-capability or authorization failures; the
	// method is cooled down immediately for the current application.
	ClassFatal
)

// String returns the log name of the class.
func (c FailureClass) String() string {
	if c == ClassFatal {
		return "fatal"
	}
	return "transient"
}

// AttemptError is the error contract injectors return: the underlying
// cause plus a self-assigned failure class and, for fatal failures, a
// concrete remediation the terminal diagnostic can surface.
type AttemptError struct {
	Class       FailureClass
	Remediation string
	Err         error
}

func (e *AttemptError) Error() string {
	if e.Err == nil {
		return e.Class.String() + " injection failure"
	}
	return e.Err.Error()
}

func (e *AttemptError) Unwrap() error { return e.Err }

// Transient wraps err as a retryable attempt failure.
func Transient(err error) *AttemptError {
	return &AttemptError{Class: ClassTransient, Err: err}
}

// Transientf formats a retryable attempt failure.
func Transientf(format string, args ...any) *AttemptError {
	return Transient(fmt.Errorf(format, args...))
}

// Fatal wraps err as a non-retryable attempt failure carrying the user
// action that would fix it.
func Fatal(err error, remediation string) *AttemptError {
	return &AttemptError{Class: ClassFatal, Remediation: remediation, Err: err}
}

// ErrorKind tags the terminal injection error.
type ErrorKind int

const (
	KindTimeout ErrorKind = iota
	KindMethodFailed
	KindNoEditableFocus
	KindDenylisted
	KindPaused
	KindBudgetExhausted
	KindAllMethodsFailed
)

var errorKindNames = map[ErrorKind]string{
	KindTimeout:          "timeout",
	KindMethodFailed:     "method_failed",
	KindNoEditableFocus:  "no_editable_focus",
	KindDenylisted:       "denylisted",
	KindPaused:           "paused",
	KindBudgetExhausted:  "budget_exhausted",
	KindAllMethodsFailed: "all_methods_failed",
}

// String returns the stable log name of the kind.
func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error_kind(%d)", int(k))
}

// AttemptFailure records one failed method attempt for the diagnostic
// trail. Remediation carries the injector's own hint for fatal failures.
type AttemptFailure struct {
	Method      Method
	Class       FailureClass
	Reason      string
	Remediation string
	Duration    time.Duration
}

// Error is the terminal structured diagnostic returned by Inject. It
// carries the attempted-method trail and a remediation, never the
// injected text itself.
type Error struct {
	Kind        ErrorKind
	App         string
	Attempts    []AttemptFailure
	Remediation string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("injection failed (")
	b.WriteString(e.Kind.String())
	b.WriteString(")")
	if e.App != "" {
		fmt.Fprintf(&b, " for app %q", e.App)
	}
	if len(e.Attempts) > 0 {
		b.WriteString(": ")
		for i, a := range e.Attempts {
			if i > 0 {
				b.WriteString("; ")
			}
			fmt.Fprintf(&b, "%s: %s (%s)", a.Method, a.Reason, a.Class)
		}
	}
	if e.Remediation != "" {
		b.WriteString(" — ")
		b.WriteString(e.Remediation)
	}
	return b.String()
}

// IsKind reports whether err is an injection Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind == kind
	}
	return false
}

// remediationFor picks the most actionable remediation from the attempt
// trail: the first fatal failure's own remediation wins, then the
// injector-level hint for its method, then a generic fallback.
func remediationFor(attempts []AttemptFailure, remediations map[Method]string) string {
	for _, a := range attempts {
		if a.Class != ClassFatal {
			continue
		}
		if a.Remediation != "" {
			return a.Remediation
		}
		if r, ok := remediations[a.Method]; ok && r != "" {
			return r
		}
	}
	return "run `scrivo doctor` to diagnose missing injection capabilities"
}
