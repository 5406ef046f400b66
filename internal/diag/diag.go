// Package diag implements §7's error-kind taxonomy: four recoverability
// kinds, only one of which (Configuration error) is ever surfaced as a
// fatal Go error that aborts a run.
package diag

import "golang.org/x/xerrors"

// Kind classifies a diagnostic by how the pipeline should recover from
// it (§7).
type Kind int

const (
	// InputMissing: a referenced node/binding/type couldn't be resolved.
	// Degrade to Maybe or skip the site; never fatal.
	InputMissing Kind = iota
	// IntegrityViolation: the observed state contradicts an invariant
	// the pipeline assumes (e.g. a class registered twice with
	// different supers). Log and skip the current site; never abort
	// the file.
	IntegrityViolation
	// InternalException: a panic recovered at the call-site loop
	// boundary (overload resolver, invocation-type engine). Logged with
	// wrapped stack context; processing continues.
	InternalException
	// ConfigError: no files to process, or the run's deadline elapsed.
	// Fatal: the run aborts and its *AnalysisContext is discarded.
	ConfigError
)

func (k Kind) String() string {
	switch k {
	case InputMissing:
		return "input-missing"
	case IntegrityViolation:
		return "integrity-violation"
	case InternalException:
		return "internal-exception"
	case ConfigError:
		return "configuration-error"
	default:
		return "unknown"
	}
}

// Diagnostic is a single recorded event of one of the four kinds. Only
// InternalException and ConfigError carry a Cause; the other two kinds
// are plain recoverable control values by construction, never wrapping a
// Go error (§9's "re-architect exception-for-control-flow" note).
type Diagnostic struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface so a Diagnostic of kind
// ConfigError can be returned directly from a fatal path; formatting the
// other three kinds as errors is a programmer mistake, since they're
// meant to be reported through a ProgressReporter instead.
func (d *Diagnostic) Error() string {
	if d.Cause != nil {
		return xerrors.Errorf("%s: %s: %w", d.Kind, d.Message, d.Cause).Error()
	}
	return d.Kind.String() + ": " + d.Message
}

func (d *Diagnostic) Unwrap() error { return d.Cause }

// New builds a recoverable (non-fatal) Diagnostic for InputMissing or
// IntegrityViolation, meant to be handed to a ProgressReporter, never
// returned as an error.
func New(kind Kind, message string) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: message}
}

// Wrap builds an InternalException diagnostic around a recovered panic
// value or propagated cause, %w-chained via xerrors per §7.
func Wrap(message string, cause error) *Diagnostic {
	return &Diagnostic{Kind: InternalException, Message: message, Cause: cause}
}

// ConfigErrorf builds a fatal ConfigError diagnostic, returned directly
// as the error from AnalysisContext.Run's caller-facing entry point.
func ConfigErrorf(format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: ConfigError, Message: xerrors.Errorf(format, args...).Error()}
}
