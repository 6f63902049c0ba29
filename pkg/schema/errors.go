package schema

import (
	"errors"
	"fmt"

	"github.com/oakwood-commons/propinspect/pkg/directive"
)

// Configuration errors. A schema that produces any of them is unusable until
// its source changes.
var (
	ErrDuplicateProperty   = errors.New("duplicate property name")
	ErrMissingShowIfTarget = errors.New("showIf target is not a declared property")
	ErrMalformedGroup      = errors.New("malformed group reference")
	ErrDuplicateGroup      = errors.New("duplicate main group")
	ErrInvalidOperator     = errors.New("invalid showIf operator")
	ErrInvalidExpression   = errors.New("invalid showIf expression")
	ErrInvalidDirective    = errors.New("invalid directive")
)

// ConfigError reports a fatal schema-build problem on one property.
type ConfigError struct {
	Property  string
	Directive directive.Kind
	Err       error
	Detail    string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("property %q", e.Property)
	if e.Directive != "" {
		msg += fmt.Sprintf(" (%s)", e.Directive)
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is a non-fatal finding reported alongside a build result.
type Diagnostic struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Property string   `json:"property" yaml:"property"`
	Message  string   `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Property, d.Message)
}
