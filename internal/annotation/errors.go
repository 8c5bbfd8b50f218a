package annotation

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every decode failure wraps exactly one of these.
var (
	ErrSchemaViolation     = errors.New("schema violation")
	ErrAmbiguousInput      = errors.New("ambiguous input")
	ErrUnparsableReference = errors.New("unparsable page reference")
	ErrUnrecognizedTask    = errors.New("unrecognized task")
	ErrUnknownControlValue = errors.New("unknown control value")
)

// DecodeError is a fatal decode failure with enough context for an operator
// to find the source row or extend the vocabulary.
type DecodeError struct {
	Kind   error
	Page   int
	Task   string
	Value  string
	Detail string

	hasPage bool
}

func (e *DecodeError) Error() string {
	parts := []string{e.Kind.Error()}
	if e.hasPage {
		parts = append(parts, fmt.Sprintf("page %d", e.Page))
	}
	if e.Task != "" {
		parts = append(parts, "task "+e.Task)
	}
	msg := strings.Join(parts, ": ")
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" (value %q)", e.Value)
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

// HasPage reports whether a page number has been attached.
func (e *DecodeError) HasPage() bool {
	return e.hasPage
}

// Errorf builds a DecodeError of the given kind.
func Errorf(kind error, task, value, format string, args ...any) *DecodeError {
	return &DecodeError{
		Kind:   kind,
		Task:   task,
		Value:  value,
		Detail: fmt.Sprintf(format, args...),
	}
}

// AtPage attaches a page number to the DecodeError inside err, if it does
// not already carry one. Other errors are returned unchanged.
func AtPage(err error, page int) error {
	var de *DecodeError
	if errors.As(err, &de) && !de.hasPage {
		de.Page = page
		de.hasPage = true
	}
	return err
}

// WithTask names the task on the DecodeError inside err, if it has none.
func WithTask(err error, task string) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Task == "" {
		de.Task = task
	}
	return err
}
