// Package errors provides error wrapping with slog annotations and source
// locations so that failures can be logged with full context at the edge of
// the application instead of at every call site.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// annotatedError carries a message, optional slog attributes, and the source
// location where the error was created.
type annotatedError struct {
	msg    string
	err    error
	attrs  []slog.Attr
	source string
}

func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// callerSource returns "file.go:line" for the caller skip frames up.
func callerSource(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		file = file[i+1:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// NewSentinel creates a sentinel error suitable for errors.Is comparisons.
func NewSentinel(msg string) error {
	return errors.New(msg)
}

// New creates an error annotated with the caller's source location.
func New(msg string, attrs ...slog.Attr) error {
	return &annotatedError{
		msg:    msg,
		err:    nil,
		attrs:  attrs,
		source: callerSource(1),
	}
}

// Wrap annotates err with a message and optional slog attributes. The
// resulting error participates in errors.Is/As/Unwrap chains.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return &annotatedError{
		msg:    msg,
		err:    err,
		attrs:  attrs,
		source: callerSource(1),
	}
}

// DecoratePanic converts a recovered panic value into an annotated error
// pointing at the panic site.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	const skipToPanicSite = 3
	return &annotatedError{
		msg:    fmt.Sprintf("panic: %v", recovered),
		err:    nil,
		attrs:  nil,
		source: callerSource(skipToPanicSite),
	}
}

// SlogError renders err as a slog group attribute including the message, any
// annotations collected along the wrap chain, and the innermost source
// location.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}

	var (
		annotations []slog.Attr
		source      string
	)
	collectAnnotations(err, &annotations, &source)

	groupAttrs := []any{slog.String("message", err.Error())}
	if source != "" {
		groupAttrs = append(groupAttrs, slog.String("source", source))
	}
	if len(annotations) > 0 {
		anyAttrs := make([]any, len(annotations))
		for i, attr := range annotations {
			anyAttrs[i] = attr
		}
		groupAttrs = append(groupAttrs, slog.Group("annotations", anyAttrs...))
	}

	return slog.Group("error", groupAttrs...)
}

// collectAnnotations walks the error tree gathering attributes and the
// deepest source location.
func collectAnnotations(err error, annotations *[]slog.Attr, source *string) {
	for err != nil {
		var annotated *annotatedError
		if errors.As(err, &annotated) {
			*annotations = append(*annotations, annotated.attrs...)
			if annotated.source != "" {
				*source = annotated.source
			}
			err = annotated.err
			continue
		}
		// Multi-errors from errors.Join expose Unwrap() []error.
		if multi, ok := err.(interface{ Unwrap() []error }); ok {
			for _, joined := range multi.Unwrap() {
				collectAnnotations(joined, annotations, source)
			}
			return
		}
		err = errors.Unwrap(err)
	}
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join wraps multiple errors into one.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
