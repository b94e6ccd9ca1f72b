package model

import "fmt"

// Kind is the error taxonomy from spec.md §7. It is a classification,
// not a Go type hierarchy — httpapi maps a Kind to an HTTP status and
// every other subsystem only ever needs to compare against it.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindSignatureInvalid  Kind = "signature_invalid"
	KindAuthRequired      Kind = "auth_required"
	KindRepoUnreachable   Kind = "repo_unreachable"
	KindDockerfileMissing Kind = "dockerfile_missing"
	KindDockerfileBad     Kind = "dockerfile_malformed"
	KindTemplateRender    Kind = "template_render_error"
	KindInvalidResource   Kind = "invalid_resource_path"
	KindBuildFailed       Kind = "build_failed"
	KindPushFailed        Kind = "push_failed"
	KindHostNotFound      Kind = "host_not_found"
	KindRemoteExecFailed  Kind = "remote_exec_failed"
	KindInternal          Kind = "internal"
)

// Error is the one error type every component in this module returns for
// anything an HTTP caller needs to distinguish. Unexpected stdlib/library
// errors get wrapped as KindInternal at the boundary where they're first
// handled, never propagated raw to httpapi.
type Error struct {
	Kind    Kind
	Message string
	// Command and Output are populated for KindBuildFailed/KindRemoteExecFailed
	// per spec.md §7 ("carries the command that failed and the tail of
	// its output").
	Command string
	Output  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a model.Error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a model.Error of the given kind around an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WrapBuildFailed attaches the failing command and trailing output, as
// spec.md §7 requires for BuildFailed/RemoteExecFailed.
func WrapBuildFailed(kind Kind, command, output string, err error) *Error {
	return &Error{Kind: kind, Message: "command failed", Command: command, Output: output, Err: err}
}

// AsError reports whether err (or something it wraps) is a *Error and
// returns it.
func AsError(err error) (*Error, bool) {
	var target *Error
	if err == nil {
		return nil, false
	}
	if e, ok := err.(*Error); ok {
		return e, true
	}
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return AsError(u.Unwrap())
	}
	return target, false
}
