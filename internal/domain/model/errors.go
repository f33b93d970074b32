package model

import "errors"

// Sentinel kinds for model errors. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig     = errors.New("invalid analysis config")
	ErrIllegalTransition = errors.New("illegal job transition")
)

// JobError carries a classified failure across the job boundary. The
// scheduler extracts the ErrorInfo without inspecting the underlying domain
// error.
type JobError struct {
	Info ErrorInfo
}

// NewJobError wraps a message under the given error kind.
func NewJobError(kind ErrorKind, msg string) *JobError {
	return &JobError{Info: ErrorInfo{Kind: kind, Message: msg}}
}

// Error implements the error interface.
func (e *JobError) Error() string {
	return string(e.Info.Kind) + ": " + e.Info.Message
}

// ErrorInfoFrom extracts a classified ErrorInfo from err, reporting whether
// one was present.
func ErrorInfoFrom(err error) (ErrorInfo, bool) {
	var je *JobError
	if errors.As(err, &je) {
		return je.Info, true
	}
	return ErrorInfo{}, false
}
