package index

import (
	"fmt"

	"github.com/mithril-search/mithril/pkg/failure"
)

// ErrorCause classifies why an index build or read operation failed.
type ErrorCause string

const (
	ErrCauseOpenFailure   ErrorCause = "open failure"
	ErrCauseWriteFailure  ErrorCause = "write failure"
	ErrCauseDecodeFailure ErrorCause = "decode failure"
	ErrCauseCorruptData   ErrorCause = "corrupt data"
)

// Error is the ClassifiedError raised by the index package. Per spec §7,
// a missing required file at startup is fatal; everything mid-build is
// recoverable only by aborting the whole (all-or-nothing) build.
type Error struct {
	Message   string
	Retryable bool
	Cause     ErrorCause
}

func (e *Error) Error() string {
	return fmt.Sprintf("index: %s: %s", e.Cause, e.Message)
}

// Severity implements failure.ClassifiedError.
func (e *Error) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
