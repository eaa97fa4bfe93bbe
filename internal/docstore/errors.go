package docstore

import (
	"fmt"

	"github.com/mithril-search/mithril/pkg/failure"
)

type ErrorCause string

const (
	ErrCauseOpenFailure  ErrorCause = "open failure"
	ErrCauseWriteFailure ErrorCause = "write failure"
	ErrCauseReadFailure  ErrorCause = "read failure"
	ErrCauseDecodeFailure ErrorCause = "decode failure"
)

type Error struct {
	Message   string
	Retryable bool
	Cause     ErrorCause
}

func (e *Error) Error() string {
	return fmt.Sprintf("docstore: %s: %s", e.Cause, e.Message)
}

func (e *Error) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
