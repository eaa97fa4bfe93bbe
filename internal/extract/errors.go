package extract

import (
	"fmt"

	"github.com/mithril-search/mithril/pkg/failure"
)

type ErrorCause string

const (
	ErrCauseNotHTML   ErrorCause = "not html"
	ErrCauseNoContent ErrorCause = "no content"
)

type Error struct {
	Message   string
	Retryable bool
	Cause     ErrorCause
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract: %s: %s", e.Cause, e.Message)
}

func (e *Error) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
