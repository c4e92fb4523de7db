package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/dmitrijs2005/feedbackhub/internal/common"
	"github.com/dmitrijs2005/feedbackhub/internal/server/validation"
)

// RejectedError is returned when user input is refused. Nothing has been
// written when a service returns it. Fields maps form field names to
// messages and may be nil.
type RejectedError struct {
	Reason string
	Fields map[string]string
}

func (e *RejectedError) Error() string {
	if len(e.Fields) == 0 {
		return "rejected: " + e.Reason
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "rejected: " + e.Reason + " (" + strings.Join(parts, "; ") + ")"
}

func reject(reason string, fields map[string]string) error {
	return &RejectedError{Reason: reason, Fields: fields}
}

// rejectInvalid turns a validator error into a RejectedError.
func rejectInvalid(err error) error {
	if fields := validation.FieldErrors(err); fields != nil {
		return reject("invalid input", fields)
	}
	return err
}

// IsRejected reports whether err is (or wraps) a RejectedError.
func IsRejected(err error) bool {
	var r *RejectedError
	return errors.As(err, &r)
}

// Outcome tags the result of a service call for callers that only need to
// branch: show a form error, deny access, or log and fail.
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeRejected     Outcome = "rejected"
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeFault        Outcome = "fault"
)

func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case IsRejected(err):
		return OutcomeRejected
	case errors.Is(err, common.ErrorUnauthorized):
		return OutcomeUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return OutcomeNotFound
	default:
		return OutcomeFault
	}
}
