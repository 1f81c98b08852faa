package session

import (
	"errors"
	"fmt"

	"github.com/jonathan/recruit-search/internal/apiclient"
)

// ErrSuperseded is returned when a response arrives for a request that a
// newer search or a reset has already replaced. The response is discarded.
var ErrSuperseded = errors.New("response superseded by a newer request")

// ValidationError is returned when an operation is rejected locally,
// before any request is issued. State is left unchanged.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NoticeKind classifies a user-visible error notice.
type NoticeKind string

const (
	NoticeTransport           NoticeKind = "transport"
	NoticeInsufficientCredits NoticeKind = "insufficient_credits"
)

// Notice is the dismissible error shown after a failed operation.
type Notice struct {
	Kind    NoticeKind
	Op      string
	Message string
	Detail  string
}

func noticeFor(op string, err error) *Notice {
	if apiclient.IsInsufficientCredits(err) {
		return &Notice{
			Kind:    NoticeInsufficientCredits,
			Op:      op,
			Message: "You do not have enough credits for this action.",
			Detail:  err.Error(),
		}
	}
	return &Notice{
		Kind:    NoticeTransport,
		Op:      op,
		Message: fmt.Sprintf("%s failed. Please try again.", opLabel(op)),
		Detail:  err.Error(),
	}
}

func opLabel(op string) string {
	switch op {
	case opSearch:
		return "Search"
	case opUnlock:
		return "Unlocking contact"
	case opShortlist:
		return "Shortlisting"
	case opShortlisted:
		return "Loading the shortlist"
	case opCandidate:
		return "Loading the candidate"
	default:
		return "Request"
	}
}
