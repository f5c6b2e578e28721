package casework

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a casework failure so the transport can map it to a response
type Kind int

// Error kinds
const (
	KindValidation Kind = iota + 1 // precondition not met: empty field, range, wrong role
	KindSend                       // a chat message could not be sent as written
	KindForbidden                  // principal is not a participant of the case
	KindNotFound
	KindConflict // conditional write kept losing to concurrent writers
	KindRead
	KindWrite
	KindUpload
	KindAnalysis
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindSend:
		return "SendError"
	case KindForbidden:
		return "ForbiddenError"
	case KindNotFound:
		return "NotFoundError"
	case KindConflict:
		return "ConflictError"
	case KindRead:
		return "ReadError"
	case KindWrite:
		return "WriteError"
	case KindUpload:
		return "UploadError"
	case KindAnalysis:
		return "AnalysisError"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by every casework operation
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or 0 when err did not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries kind k
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

func newError(k Kind, op, msg string, err error) *Error {
	return &Error{Kind: k, Op: op, Msg: msg, Err: err}
}

func validationError(op, format string, args ...interface{}) *Error {
	return newError(KindValidation, op, fmt.Sprintf(format, args...), nil)
}

func writeError(op string, err error) *Error {
	return newError(KindWrite, op, "store write failed", err)
}

func readError(op string, err error) *Error {
	return newError(KindRead, op, "store read failed", err)
}

// NewUploadError wraps an attachment upload failure
func NewUploadError(op string, err error) error {
	return newError(KindUpload, op, "upload failed", err)
}
