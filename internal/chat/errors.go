package chat

import (
	"context"
	"os"
	"regexp"

	"github.com/pkg/errors"
)

// Upload failure reasons. Errors returned by [Sender.SendFile] match one of
// these with errors.Is, or none for anything else.
var (
	ErrTooLarge     = errors.New("file too large")
	ErrChatNotFound = errors.New("chat not found")
	ErrTimeout      = errors.New("upload timed out")
	ErrFileNotFound = errors.New("file not found")
	ErrNotAFile     = errors.New("not a regular file")
	ErrNotGroup     = errors.New("not a group or channel")
)

// Pre-compiled patterns for classifying Bot API error descriptions.
var (
	reChatNotFound = regexp.MustCompile(`(?i)chat not found|chat_id is empty|peer_id_invalid`)
	reTooLarge     = regexp.MustCompile(`(?i)request entity too large|file is too big`)
	reTimeout      = regexp.MustCompile(`(?i)timed? ?out|deadline exceeded`)
)

// failure pairs a reason sentinel with the underlying error.
type failure struct {
	reason error
	cause  error
}

func (f *failure) Error() string {
	if f.cause == nil {
		return f.reason.Error()
	}
	return f.reason.Error() + ": " + f.cause.Error()
}

func (f *failure) Is(target error) bool { return target == f.reason }
func (f *failure) Unwrap() error        { return f.cause }

// Classify maps err onto one of the reason sentinels when it recognizes it.
// Unrecognized errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrTooLarge, ErrChatNotFound, ErrTimeout, ErrFileNotFound, ErrNotAFile} {
		if errors.Is(err, known) {
			return err
		}
	}
	var reason error
	switch msg := err.Error(); {
	case errors.Is(err, context.DeadlineExceeded):
		reason = ErrTimeout
	case errors.Is(err, os.ErrNotExist):
		reason = ErrFileNotFound
	case reChatNotFound.MatchString(msg):
		reason = ErrChatNotFound
	case reTooLarge.MatchString(msg):
		reason = ErrTooLarge
	case reTimeout.MatchString(msg):
		reason = ErrTimeout
	default:
		return err
	}
	return &failure{reason: reason, cause: err}
}

// Reason returns a short label for err's failure reason.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	case errors.Is(err, ErrChatNotFound):
		return "chat_not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrFileNotFound):
		return "file_not_found"
	case errors.Is(err, ErrNotAFile):
		return "not_a_file"
	default:
		return "other"
	}
}
