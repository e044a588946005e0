package chat

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/backmassage/folderize/internal/display"
	"github.com/backmassage/folderize/internal/metrics"
)

// Upload defaults of the Bot API.
const (
	DefaultMaxUploadBytes int64 = 50 * 1024 * 1024
	DefaultSendTimeout          = 300 * time.Second
)

// SenderOptions tune a [Sender]. Zero values select the defaults.
type SenderOptions struct {
	MaxBytes int64
	Timeout  time.Duration
	Metrics  metrics.Metrics
}

// Sender uploads local files to a chat.
type Sender struct {
	dir     Directory
	log     Logger
	max     int64
	timeout time.Duration
	metrics metrics.Metrics
}

// NewSender returns a Sender uploading through dir.
func NewSender(dir Directory, log Logger, opts SenderOptions) *Sender {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxUploadBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSendTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}
	return &Sender{dir: dir, log: log, max: opts.MaxBytes, timeout: opts.Timeout, metrics: opts.Metrics}
}

// VerifyAccess checks that the bot can see chatID.
func (s *Sender) VerifyAccess(ctx context.Context, chatID int64) (GroupInfo, error) {
	info, err := s.dir.Chat(ctx, formatID(chatID))
	if err != nil {
		return GroupInfo{}, errors.Wrapf(err, "cannot access chat %d", chatID)
	}
	s.log.Info("Chat verified: %s (ID: %d)", info.Title, chatID)
	return info, nil
}

// SendFile uploads path to chatID. Files above the size ceiling are refused
// before any network call. The upload is abandoned after the timeout.
func (s *Sender) SendFile(ctx context.Context, chatID int64, path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return s.failed(path, 0, Classify(errors.Wrapf(err, "stat %s", path)))
	}
	if !fi.Mode().IsRegular() {
		return s.failed(path, 0, errors.Wrap(ErrNotAFile, path))
	}
	size := fi.Size()
	if size > s.max {
		return s.failed(path, size, errors.Wrapf(ErrTooLarge, "%s (%s > %s)",
			path, display.FormatBytes(size), display.FormatBytes(s.max)))
	}

	s.log.Info("Sending file: %s (%s)", path, display.FormatBytes(size))
	uctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.dir.SendDocument(uctx, chatID, path); err != nil {
		return s.failed(path, size, Classify(err))
	}
	s.metrics.ObserveChatUpload(metrics.ChatSent, size)
	s.log.Success("Successfully sent: %s", path)
	return nil
}

func (s *Sender) failed(path string, size int64, err error) error {
	s.metrics.ObserveChatUpload(metrics.ChatFailed, size)
	switch {
	case errors.Is(err, ErrTooLarge):
		s.log.Warn("File too large: %v", err)
	case errors.Is(err, ErrChatNotFound):
		s.log.Error("Chat not found. Check that the bot was added to the chat: %v", err)
	case errors.Is(err, ErrTimeout):
		s.log.Warn("Upload timed out for: %s", path)
	case errors.Is(err, ErrFileNotFound):
		s.log.Warn("File not found: %s", path)
	case errors.Is(err, ErrNotAFile):
		s.log.Warn("Not a file: %s", path)
	default:
		s.log.Error("Error sending %s: %v", path, err)
	}
	return err
}

// SendSummary counts the outcome of [Sender.SendGlob].
type SendSummary struct {
	Matched int
	Sent    int
	Failed  int
	Bytes   int64
	Reasons map[string]int // failure reason label to count
}

// SendGlob verifies access to chatID and uploads every path matching
// pattern, in lexical order. Individual failures are counted, not returned.
// The error is non-nil only for a bad pattern, an inaccessible chat or a
// cancelled ctx.
func (s *Sender) SendGlob(ctx context.Context, chatID int64, pattern string) (SendSummary, error) {
	sum := SendSummary{Reasons: make(map[string]int)}
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return sum, errors.Wrapf(err, "bad pattern %q", pattern)
	}
	sum.Matched = len(paths)
	s.log.Info("Found %s matching %s", display.Plural(len(paths), "file"), pattern)

	if _, err := s.VerifyAccess(ctx, chatID); err != nil {
		return sum, err
	}
	if len(paths) == 0 {
		s.log.Warn("No files match %s", pattern)
		return sum, nil
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := s.SendFile(ctx, chatID, p); err != nil {
			sum.Failed++
			sum.Reasons[Reason(err)]++
			continue
		}
		sum.Sent++
		if fi, err := os.Stat(p); err == nil {
			sum.Bytes += fi.Size()
		}
	}
	return sum, nil
}
