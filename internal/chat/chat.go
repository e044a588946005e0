// Package chat talks to a chat-bot directory service: it enumerates the
// groups and channels a bot has seen, crawls group metadata and
// administrators, collects recently posted file attachments, and uploads
// local files to a chat.
//
// All network access goes through [Directory]. [NewTelegram] implements it
// against the Telegram Bot API; tests substitute fakes.
package chat

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Chat types as reported in JSON documents.
const (
	TypeGroup      = "GROUP"
	TypeSupergroup = "SUPERGROUP"
	TypeChannel    = "CHANNEL"
	TypePrivate    = "PRIVATE"
)

// IsGroupType reports whether t names a group, supergroup or channel.
func IsGroupType(t string) bool {
	switch strings.ToUpper(t) {
	case TypeGroup, TypeSupergroup, TypeChannel:
		return true
	}
	return false
}

// GroupInfo describes one conversation.
type GroupInfo struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Username    string `json:"username"`
	Description string `json:"description"`
	MemberCount int    `json:"member_count"`
	InviteLink  string `json:"invite_link,omitempty"`
	JoinedAt    string `json:"joined_at,omitempty"`
}

// Sender identifies the author of a message.
type Sender struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// Attachment is the file carried by a message. Fields that do not apply to
// the attachment type are omitted.
type Attachment struct {
	Type      string `json:"type"`
	FileID    string `json:"file_id"`
	FileName  string `json:"file_name,omitempty"`
	FileSize  int64  `json:"file_size"`
	MimeType  string `json:"mime_type,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Length    int    `json:"length,omitempty"`
	Performer string `json:"performer,omitempty"`
	Title     string `json:"title,omitempty"`
}

// Attachment types.
const (
	AttachDocument  = "document"
	AttachPhoto     = "photo"
	AttachVideo     = "video"
	AttachAudio     = "audio"
	AttachVoice     = "voice"
	AttachVideoNote = "video_note"
)

// Message is one message seen in the bot's recent updates.
type Message struct {
	ID      int
	Chat    GroupInfo
	Date    time.Time
	From    *Sender
	Caption string
	File    *Attachment // nil when the message carries no file
}

// FileRecord is a collected attachment together with its message context.
type FileRecord struct {
	MessageID int        `json:"message_id"`
	Date      string     `json:"date,omitempty"`
	From      *Sender    `json:"from_user"`
	Caption   string     `json:"caption"`
	File      Attachment `json:"file"`
}

// Member is an administrator of a group.
type Member struct {
	UserID             int64  `json:"user_id"`
	Username           string `json:"username"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	IsBot              bool   `json:"is_bot"`
	Status             string `json:"status"`
	CanBeEdited        bool   `json:"can_be_edited"`
	CanManageChat      bool   `json:"can_manage_chat"`
	CanDeleteMessages  bool   `json:"can_delete_messages"`
	CanRestrictMembers bool   `json:"can_restrict_members"`
	CanPromoteMembers  bool   `json:"can_promote_members"`
	CanChangeInfo      bool   `json:"can_change_info"`
	CanInviteUsers     bool   `json:"can_invite_users"`
	CanPinMessages     bool   `json:"can_pin_messages"`
}

// Directory is the chat service as seen by this package.
type Directory interface {
	// Updates returns the messages in the bot's pending update queue, oldest
	// first.
	Updates(ctx context.Context) ([]Message, error)
	// Chat resolves a numeric id, "@username" or t.me link.
	Chat(ctx context.Context, ident string) (GroupInfo, error)
	Administrators(ctx context.Context, chatID int64) ([]Member, error)
	MemberCount(ctx context.Context, chatID int64) (int, error)
	// SendDocument uploads the file at path. It returns when the upload
	// finishes or ctx is done.
	SendDocument(ctx context.Context, chatID int64, path string) error
}

// Logger is the subset of logging.Logger used here.
type Logger interface {
	Info(format string, args ...interface{})
	Success(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// timestamp formats t for JSON documents.
func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

func recordOf(m Message) FileRecord {
	return FileRecord{
		MessageID: m.ID,
		Date:      timestamp(m.Date),
		From:      m.From,
		Caption:   m.Caption,
		File:      *m.File,
	}
}
