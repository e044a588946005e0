package chat

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/backmassage/folderize/internal/metrics"
)

// TelegramOptions tune [NewTelegram]. Zero values select the public API, a
// default HTTP client and no metrics.
type TelegramOptions struct {
	// APIEndpoint is a format string taking the token and the method name,
	// e.g. "https://api.telegram.org/bot%s/%s".
	APIEndpoint string
	HTTPClient  *http.Client
	Metrics     metrics.Metrics
}

// Telegram implements [Directory] on the Telegram Bot API.
type Telegram struct {
	api     *tgbotapi.BotAPI
	metrics metrics.Metrics
}

// NewTelegram authenticates token with getMe and returns the client.
func NewTelegram(token string, opts TelegramOptions) (*Telegram, error) {
	if opts.APIEndpoint == "" {
		opts.APIEndpoint = tgbotapi.APIEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}
	opts.Metrics.ObserveChatRequest("getMe")
	api, err := tgbotapi.NewBotAPIWithClient(token, opts.APIEndpoint, opts.HTTPClient)
	if err != nil {
		return nil, errors.Wrap(err, "authenticate bot token")
	}
	return &Telegram{api: api, metrics: opts.Metrics}, nil
}

// BotName returns the authenticated bot's username.
func (t *Telegram) BotName() string { return t.api.Self.UserName }

// call runs fn in a goroutine so a blocked request can be abandoned when
// ctx is done. The Bot API client has no context support of its own.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (t *Telegram) Updates(ctx context.Context) ([]Message, error) {
	t.metrics.ObserveChatRequest("getUpdates")
	updates, err := call(ctx, func() ([]tgbotapi.Update, error) {
		return t.api.GetUpdates(tgbotapi.NewUpdate(0))
	})
	if err != nil {
		return nil, errors.Wrap(err, "get updates")
	}
	var out []Message
	for _, u := range updates {
		m := u.Message
		if m == nil {
			m = u.ChannelPost
		}
		if m == nil || m.Chat == nil {
			continue
		}
		out = append(out, convertMessage(m))
	}
	return out, nil
}

func (t *Telegram) Chat(ctx context.Context, ident string) (GroupInfo, error) {
	cfg, err := chatConfig(ident)
	if err != nil {
		return GroupInfo{}, err
	}
	t.metrics.ObserveChatRequest("getChat")
	c, err := call(ctx, func() (tgbotapi.Chat, error) {
		return t.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: cfg})
	})
	if err != nil {
		return GroupInfo{}, Classify(errors.Wrapf(err, "get chat %s", ident))
	}
	return convertChat(&c), nil
}

func (t *Telegram) Administrators(ctx context.Context, chatID int64) ([]Member, error) {
	t.metrics.ObserveChatRequest("getChatAdministrators")
	admins, err := call(ctx, func() ([]tgbotapi.ChatMember, error) {
		return t.api.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
			ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get administrators of %d", chatID)
	}
	out := make([]Member, 0, len(admins))
	for _, a := range admins {
		out = append(out, convertMember(a))
	}
	return out, nil
}

func (t *Telegram) MemberCount(ctx context.Context, chatID int64) (int, error) {
	t.metrics.ObserveChatRequest("getChatMemberCount")
	n, err := call(ctx, func() (int, error) {
		return t.api.GetChatMembersCount(tgbotapi.ChatMemberCountConfig{
			ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		})
	})
	if err != nil {
		return 0, errors.Wrapf(err, "get member count of %d", chatID)
	}
	return n, nil
}

func (t *Telegram) SendDocument(ctx context.Context, chatID int64, path string) error {
	t.metrics.ObserveChatRequest("sendDocument")
	_, err := call(ctx, func() (tgbotapi.Message, error) {
		return t.api.Send(tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path)))
	})
	return Classify(err)
}

// chatConfig accepts a numeric chat id, "@username", "username" or a
// t.me link.
func chatConfig(ident string) (tgbotapi.ChatConfig, error) {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return tgbotapi.ChatConfig{}, errors.New("empty chat identifier")
	}
	if id, err := strconv.ParseInt(ident, 10, 64); err == nil {
		return tgbotapi.ChatConfig{ChatID: id}, nil
	}
	for _, prefix := range []string{"https://t.me/", "http://t.me/", "t.me/"} {
		if strings.HasPrefix(ident, prefix) {
			ident = strings.Trim(strings.TrimPrefix(ident, prefix), "/")
			break
		}
	}
	if !strings.HasPrefix(ident, "@") {
		ident = "@" + ident
	}
	return tgbotapi.ChatConfig{SuperGroupUsername: ident}, nil
}

func convertChat(c *tgbotapi.Chat) GroupInfo {
	return GroupInfo{
		ID:          c.ID,
		Title:       c.Title,
		Type:        strings.ToUpper(c.Type),
		Username:    c.UserName,
		Description: c.Description,
		InviteLink:  c.InviteLink,
	}
}

func convertMessage(m *tgbotapi.Message) Message {
	out := Message{
		ID:      m.MessageID,
		Chat:    convertChat(m.Chat),
		Caption: m.Caption,
		File:    attachmentOf(m),
	}
	if m.Date != 0 {
		out.Date = time.Unix(int64(m.Date), 0).UTC()
	}
	if m.From != nil {
		out.From = &Sender{ID: m.From.ID, Username: m.From.UserName, FirstName: m.From.FirstName}
	}
	return out
}

// attachmentOf returns the message's file, preferring document, then the
// largest photo size, then video, audio, voice and video note.
func attachmentOf(m *tgbotapi.Message) *Attachment {
	switch {
	case m.Document != nil:
		d := m.Document
		return &Attachment{
			Type: AttachDocument, FileID: d.FileID, FileName: d.FileName,
			FileSize: int64(d.FileSize), MimeType: d.MimeType,
		}
	case len(m.Photo) > 0:
		p := m.Photo[len(m.Photo)-1]
		return &Attachment{
			Type: AttachPhoto, FileID: p.FileID, FileSize: int64(p.FileSize),
			Width: p.Width, Height: p.Height,
		}
	case m.Video != nil:
		v := m.Video
		return &Attachment{
			Type: AttachVideo, FileID: v.FileID, FileName: v.FileName,
			FileSize: int64(v.FileSize), Duration: v.Duration,
			Width: v.Width, Height: v.Height,
		}
	case m.Audio != nil:
		a := m.Audio
		return &Attachment{
			Type: AttachAudio, FileID: a.FileID, FileName: a.FileName,
			FileSize: int64(a.FileSize), Duration: a.Duration,
			Performer: a.Performer, Title: a.Title,
		}
	case m.Voice != nil:
		v := m.Voice
		return &Attachment{
			Type: AttachVoice, FileID: v.FileID,
			FileSize: int64(v.FileSize), Duration: v.Duration,
		}
	case m.VideoNote != nil:
		v := m.VideoNote
		return &Attachment{
			Type: AttachVideoNote, FileID: v.FileID,
			FileSize: int64(v.FileSize), Duration: v.Duration, Length: v.Length,
		}
	}
	return nil
}

// convertMember maps the API's "creator" status onto OWNER.
func convertMember(a tgbotapi.ChatMember) Member {
	m := Member{
		Status:             strings.ToUpper(a.Status),
		CanBeEdited:        a.CanBeEdited,
		CanManageChat:      a.CanManageChat,
		CanDeleteMessages:  a.CanDeleteMessages,
		CanRestrictMembers: a.CanRestrictMembers,
		CanPromoteMembers:  a.CanPromoteMembers,
		CanChangeInfo:      a.CanChangeInfo,
		CanInviteUsers:     a.CanInviteUsers,
		CanPinMessages:     a.CanPinMessages,
	}
	if a.Status == "creator" {
		m.Status = "OWNER"
	}
	if u := a.User; u != nil {
		m.UserID = u.ID
		m.Username = u.UserName
		m.FirstName = u.FirstName
		m.LastName = u.LastName
		m.IsBot = u.IsBot
	}
	return m
}
