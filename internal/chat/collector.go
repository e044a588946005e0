package chat

import (
	"context"
	"time"
)

// GroupData is the collected state of one group: its description and the
// files found in recent updates.
type GroupData struct {
	GroupInfo   GroupInfo    `json:"group_info"`
	Files       []FileRecord `json:"files"`
	FileCount   int          `json:"file_count"`
	CollectedAt string       `json:"collected_at"`
}

// Collector gathers groups and file attachments from the bot's updates.
type Collector struct {
	dir Directory
	log Logger
	now func() time.Time
}

// NewCollector returns a Collector reading from dir.
func NewCollector(dir Directory, log Logger) *Collector {
	return &Collector{dir: dir, log: log, now: time.Now}
}

// ListChats returns every chat seen in the updates, in order of first
// appearance, private chats included.
func (c *Collector) ListChats(ctx context.Context) ([]GroupInfo, error) {
	msgs, err := c.dir.Updates(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool)
	var out []GroupInfo
	for _, m := range msgs {
		if seen[m.Chat.ID] {
			continue
		}
		seen[m.Chat.ID] = true
		out = append(out, m.Chat)
	}
	return out, nil
}

// Groups returns the groups, supergroups and channels seen in the updates.
func (c *Collector) Groups(ctx context.Context) (map[int64]GroupInfo, error) {
	msgs, err := c.dir.Updates(ctx)
	if err != nil {
		return nil, err
	}
	groups := groupsOf(msgs)
	c.log.Info("Found %d groups/channels", len(groups))
	return groups, nil
}

// Files returns the attachments posted to chatID among the updates.
func (c *Collector) Files(ctx context.Context, chatID int64) ([]FileRecord, error) {
	msgs, err := c.dir.Updates(ctx)
	if err != nil {
		return nil, err
	}
	files := filesIn(msgs, chatID)
	c.log.Info("Found %d files in chat %d from updates", len(files), chatID)
	return files, nil
}

// CollectAll reads the updates once and returns every group keyed by chat
// id together with its files.
func (c *Collector) CollectAll(ctx context.Context) (map[int64]GroupData, error) {
	c.log.Info("Starting data collection...")
	msgs, err := c.dir.Updates(ctx)
	if err != nil {
		return nil, err
	}
	groups := groupsOf(msgs)
	c.log.Info("Found %d groups/channels", len(groups))

	out := make(map[int64]GroupData, len(groups))
	for id, info := range groups {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		c.log.Info("Processing group: %s (ID: %d)", info.Title, id)
		files := filesIn(msgs, id)
		c.log.Debug("Found %d files in chat %d", len(files), id)
		out[id] = GroupData{
			GroupInfo:   info,
			Files:       files,
			FileCount:   len(files),
			CollectedAt: timestamp(c.now()),
		}
	}
	c.log.Info("Data collection completed. Processed %d groups.", len(out))
	return out, nil
}

func groupsOf(msgs []Message) map[int64]GroupInfo {
	groups := make(map[int64]GroupInfo)
	for _, m := range msgs {
		if IsGroupType(m.Chat.Type) {
			groups[m.Chat.ID] = m.Chat
		}
	}
	return groups
}

func filesIn(msgs []Message, chatID int64) []FileRecord {
	files := []FileRecord{}
	for _, m := range msgs {
		if m.Chat.ID == chatID && m.File != nil {
			files = append(files, recordOf(m))
		}
	}
	return files
}
