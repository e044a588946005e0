package chat

import (
	"bufio"
	"context"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Members summarizes the membership visible to a bot. The Bot API exposes
// administrators only; TotalMemberCount is the server-reported size.
type Members struct {
	Administrators   []Member `json:"administrators"`
	AdminCount       int      `json:"admin_count"`
	TotalMemberCount int      `json:"total_member_count"`
}

// CrawlData is everything gathered about one group.
type CrawlData struct {
	GroupInfo   GroupInfo    `json:"group_info"`
	Members     Members      `json:"members"`
	RecentFiles []FileRecord `json:"recent_files"`
	CrawledAt   string       `json:"crawled_at"`
}

// ReadGroupList reads one group identifier per line, skipping blank lines
// and lines starting with '#'.
func ReadGroupList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open group list")
	}
	defer f.Close()

	var groups []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		groups = append(groups, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read group list")
	}
	return groups, nil
}

// Crawler gathers group metadata, administrators and recent files for a
// list of groups.
type Crawler struct {
	dir   Directory
	log   Logger
	delay time.Duration
	now   func() time.Time
}

// NewCrawler returns a Crawler that pauses delay between groups.
func NewCrawler(dir Directory, log Logger, delay time.Duration) *Crawler {
	return &Crawler{dir: dir, log: log, delay: delay, now: time.Now}
}

// Crawl resolves ident and gathers its data. It fails when the chat cannot
// be resolved or is not a group or channel; member and file lookups that
// fail are logged and left empty.
func (c *Crawler) Crawl(ctx context.Context, ident string) (*CrawlData, error) {
	c.log.Info("Starting crawl for group: %s", ident)
	info, err := c.dir.Chat(ctx, ident)
	if err != nil {
		return nil, err
	}
	if !IsGroupType(info.Type) {
		return nil, errors.Wrapf(ErrNotGroup, "%s is %s", ident, strings.ToLower(info.Type))
	}
	info.JoinedAt = timestamp(c.now())
	c.log.Info("Successfully accessed group: %s (ID: %d)", info.Title, info.ID)

	members := c.members(ctx, info.ID)
	info.MemberCount = members.TotalMemberCount

	files := []FileRecord{}
	if msgs, err := c.dir.Updates(ctx); err != nil {
		c.log.Warn("Cannot read recent files of %d: %v", info.ID, err)
	} else {
		files = filesIn(msgs, info.ID)
		c.log.Info("Found %d recent files in group %d", len(files), info.ID)
	}

	return &CrawlData{
		GroupInfo:   info,
		Members:     members,
		RecentFiles: files,
		CrawledAt:   timestamp(c.now()),
	}, nil
}

func (c *Crawler) members(ctx context.Context, chatID int64) Members {
	m := Members{Administrators: []Member{}}
	admins, err := c.dir.Administrators(ctx, chatID)
	if err != nil {
		c.log.Warn("Cannot list administrators of %d: %v", chatID, err)
		return m
	}
	m.Administrators = admins
	m.AdminCount = len(admins)

	n, err := c.dir.MemberCount(ctx, chatID)
	if err != nil {
		c.log.Warn("Cannot get member count of %d: %v", chatID, err)
	} else {
		m.TotalMemberCount = n
		c.log.Info("Group has %d members", n)
	}
	c.log.Debug("Found %d administrators in group %d", len(admins), chatID)
	return m
}

// ProcessList crawls each identifier in turn, pausing between groups, and
// returns the successes keyed by chat id. Per-group failures are logged and
// skipped. A cancelled ctx stops the loop and is returned with the partial
// result.
func (c *Crawler) ProcessList(ctx context.Context, idents []string) (map[int64]CrawlData, error) {
	out := make(map[int64]CrawlData)
	if len(idents) == 0 {
		return out, nil
	}
	c.log.Info("Processing %d groups...", len(idents))
	for i, ident := range idents {
		if i > 0 {
			if err := sleep(ctx, c.delay); err != nil {
				return out, err
			}
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		c.log.Info("Processing group %d/%d: %s", i+1, len(idents), ident)
		data, err := c.Crawl(ctx, ident)
		if err != nil {
			c.log.Warn("Failed to crawl group %s: %v", ident, err)
			continue
		}
		out[data.GroupInfo.ID] = *data
		c.log.Success("Successfully crawled group: %s", data.GroupInfo.Title)
	}
	c.log.Info("Completed processing %d groups", len(idents))
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
