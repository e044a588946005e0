package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/backmassage/folderize/internal/chat"
	"github.com/backmassage/folderize/internal/config"
	"github.com/backmassage/folderize/internal/display"
	"github.com/backmassage/folderize/internal/logging"
	"github.com/backmassage/folderize/internal/metrics"
)

func newChatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Collect, list, crawl and upload to the bot's Telegram chats",
		Long: `The chats commands talk to the Telegram Bot API. The bot token comes from
--token, FOLDERIZE_TOKEN or BOT_TOKEN.`,
	}
	cmd.AddCommand(
		a.chatCmd(config.ChatCollect, "collect", "Save every group the bot has seen, with its files, as JSON", runCollect),
		a.chatCmd(config.ChatList, "list", "Print the chats the bot has seen", runList),
		a.chatCmd(config.ChatSend, "send", "Upload files matching a glob to a chat", runSend),
		a.chatCmd(config.ChatCrawl, "crawl", "Fetch details and administrators of the groups in a list", runCrawl),
	)
	return cmd
}

// chatRun is the body of one chat subcommand, called with a validated
// config, an open logger and an authenticated client.
type chatRun func(ctx context.Context, a *app, cfg *config.Config, log *logging.Logger, tg *chat.Telegram, m metrics.Metrics) error

func (a *app) chatCmd(kind config.ChatCommand, use, short string, run chatRun) *cobra.Command {
	cfg := config.DefaultConfig()
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}
	b := config.BindChatFlags(cmd.Flags(), &cfg, kind)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := a.prepare(cmd, &cfg, b, args); err != nil {
			return err
		}
		if err := cfg.Chat.ValidateChat(); err != nil {
			return usageError(err)
		}
		log, err := logging.NewLogger(&cfg)
		if err != nil {
			return err
		}
		defer log.Close()

		m := newMetrics(&cfg)
		defer writeMetrics(&cfg, m, log)

		ctx, stop := watchSignals(cmd.Context(), log)
		defer stop()

		// collect --load works offline.
		var tg *chat.Telegram
		if kind != config.ChatCollect || cfg.Chat.Load == "" {
			tg, err = chat.NewTelegram(cfg.Chat.Token, chat.TelegramOptions{
				APIEndpoint: cfg.Chat.APIEndpoint,
				Metrics:     m,
			})
			if err != nil {
				log.Error("%v", err)
				return failed()
			}
			log.Info("Connected as @%s", tg.BotName())
		}
		return run(ctx, a, &cfg, log, tg, m)
	}
	return cmd
}

func runCollect(ctx context.Context, a *app, cfg *config.Config, log *logging.Logger, tg *chat.Telegram, _ metrics.Metrics) error {
	var data map[int64]chat.GroupData
	if cfg.Chat.Load != "" {
		if err := chat.LoadJSON(cfg.Chat.Load, &data); err != nil {
			log.Error("%v", err)
			return failed()
		}
		log.Info("Loaded %d groups from %s", len(data), cfg.Chat.Load)
	} else {
		var err error
		data, err = chat.NewCollector(tg, log).CollectAll(ctx)
		if err != nil {
			log.Error("%v", err)
			return failed()
		}
	}

	if cfg.Chat.HistoryPath != "" {
		h, err := chat.OpenHistory(cfg.Chat.HistoryPath)
		if err != nil {
			log.Error("%v", err)
			return failed()
		}
		added, err := h.Merge(data)
		if cerr := h.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			log.Error("%v", errors.Wrap(err, "merge history"))
			return failed()
		}
		log.Info("History: %s recorded", display.Plural(added, "new file"))
	}

	if err := chat.SaveJSON(cfg.Chat.Output, data); err != nil {
		log.Error("%v", err)
		return failed()
	}
	log.Success("Data saved to %s", cfg.Chat.Output)

	files := 0
	for _, g := range data {
		files += g.FileCount
	}
	display.PrintSummary(a.stdout, "Collection Summary", []display.Row{
		{Label: "Groups", Value: fmt.Sprint(len(data))},
		{Label: "Files", Value: fmt.Sprint(files)},
		{Label: "Output", Value: cfg.Chat.Output},
	})
	for _, id := range slices.Sorted(maps.Keys(data)) {
		g := data[id]
		fmt.Fprintf(a.stdout, "\n  %s\n", g.GroupInfo.Title)
		fmt.Fprintf(a.stdout, "    ID: %d\n", id)
		fmt.Fprintf(a.stdout, "    Type: %s\n", g.GroupInfo.Type)
		fmt.Fprintf(a.stdout, "    Files: %d\n", g.FileCount)
	}
	return nil
}

func runList(ctx context.Context, a *app, _ *config.Config, log *logging.Logger, tg *chat.Telegram, _ metrics.Metrics) error {
	chats, err := chat.NewCollector(tg, log).ListChats(ctx)
	if err != nil {
		log.Error("%v", err)
		return failed()
	}
	if len(chats) == 0 {
		log.Warn("No chats found. Send a message in a chat the bot belongs to, then retry.")
		return nil
	}
	log.Info("Found %s", display.Plural(len(chats), "chat"))
	for _, c := range chats {
		fmt.Fprintf(a.stdout, "ID: %d, Title: %s, Type: %s\n", c.ID, c.Title, c.Type)
	}
	return nil
}

func runSend(ctx context.Context, a *app, cfg *config.Config, log *logging.Logger, tg *chat.Telegram, m metrics.Metrics) error {
	s := chat.NewSender(tg, log, chat.SenderOptions{
		MaxBytes: cfg.Chat.MaxUploadBytes,
		Timeout:  cfg.Chat.SendTimeout,
		Metrics:  m,
	})
	sum, err := s.SendGlob(ctx, cfg.Chat.ChatID, cfg.Chat.Pattern)
	if err != nil {
		log.Error("%v", err)
		return failed()
	}

	rows := []display.Row{
		{Label: "Matched", Value: fmt.Sprint(sum.Matched)},
		{Label: "Sent", Value: fmt.Sprint(sum.Sent)},
		{Label: "Failed", Value: fmt.Sprint(sum.Failed)},
		{Label: "Uploaded", Value: display.FormatBytes(sum.Bytes)},
	}
	for _, reason := range slices.Sorted(maps.Keys(sum.Reasons)) {
		rows = append(rows, display.Row{Label: "  " + reason, Value: fmt.Sprint(sum.Reasons[reason])})
	}
	display.PrintSummary(a.stdout, "Upload Summary", rows)
	if sum.Failed > 0 {
		return failed()
	}
	return nil
}

func runCrawl(ctx context.Context, a *app, cfg *config.Config, log *logging.Logger, tg *chat.Telegram, _ metrics.Metrics) error {
	idents, err := chat.ReadGroupList(cfg.Chat.GroupsFile)
	if err != nil {
		log.Error("%v", err)
		return failed()
	}
	if len(idents) == 0 {
		log.Warn("No groups listed in %s", cfg.Chat.GroupsFile)
		return nil
	}

	results, err := chat.NewCrawler(tg, log, cfg.Chat.Delay).ProcessList(ctx, idents)
	if serr := chat.SaveJSON(cfg.Chat.Output, results); serr != nil {
		log.Error("%v", serr)
		return failed()
	}
	log.Success("Crawl data saved to %s", cfg.Chat.Output)

	admins, members := 0, 0
	for _, r := range results {
		admins += r.Members.AdminCount
		members += r.Members.TotalMemberCount
	}
	display.PrintSummary(a.stdout, "Crawl Summary", []display.Row{
		{Label: "Listed", Value: fmt.Sprint(len(idents))},
		{Label: "Crawled", Value: fmt.Sprint(len(results))},
		{Label: "Administrators", Value: fmt.Sprint(admins)},
		{Label: "Members", Value: fmt.Sprint(members)},
		{Label: "Output", Value: cfg.Chat.Output},
	})
	if err != nil {
		log.Warn("Crawl stopped early: %v", err)
		return failed()
	}
	return nil
}
