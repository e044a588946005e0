package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/backmassage/folderize/internal/chat"
	"github.com/backmassage/folderize/internal/check"
	"github.com/backmassage/folderize/internal/config"
	"github.com/backmassage/folderize/internal/describe"
	"github.com/backmassage/folderize/internal/display"
	"github.com/backmassage/folderize/internal/logging"
)

func newCheckCmd(a *app) *cobra.Command {
	cfg := config.DefaultConfig()
	cfg.OutputDir = ""
	cmd := &cobra.Command{
		Use:   "check [flags] [input_dir]",
		Short: "Verify the AI provider, the bot token and the input and output paths",
	}
	b := config.BindCheckFlags(cmd.Flags(), &cfg)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := a.prepare(cmd, &cfg, b, args); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return usageError(err)
		}
		log, err := logging.NewLogger(&cfg)
		if err != nil {
			return err
		}
		defer log.Close()
		display.PrintBanner(a.stdout)

		deps := check.Deps{
			Bot: func(_ context.Context, token string) (string, error) {
				tg, err := chat.NewTelegram(token, chat.TelegramOptions{APIEndpoint: cfg.Chat.APIEndpoint})
				if err != nil {
					return "", err
				}
				return tg.BotName(), nil
			},
		}
		if cfg.APIKey != "" {
			deps.Completer = describe.NewCompleter(&cfg, nil)
		}
		ctx, stop := watchSignals(cmd.Context(), log)
		defer stop()
		if !check.RunCheck(ctx, &cfg, log, deps) {
			return failed()
		}
		return nil
	}
	return cmd
}
