package cli

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/backmassage/folderize/internal/config"
)

const envPrefix = "FOLDERIZE"

// dotEnvFiles are loaded from the working directory. Variables already set
// in the environment win.
var dotEnvFiles = []string{".env.local", ".env"}

func loadDotEnv() {
	for _, p := range dotEnvFiles {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// newViper reads the config file, if any, and enables FOLDERIZE_* lookups.
// Keys are flag names: "output-dir" in a file, FOLDERIZE_OUTPUT_DIR in the
// environment. Without an explicit path a missing ./folderize.* is fine.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("folderize")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return nil, errors.Wrap(err, "read config file")
	}
	return v, nil
}

// applyViper fills every flag the user did not pass from v.
func applyViper(fs *pflag.FlagSet, v *viper.Viper) error {
	if v == nil {
		return nil
	}
	var firstErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if firstErr != nil || f.Changed || f.Name == "help" || f.Name == "config" {
			return
		}
		if !v.IsSet(f.Name) {
			return
		}
		values := []string{v.GetString(f.Name)}
		if f.Value.Type() == "stringArray" || f.Value.Type() == "stringSlice" {
			values = v.GetStringSlice(f.Name)
		}
		for _, val := range values {
			if err := fs.Set(f.Name, val); err != nil {
				firstErr = errors.Wrapf(err, "invalid value %q for %s", val, f.Name)
				return
			}
		}
	})
	return firstErr
}

// resolveSecrets fills credentials not given as flags: the provider's own
// variable first (GOOGLE_API_KEY, ...), then BOT_TOKEN for the bot.
// FOLDERIZE_API_KEY and FOLDERIZE_TOKEN were already applied as flag
// fallbacks.
func resolveSecrets(cfg *config.Config) {
	if cfg.APIKey == "" {
		cfg.APIKey = strings.TrimSpace(os.Getenv(cfg.Provider.EnvKey()))
	}
	if cfg.Chat.Token == "" {
		cfg.Chat.Token = strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	}
}
