// Command folderize gives every file in a directory its own folder with a
// README and metadata, and manages the Telegram chats of a file-sharing bot.
package main

import (
	"os"

	"github.com/backmassage/folderize/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "1.0.0-dev"

func main() {
	os.Exit(cli.Execute(version, os.Args[1:]))
}
