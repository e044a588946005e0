// Package term provides ANSI color state and terminal detection.
//
// Colors are package-level variables because logging and display both
// format with them. [Configure] sets them once during startup; when colors
// are disabled the variables are empty strings and [Paint] returns its input.
package term

import (
	"os"
	"strings"

	"github.com/backmassage/folderize/internal/config"
)

// ANSI color codes. Empty when colors are disabled.
var (
	Red     = ""
	Green   = ""
	Yellow  = ""
	Blue    = ""
	Cyan    = ""
	Magenta = ""
	Reset   = ""
)

// Configure resolves the color mode and sets the package-level ANSI
// variables. It reports whether colors ended up enabled.
func Configure(mode config.ColorMode) bool {
	if !resolve(mode) {
		Red, Green, Yellow, Blue, Cyan, Magenta, Reset = "", "", "", "", "", "", ""
		return false
	}
	Red = "\033[1;91m"
	Green = "\033[1;92m"
	Yellow = "\033[1;93m"
	Blue = "\033[1;94m"
	Cyan = "\033[1;96m"
	Magenta = "\033[1;95m"
	Reset = "\033[0m"
	return true
}

// Enabled reports whether ANSI colors are currently active.
func Enabled() bool { return Reset != "" }

// Paint wraps s in color. It returns s unchanged when color is empty.
func Paint(color, s string) string {
	if color == "" {
		return s
	}
	return color + s + Reset
}

// resolve honors the NO_COLOR convention (https://no-color.org) and
// TERM=dumb in auto mode.
func resolve(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return IsTerminal(os.Stdout) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a character device.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
