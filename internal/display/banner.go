package display

import (
	"fmt"
	"io"

	"github.com/backmassage/folderize/internal/term"
)

const banner = ` ___    _    _         _
|  _|__| |__| |___ _ _(_)______
|  _/ _ \ / _` + "`" + ` / -_) '_| |_ / -_)
|_| \___/_\__,_\___|_| |_/__\___|
`

// PrintBanner writes the ASCII banner to w, in magenta when colors are on.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, term.Paint(term.Magenta, banner))
	fmt.Fprintln(w)
}
