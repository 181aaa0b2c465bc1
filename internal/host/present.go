package host

import (
	"strconv"
	"strings"

	"github.com/OsbornePro/quickcopy/internal/window"
)

// Approximate terminal cell size used to turn logical window units into
// columns and rows.
const (
	cellWidth  = 8
	cellHeight = 16
)

// Presentation wraps the view command in a terminal window that honours the
// window options. Every argument may use the placeholders {label}, {title},
// {width}, {height}, {cols} and {rows}.
type Presentation struct {
	// Terminal is the wrapper argv. Empty means the view is launched directly.
	Terminal []string
	// Appended to Terminal when the matching option asks for it.
	OnTop       []string
	Undecorated []string
	FixedSize   []string
	SkipTaskbar []string
	// Exec separates the wrapper flags from the view command (e.g. "-e").
	Exec []string
}

// DefaultPresentation runs the view in Alacritty, which exposes title,
// geometry, window level and decorations on the command line.
func DefaultPresentation() Presentation {
	return Presentation{
		Terminal: []string{
			"alacritty",
			"--title", "{title}",
			"--class", "{label}",
			"-o", "window.dimensions.columns={cols}",
			"-o", "window.dimensions.lines={rows}",
		},
		OnTop:       []string{"-o", `window.level="AlwaysOnTop"`},
		Undecorated: []string{"-o", `window.decorations="None"`},
		Exec:        []string{"-e"},
	}
}

// Argv returns the full command line for view under opts.
func (p Presentation) Argv(view []string, opts window.Options) []string {
	if len(p.Terminal) == 0 {
		return append([]string(nil), view...)
	}

	r := placeholders(opts)
	argv := make([]string, 0, len(p.Terminal)+len(view)+8)
	add := func(args []string) {
		for _, a := range args {
			argv = append(argv, r.Replace(a))
		}
	}

	add(p.Terminal)
	if opts.AlwaysOnTop {
		add(p.OnTop)
	}
	if !opts.Decorations {
		add(p.Undecorated)
	}
	if !opts.Resizable {
		add(p.FixedSize)
	}
	if opts.SkipTaskbar {
		add(p.SkipTaskbar)
	}
	add(p.Exec)
	return append(argv, view...)
}

func placeholders(opts window.Options) *strings.Replacer {
	cols := opts.Width / cellWidth
	rows := opts.Height / cellHeight
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return strings.NewReplacer(
		"{label}", opts.Label,
		"{title}", opts.Title,
		"{width}", strconv.Itoa(opts.Width),
		"{height}", strconv.Itoa(opts.Height),
		"{cols}", strconv.Itoa(cols),
		"{rows}", strconv.Itoa(rows),
	)
}
