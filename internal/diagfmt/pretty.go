package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"xclower/internal/diag"
	"xclower/internal/source"
)

type palette struct {
	err, warn, info, loc, caret, note, dim *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		info:  color.New(color.FgCyan, color.Bold),
		loc:   color.New(color.Bold),
		caret: color.New(color.FgGreen, color.Bold),
		note:  color.New(color.FgBlue),
		dim:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.loc, p.caret, p.note, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes с аналогичным форматом.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			pal.loc.Sprint(location(fs, d.Primary, opts.PathMode, opts.BaseDir)),
			pal.severity(d.Severity).Sprint(d.Severity.String()),
			d.Code.ID(),
			d.Message,
		)
		snippet(w, fs, d.Primary, opts, pal)
		// timing payloads are only useful in full
		if !opts.ShowNotes && d.Code != diag.ObsTimings {
			continue
		}
		for _, n := range d.Notes {
			if n.Span.Empty() && fs.Get(n.Span.File) == nil {
				fmt.Fprintf(w, "  %s %s\n", pal.note.Sprint("note:"), n.Msg)
				continue
			}
			fmt.Fprintf(w, "  %s %s: %s\n", pal.note.Sprint("note:"), location(fs, n.Span, opts.PathMode, opts.BaseDir), n.Msg)
			snippet(w, fs, n.Span, opts, pal)
		}
	}
}

func location(fs *source.FileSet, sp source.Span, mode PathMode, base string) string {
	if fs == nil {
		return "<input>"
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", displayPath(fs.Get(sp.File), mode, base), start.Line, start.Col)
}

// snippet prints the primary line, Context lines around it, and a caret
// run under the span's part of the primary line.
func snippet(w io.Writer, fs *source.FileSet, sp source.Span, opts PrettyOpts, pal palette) {
	if fs == nil {
		return
	}
	f := fs.Get(sp.File)
	if f == nil || len(f.Content) == 0 {
		return
	}
	start, end := fs.Resolve(sp)
	ctx := uint32(0)
	if opts.Context > 0 {
		ctx = uint32(opts.Context)
	}
	first := uint32(1)
	if start.Line > ctx {
		first = start.Line - ctx
	}
	last := start.Line + ctx
	if n := lineCount(f); last > n {
		last = max(n, start.Line)
	}
	gutter := len(fmt.Sprint(last))
	for ln := first; ln <= last; ln++ {
		text := clip(expandTabs(f.GetLine(ln)), opts.Width, gutter)
		fmt.Fprintf(w, " %s %s\n", pal.dim.Sprintf("%*d |", gutter, ln), text)
		if ln != start.Line {
			continue
		}
		line := expandTabs(f.GetLine(ln))
		from := columnWidth(f.GetLine(ln), start.Col)
		to := runewidth.StringWidth(line)
		if end.Line == start.Line {
			to = columnWidth(f.GetLine(ln), end.Col)
		}
		marks := "^"
		if to > from+1 {
			marks += strings.Repeat("~", to-from-1)
		}
		fmt.Fprintf(w, " %s %s%s\n", pal.dim.Sprintf("%*s |", gutter, ""), strings.Repeat(" ", from), pal.caret.Sprint(marks))
	}
}

func lineCount(f *source.File) uint32 {
	n := uint32(len(f.LineIdx)) + 1 //nolint:gosec // files are far below 4GiB
	if f.Content[len(f.Content)-1] == '\n' {
		n--
	}
	return n
}

// columnWidth is the display width of the text before the 1-based byte
// column col.
func columnWidth(line string, col uint32) int {
	n := int(col) - 1
	if n < 0 {
		n = 0
	}
	if n > len(line) {
		n = len(line)
	}
	return runewidth.StringWidth(expandTabs(line[:n]))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

func clip(s string, width uint8, gutter int) string {
	if width == 0 {
		return s
	}
	room := int(width) - gutter - 4
	if room <= 3 || runewidth.StringWidth(s) <= room {
		return s
	}
	return runewidth.Truncate(s, room, "...")
}
