// Package console prints the human facing output of the commands: section
// headers, status lines, key/value pairs and tables.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	IconOK   = "✅"
	IconFail = "❌"
	IconWarn = "⚠️"
	IconInfo = "•"
)

var (
	colorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	colorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

// Printer writes styled output to w. Colours follow the capabilities of w,
// so a pipe or a buffer gets plain text.
type Printer struct {
	w       io.Writer
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	title   lipgloss.Style
	cell    lipgloss.Style
	border  lipgloss.Style
}

// New returns a Printer bound to w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		success: r.NewStyle().Foreground(colorPass).Bold(true),
		warning: r.NewStyle().Foreground(colorWarn).Bold(true),
		failure: r.NewStyle().Foreground(colorFail).Bold(true),
		muted:   r.NewStyle().Foreground(colorMuted),
		title:   r.NewStyle().Foreground(colorAccent).Bold(true),
		cell:    r.NewStyle().Padding(0, 1),
		border:  r.NewStyle().Foreground(colorMuted),
	}
}

// Writer exposes the underlying writer for raw output.
func (p *Printer) Writer() io.Writer { return p.w }

// Section prints a title framed by rules.
func (p *Printer) Section(title string) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.muted.Render(rule))
	fmt.Fprintln(p.w, p.title.Render(title))
	fmt.Fprintln(p.w, p.muted.Render(rule))
}

func (p *Printer) status(style lipgloss.Style, icon, format string, args []interface{}) {
	fmt.Fprintf(p.w, "%s %s\n", icon, style.Render(fmt.Sprintf(format, args...)))
}

// OK prints a success line.
func (p *Printer) OK(format string, args ...interface{}) {
	p.status(p.success, IconOK, format, args)
}

// Fail prints a failure line.
func (p *Printer) Fail(format string, args ...interface{}) {
	p.status(p.failure, IconFail, format, args)
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...interface{}) {
	p.status(p.warning, IconWarn, format, args)
}

// Info prints an indented plain line.
func (p *Printer) Info(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "  %s %s\n", IconInfo, fmt.Sprintf(format, args...))
}

// Line prints format without decoration.
func (p *Printer) Line(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// KV prints an indented key and value.
func (p *Printer) KV(key string, value interface{}) {
	fmt.Fprintf(p.w, "  %s %s\n", p.muted.Render(key+":"), fmt.Sprint(value))
}

// Table renders rows under headers. An empty row set prints a note instead.
func (p *Printer) Table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(p.w, p.muted.Render("(no rows)"))
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.border).
		StyleFunc(func(row, col int) lipgloss.Style { return p.cell }).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(p.w, t.String())
}
