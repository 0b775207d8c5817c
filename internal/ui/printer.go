package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/muurk/apswitch/internal/connect"
)

// Printer writes styled output for the headless commands
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = width
	return p
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command banner
func (p *Printer) PrintHeader(title, command string, params ...Detail) {
	p.Println(RenderHeader(title, command, params, p.width))
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Detail) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Detail) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints an error box. Without explicit tips it shows the
// troubleshooting hints for err.
func (p *Printer) PrintError(title string, err error, troubleshooting ...string) {
	p.Println(NewFailureResult(title, err, troubleshooting...).SetWidth(p.width).Render())
}

// PrintEntry prints one console line with its timestamp
func (p *Printer) PrintEntry(e connect.Entry) {
	if e.Cleared {
		p.Println(LogTimeStyle.Render(e.Time.Format("15:04:05") + "  log cleared"))
		return
	}
	p.Println(FormatEntry(e))
}

// FormatEntry renders a console line as "15:04:05  text"
func FormatEntry(e connect.Entry) string {
	return LogTimeStyle.Render(e.Time.Format("15:04:05")) + "  " + LineStyle(e.Text).Render(e.Text)
}

// Follow prints every line already in log, then each new line until ctx
// is done. Lines queued when ctx is cancelled are still printed.
func (p *Printer) Follow(ctx context.Context, log *connect.Log) {
	entries, cancel := log.Subscribe(64)
	defer cancel()

	var last time.Time
	backlog := log.Entries()
	for _, e := range backlog {
		p.PrintEntry(e)
		last = e.Time
	}

	emit := func(e connect.Entry) {
		if !e.Cleared && len(backlog) > 0 && !e.Time.After(last) {
			return
		}
		p.PrintEntry(e)
	}

	for {
		select {
		case e, ok := <-entries:
			if !ok {
				return
			}
			emit(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-entries:
					emit(e)
				default:
					return
				}
			}
		}
	}
}
