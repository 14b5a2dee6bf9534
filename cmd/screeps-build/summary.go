package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/screepers/screeps-build/build"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	sizeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD166"))
)

// renderSummary formats a finished build report. Styling is applied only
// when stdout is a terminal.
func renderSummary(rep *build.Report) string {
	styled := term.IsTerminal(int(os.Stdout.Fd()))

	style := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	b.WriteString(style(titleStyle, "build complete"))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "  %s  %s\n", style(pathStyle, rep.WasmFile), style(sizeStyle, humanSize(rep.WasmSize)))
	fmt.Fprintf(&b, "  %s  %s\n", style(pathStyle, rep.JSFile), style(sizeStyle, humanSize(rep.JSSize)))

	if rep.Optimized {
		b.WriteString("  module optimized")
	} else {
		b.WriteString(style(warnStyle, "  optimizer skipped, module copied verbatim"))
	}

	return b.String()
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
