package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the tagbot banner followed by the bot name and version.
func PrintBanner(w io.Writer, botName, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{" _                  _           _   ", "#34d399"},
		{"| |_ __ _  __ _    | |__   ___ | |_ ", "#2dd4bf"},
		{"| __/ _` |/ _` |   | '_ \\ / _ \\| __|", "#22d3ee"},
		{"| || (_| | (_| |   | |_) | (_) | |_ ", "#38bdf8"},
		{" \\__\\__,_|\\__, |   |_.__/ \\___/ \\__|", "#60a5fa"},
		{"          |___/                     ", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, out.String(fmt.Sprintf("  %s · v%s · type 'exit' to quit", botName, version)).Faint())
	fmt.Fprintln(w)
}
