package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

// printSuccess writes a green line prefixed with a check mark.
func printSuccess(w io.Writer, format string, a ...any) {
	_, _ = green.Fprintf(w, "✓ "+format+"\n", a...)
}

// printWarning writes a yellow line.
func printWarning(w io.Writer, format string, a ...any) {
	_, _ = yellow.Fprintf(w, "! "+format+"\n", a...)
}

// printInfo writes an uncolored line.
func printInfo(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format+"\n", a...)
}

// printField writes a cyan label followed by its value.
func printField(w io.Writer, label string, value any) {
	_, _ = cyan.Fprintf(w, "%-10s", label)
	_, _ = fmt.Fprintf(w, " %v\n", value)
}

// printError writes title in red and the cause below it to w, then returns
// an error for cobra, which prints nothing itself.
func printError(w io.Writer, title string, cause error) error {
	_, _ = red.Fprintf(w, "%s\n", title)
	if cause != nil {
		_, _ = fmt.Fprintf(w, "  %v\n", cause)
	}
	return fmt.Errorf("%s: %w", title, cause)
}
