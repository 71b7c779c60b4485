// Package util holds small terminal and filesystem helpers shared by the CLI.
package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/playcore/playcore/filesystem"
	"golang.org/x/term"
)

// Quantify formats count with the singular or plural label.
func Quantify(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

func Capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalSize returns the size of the terminal attached to stdout.
func TerminalSize() (width, height int, err error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

// Truncate cuts s to the terminal width when stdout is a terminal.
func Truncate(s string) string {
	width, _, err := TerminalSize()
	if err != nil || width <= 0 || len(s) <= width {
		return s
	}
	return s[:width]
}

// PrintErasable prints msg on the current line and returns a func that wipes it.
func PrintErasable(msg string) (eraser func()) {
	fmt.Fprintf(os.Stdout, "\r%s", msg)
	return func() {
		fmt.Fprintf(os.Stdout, "\r%s\r", strings.Repeat(" ", len(msg)))
	}
}

// Delete removes a file or a directory tree on the active filesystem.
func Delete(path string) error {
	fs := filesystem.API()
	stat, err := fs.Stat(path)
	if err != nil {
		return err
	}

	if stat.IsDir() {
		return fs.RemoveAll(path)
	}
	return fs.Remove(path)
}
