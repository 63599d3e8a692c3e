package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bdremux/internal/history"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

var titleCaser = cases.Title(language.English)

// statusLabel renders a history status for tables, coloured on terminals.
func statusLabel(status history.Status, degraded, colorize bool) string {
	label := titleCaser.String(string(status))
	if degraded && status == history.StatusSuccess {
		label += " (split)"
	}
	if !colorize {
		return label
	}
	switch {
	case status == history.StatusSuccess && !degraded:
		return ansiGreen + label + ansiReset
	case status == history.StatusSuccess, status == history.StatusCanceled:
		return ansiYellow + label + ansiReset
	default:
		return ansiRed + label + ansiReset
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
