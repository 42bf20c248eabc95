package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/sx-tools/disasm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	addrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	mnemonicStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	argTypeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	operandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD580"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// styleLine colors a listing row without changing its column layout.
func styleLine(l disasm.Line) string {
	s := l.String()
	i := strings.IndexByte(s, disasm.Separator)
	if i < 0 {
		return s
	}
	var b strings.Builder
	b.WriteString(addrStyle.Render(s[:i+1]))
	b.WriteByte(' ')
	b.WriteString(mnemonicStyle.Render(fmt.Sprintf("%-10s", l.Mnemonic)))
	b.WriteString(" \t")
	if l.Operand == "" {
		b.WriteString(argTypeStyle.Render(l.ArgType))
		return b.String()
	}
	b.WriteString(argTypeStyle.Render(fmt.Sprintf("%-10s", l.ArgType)))
	b.WriteString(" \t")
	b.WriteString(operandStyle.Render(l.Operand))
	return b.String()
}
