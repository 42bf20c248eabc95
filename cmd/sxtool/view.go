package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wippyai/sx-tools/disasm"
	"github.com/wippyai/sx-tools/opcode"
)

func newViewCmd(a *app) *cobra.Command {
	var f disasmFlags
	cmd := &cobra.Command{
		Use:   "view <image>",
		Short: "Browse a listing interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdin) || !isTerminal(cmd.OutOrStdout()) {
				return fmt.Errorf("view needs an interactive terminal; use disasm instead")
			}
			opts, err := a.disasmOptions(f)
			if err != nil {
				return err
			}
			load := func() ([]disasm.Line, error) {
				image, h, err := a.readImage(args[0], f.scan)
				if err != nil {
					return nil, err
				}
				var lines []disasm.Line
				for line, err := range disasm.Lines(image, h, opts) {
					if err != nil {
						return lines, err
					}
					lines = append(lines, line)
				}
				return lines, nil
			}
			p := tea.NewProgram(newViewModel(args[0], load), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().BoolVar(&f.raw, "raw", false, "show literal branch offsets and string indices")
	cmd.Flags().BoolVar(&f.bytes, "bytes", false, "show instruction bytes")
	cmd.Flags().StringVar(&f.stringsPath, "strings", "", "string table side-file used to show STR literals")
	cmd.Flags().BoolVar(&f.scan, "scan", false, "ignore the declared image size and stop at the first zero word")
	return cmd
}

type viewState int

const (
	stateBrowse viewState = iota
	stateGoto
)

type viewModel struct {
	err      error
	load     func() ([]disasm.Line, error)
	filename string
	status   string
	lines    []disasm.Line
	input    textinput.Model
	history  []int
	selected int
	top      int
	height   int
	loaded   bool
	state    viewState
}

type linesMsg struct {
	err   error
	lines []disasm.Line
}

func newViewModel(filename string, load func() ([]disasm.Line, error)) *viewModel {
	ti := textinput.New()
	ti.Prompt = "goto 0x"
	ti.Placeholder = "address"
	ti.CharLimit = 8
	ti.Width = 12
	return &viewModel{
		filename: filename,
		load:     load,
		input:    ti,
		height:   20,
	}
}

func (m *viewModel) Init() tea.Cmd {
	return m.loadLines
}

func (m *viewModel) loadLines() tea.Msg {
	lines, err := m.load()
	return linesMsg{lines: lines, err: err}
}

func (m *viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case linesMsg:
		m.loaded = true
		m.lines = msg.lines
		m.err = msg.err
		return m, nil

	case tea.WindowSizeMsg:
		m.height = max(msg.Height-5, 1)
		m.scroll()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateGoto {
			return m.updateGoto(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *viewModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "pgup":
		m.move(-m.height)
	case "pgdown", " ":
		m.move(m.height)
	case "home", "g":
		m.move(-len(m.lines))
	case "end", "G":
		m.move(len(m.lines))
	case ":", "/":
		m.state = stateGoto
		m.input.SetValue("")
		return m, m.input.Focus()
	case "enter":
		m.follow()
	case "backspace", "b":
		if n := len(m.history); n > 0 {
			m.selected = m.history[n-1]
			m.history = m.history[:n-1]
			m.scroll()
		}
	}
	return m, nil
}

func (m *viewModel) updateGoto(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateBrowse
		m.input.Blur()
		return m, nil
	case "enter":
		m.state = stateBrowse
		m.input.Blur()
		addr, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(m.input.Value()), "0x"), 16, 32)
		if err != nil {
			m.status = fmt.Sprintf("invalid address %q", m.input.Value())
			return m, nil
		}
		m.jump(int(addr))
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *viewModel) move(delta int) {
	if len(m.lines) == 0 {
		return
	}
	m.selected = min(max(m.selected+delta, 0), len(m.lines)-1)
	m.scroll()
}

func (m *viewModel) scroll() {
	if m.selected < m.top {
		m.top = m.selected
	}
	if m.selected >= m.top+m.height {
		m.top = m.selected - m.height + 1
	}
}

// jump selects the first instruction at or after addr.
func (m *viewModel) jump(addr int) {
	i := sort.Search(len(m.lines), func(i int) bool {
		return m.lines[i].Address() >= addr
	})
	if i == len(m.lines) {
		m.status = fmt.Sprintf("0x%08X is past the end of the code", addr)
		return
	}
	m.history = append(m.history, m.selected)
	m.selected = i
	if a := m.lines[i].Address(); a != addr {
		m.status = fmt.Sprintf("0x%08X is inside an instruction; showing 0x%08X", addr, a)
	}
	m.scroll()
}

// follow jumps to the target of a PC-relative branch.
func (m *viewModel) follow() {
	if len(m.lines) == 0 {
		return
	}
	in := m.lines[m.selected].Instruction
	if in.ArgType != opcode.ArgPCR {
		m.status = "not a branch"
		return
	}
	m.jump(in.BranchTarget())
}

func (m *viewModel) View() string {
	if !m.loaded {
		return "Loading listing..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("SX Viewer"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString(fmt.Sprintf("  %d instructions\n\n", len(m.lines)))

	end := min(m.top+m.height, len(m.lines))
	for i := m.top; i < end; i++ {
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + m.lines[i].String()))
		} else {
			b.WriteString("  " + styleLine(m.lines[i]))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	if m.state == stateGoto {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter jump • esc cancel"))
	} else {
		b.WriteString(helpStyle.Render("↑/↓ move • : goto • enter follow branch • b back • q quit"))
	}
	return b.String()
}
