package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/portmux/ipcwire"
	"github.com/portmux/ipcwire/codec"
	"github.com/portmux/ipcwire/handletab"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	schemaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectSchema modelState = iota
	stateInputMessage
	stateShowResult
)

type inspectModel struct {
	err      error
	result   string
	handles  string
	schemas  []demoSchema
	inputs   []textinput.Model
	selected int
	focusIdx int
	encode   bool
	state    modelState
}

func newInspectModel() *inspectModel {
	return &inspectModel{
		schemas: demoSchemas(),
		state:   stateSelectSchema,
	}
}

type runResultMsg struct {
	err     error
	result  string
	handles string
}

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputMessage {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectSchema && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectSchema && m.selected < len(m.schemas)-1 {
				m.selected++
			}

		case "e":
			if m.state == stateSelectSchema {
				m.encode = !m.encode
			}

		case "enter":
			switch m.state {
			case stateSelectSchema:
				m.prepareInputs()
				m.state = stateInputMessage

			case stateInputMessage:
				return m, m.runCodec

			case stateShowResult:
				m.state = stateSelectSchema
				m.result = ""
				m.handles = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputMessage && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputMessage:
				m.state = stateSelectSchema
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectSchema
				m.result = ""
				m.handles = ""
				m.err = nil
			}
		}

	case runResultMsg:
		m.result = msg.result
		m.handles = msg.handles
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputMessage {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *inspectModel) prepareInputs() {
	ds := m.schemas[m.selected]

	bytesIn := textinput.New()
	bytesIn.Placeholder = "message bytes as hex"
	bytesIn.Prompt = "bytes: "
	bytesIn.Width = 64
	bytesIn.Focus()

	handlesIn := textinput.New()
	handlesIn.Placeholder = strconv.Itoa(ds.handles)
	handlesIn.Prompt = "handles: "
	handlesIn.Width = 8

	m.inputs = []textinput.Model{bytesIn, handlesIn}
	m.focusIdx = 0
}

func (m *inspectModel) runCodec() tea.Msg {
	ds := m.schemas[m.selected]

	data, err := decodeHexText(m.inputs[0].Value())
	if err != nil {
		return runResultMsg{err: err}
	}
	handleCount := ds.handles
	if v := strings.TrimSpace(m.inputs[1].Value()); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return runResultMsg{err: fmt.Errorf("bad handle count %q", v)}
		}
		handleCount = n
	}

	tab := handletab.New()
	if m.encode {
		for i := 0; i < handleCount; i++ {
			tab.Create(fmt.Sprintf("handle-%d", i))
		}
		out := make([]ipcwire.Handle, handleCount)
		enc := codec.NewEncoder(codec.WithDisposer(tab))
		actual, err := enc.Encode(ds.typ, data, out)
		if err != nil {
			return runResultMsg{err: err}
		}
		return runResultMsg{
			result:  hex.Dump(data),
			handles: fmt.Sprintf("moved out: %v", out[:actual]),
		}
	}

	handles := make([]ipcwire.Handle, handleCount)
	for i := range handles {
		handles[i] = tab.Create(fmt.Sprintf("handle-%d", i))
	}
	dec := codec.NewDecoder(codec.WithDisposer(tab))
	if err := dec.Decode(ds.typ, data, handles); err != nil {
		return runResultMsg{err: fmt.Errorf("%w (all %d handles closed)", err, handleCount)}
	}
	return runResultMsg{
		result:  hex.Dump(data),
		handles: fmt.Sprintf("claimed into slots: %v", handles),
	}
}

func (m *inspectModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ipcwire inspect"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectSchema:
		direction := "decode"
		if m.encode {
			direction = "encode"
		}
		fmt.Fprintf(&b, "Select a schema (%s mode):\n\n", direction)
		for i, ds := range m.schemas {
			line := fmt.Sprintf("%-12s %s", ds.name, typeStyle.Render(ds.typ.String()))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • e toggle direction • enter choose • q quit"))

	case stateInputMessage:
		ds := m.schemas[m.selected]
		fmt.Fprintf(&b, "Message for %s\n\n", schemaStyle.Render(ds.name))
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter run • esc back"))

	case stateShowResult:
		ds := m.schemas[m.selected]
		fmt.Fprintf(&b, "Result for %s:\n\n", schemaStyle.Render(ds.name))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Rejected: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
			if m.handles != "" {
				b.WriteString("\n")
				b.WriteString(m.handles)
			}
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func runInteractive() error {
	p := tea.NewProgram(newInspectModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
