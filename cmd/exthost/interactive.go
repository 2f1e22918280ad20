package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/wippyai/extension-host/protocol"
	"github.com/wippyai/extension-host/registry"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	extStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// eventLogSize caps how many events the console keeps on screen.
const eventLogSize = 12

type consoleState int

const (
	stateSelectExt consoleState = iota
	stateCompose
)

type consoleModel struct {
	reg      *registry.Registry
	input    textinput.Model
	sendErr  error
	exts     []string
	events   []string
	selected int
	state    consoleState
}

type eventMsg struct {
	ev registry.Event
	ok bool
}

func newConsoleModel(reg *registry.Registry) *consoleModel {
	ti := textinput.New()
	ti.Placeholder = `{"type":"ListTools","payload":{}}`
	ti.Prompt = "command> "
	ti.Width = 72

	return &consoleModel{
		reg:   reg,
		input: ti,
		exts:  reg.List(),
		state: stateSelectExt,
	}
}

func (m *consoleModel) Init() tea.Cmd {
	return m.waitForEvent
}

func (m *consoleModel) waitForEvent() tea.Msg {
	ev, ok := <-m.reg.Events()
	return eventMsg{ev: ev, ok: ok}
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateCompose && msg.String() == "q" {
				break
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectExt && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectExt && m.selected < len(m.exts)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectExt:
				if len(m.exts) == 0 {
					return m, nil
				}
				m.state = stateCompose
				m.input.Focus()
				return m, textinput.Blink

			case stateCompose:
				m.sendErr = m.sendCommand(m.input.Value())
				if m.sendErr == nil {
					m.input.SetValue("")
				}
				return m, nil
			}

		case "esc":
			if m.state == stateCompose {
				m.state = stateSelectExt
				m.input.Blur()
				m.sendErr = nil
			}
		}

	case eventMsg:
		if !msg.ok {
			return m, tea.Quit
		}
		m.appendEvent(msg.ev)
		return m, m.waitForEvent
	}

	if m.state == stateCompose {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *consoleModel) sendCommand(raw string) error {
	var cmd protocol.Command
	if err := json.Unmarshal([]byte(raw), &cmd); err != nil {
		return fmt.Errorf("parse command: %w", err)
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}
	return m.reg.Send(m.exts[m.selected], cmd)
}

func (m *consoleModel) appendEvent(ev registry.Event) {
	line := fmt.Sprintf("[%s] %s", ev.Extension, renderResponse(ev.Response))
	m.events = append(m.events, line)
	if len(m.events) > eventLogSize {
		m.events = m.events[len(m.events)-eventLogSize:]
	}
}

func renderResponse(resp protocol.Response) string {
	switch resp.Type {
	case protocol.ResponseMetadata:
		return fmt.Sprintf("Metadata %s v%s", resp.Metadata.Name, resp.Metadata.Version)
	case protocol.ResponseError:
		return errorStyle.Render("Error: " + resp.Message)
	default:
		out, err := json.Marshal(resp)
		if err != nil {
			return string(resp.Type)
		}
		return string(out)
	}
}

func (m *consoleModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Extension Host"))
	b.WriteString("\n\n")

	if len(m.exts) == 0 {
		b.WriteString("No extensions running.\n")
		b.WriteString(helpStyle.Render("q quit"))
		return b.String()
	}

	b.WriteString("Extensions:\n")
	for i, id := range m.exts {
		cursor := "  "
		if i == m.selected {
			cursor = "> "
			b.WriteString(selectedStyle.Render(cursor + id))
		} else {
			b.WriteString(cursor + extStyle.Render(id))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.state == stateCompose {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		if m.sendErr != nil {
			b.WriteString(errorStyle.Render(m.sendErr.Error()))
			b.WriteString("\n")
		}
		b.WriteString(helpStyle.Render("enter send • esc back • ctrl+c quit"))
	} else {
		b.WriteString(helpStyle.Render("↑/↓ select • enter compose • q quit"))
	}

	b.WriteString("\n\nEvents:\n")
	if len(m.events) == 0 {
		b.WriteString(helpStyle.Render("  (waiting)"))
	}
	for _, line := range m.events {
		b.WriteString("  ")
		b.WriteString(eventStyle.Render(line))
		b.WriteString("\n")
	}

	return b.String()
}

func runInteractive(reg *registry.Registry) error {
	p := tea.NewProgram(newConsoleModel(reg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
