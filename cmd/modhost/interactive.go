package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/script-host/registry"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	moduleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	requestStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type inspectorModel struct {
	reg      *registry.Registry
	modules  []registry.ModuleInfo
	filtered []registry.ModuleInfo
	filter   textinput.Model
	rootID   registry.ModuleID
	selected int
}

func newInspectorModel(reg *registry.Registry, rootID registry.ModuleID) *inspectorModel {
	ti := textinput.New()
	ti.Placeholder = "filter modules"
	ti.Prompt = "/ "

	modules := reg.Modules()
	return &inspectorModel{
		reg:      reg,
		modules:  modules,
		filtered: modules,
		filter:   ti,
		rootID:   rootID,
	}
}

func (m *inspectorModel) Init() tea.Cmd {
	return nil
}

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.filter.Focused() {
				return m, tea.Quit
			}
		case "esc":
			if m.filter.Focused() {
				m.filter.Blur()
				return m, nil
			}
			return m, tea.Quit
		case "/":
			if !m.filter.Focused() {
				m.filter.Focus()
				return m, textinput.Blink
			}
		case "enter":
			if m.filter.Focused() {
				m.filter.Blur()
				return m, nil
			}
		case "up", "k":
			if !m.filter.Focused() && m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if !m.filter.Focused() && m.selected < len(m.filtered)-1 {
				m.selected++
			}
		}
	}

	if m.filter.Focused() {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
		return m, cmd
	}
	return m, nil
}

func (m *inspectorModel) applyFilter() {
	query := strings.ToLower(m.filter.Value())
	if query == "" {
		m.filtered = m.modules
	} else {
		m.filtered = nil
		for _, info := range m.modules {
			if strings.Contains(strings.ToLower(info.Name), query) {
				m.filtered = append(m.filtered, info)
			}
		}
	}
	if m.selected >= len(m.filtered) {
		m.selected = 0
	}
}

func (m *inspectorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("modhost - %d modules, root #%d", len(m.modules), m.rootID)))
	b.WriteString("\n\n")

	for i, info := range m.filtered {
		line := fmt.Sprintf("#%-3d %-7s %s", info.ID, info.Type, info.Name)
		if info.Main {
			line += " (main)"
		}
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(moduleStyle.Render("  " + line))
		}
		b.WriteByte('\n')
	}

	if len(m.filtered) == 0 {
		b.WriteString(helpStyle.Render("  no modules match"))
		b.WriteByte('\n')
	}

	if m.selected < len(m.filtered) {
		info := m.filtered[m.selected]
		b.WriteByte('\n')
		if len(info.Requests) == 0 {
			b.WriteString(requestStyle.Render("  no imports"))
			b.WriteByte('\n')
		}
		for _, req := range info.Requests {
			b.WriteString(requestStyle.Render(fmt.Sprintf("  -> %s (%s)", req.Specifier, req.AssertedType)))
			b.WriteByte('\n')
		}
	}

	b.WriteByte('\n')
	if m.filter.Focused() {
		b.WriteString(m.filter.View())
	} else {
		b.WriteString(helpStyle.Render("up/down: select - /: filter - q: quit"))
	}
	b.WriteByte('\n')

	return b.String()
}

func runInteractive(reg *registry.Registry, rootID registry.ModuleID) error {
	p := tea.NewProgram(newInspectorModel(reg, rootID))
	_, err := p.Run()
	return err
}
