package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/panjul/internal/config"
)

// personasLoadedMsg is sent when personas are loaded for the selector
type personasLoadedMsg struct {
	personas []config.Persona
	err      error
}

// loadPersonas returns a command that reads the persona list
func (m Model) loadPersonas() tea.Cmd {
	store := m.opts.Personas
	return func() tea.Msg {
		if store == nil {
			return personasLoadedMsg{err: fmt.Errorf("personas not available")}
		}

		personas, err := store.List()
		if err != nil {
			return personasLoadedMsg{err: err}
		}

		defaultName, _ := store.DefaultName()
		return personasLoadedMsg{personas: sortPersonas(personas, defaultName)}
	}
}

// updatePersonaSelection handles updates when in persona selection mode
func (m Model) updatePersonaSelection(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case personasLoadedMsg:
		m.personaLoading = false
		if msg.err != nil {
			m.selectingPersona = false
			m.err = msg.err
		} else {
			m.personaList = msg.personas
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			m.closePersonaSelector()

		case "up", "k":
			if n := len(m.filteredPersonas()); n > 0 {
				m.personaCursor--
				if m.personaCursor < 0 {
					m.personaCursor = n - 1
				}
			}

		case "down", "j":
			if n := len(m.filteredPersonas()); n > 0 {
				m.personaCursor++
				if m.personaCursor >= n {
					m.personaCursor = 0
				}
			}

		case "enter":
			filtered := m.filteredPersonas()
			if len(filtered) > 0 && m.personaCursor < len(filtered) {
				selected := filtered[m.personaCursor]
				m.switchPersona(&selected)
			}

		case "backspace":
			if len(m.personaFilter) > 0 {
				m.personaFilter = m.personaFilter[:len(m.personaFilter)-1]
				m.personaCursor = 0
			}

		default:
			// Printable characters extend the filter
			if len(msg.String()) == 1 {
				r := []rune(msg.String())[0]
				if r >= ' ' && r <= '~' {
					m.personaFilter += msg.String()
					m.personaCursor = 0
				}
			}
		}
	}

	return m, nil
}

// switchPersona opens a fresh session for p. The previous conversation is dropped.
func (m *Model) switchPersona(p *config.Persona) {
	session, err := m.opts.NewSession(p)
	if err != nil {
		m.err = err
		m.closePersonaSelector()
		return
	}

	m.session = session
	m.persona = p
	m.textarea.Placeholder = p.InputPlaceholder()
	m.notice = "Now chatting with " + p.Label()
	m.logger.Info("persona switched", "persona", p.Name, "session", session.ID())

	m.closePersonaSelector()
	m.updateViewport()
}

func (m *Model) closePersonaSelector() {
	m.selectingPersona = false
	m.personaList = nil
	m.personaCursor = 0
	m.personaFilter = ""
}

// filteredPersonas returns the persona list filtered by personaFilter
func (m Model) filteredPersonas() []config.Persona {
	if m.personaFilter == "" {
		return m.personaList
	}

	filter := strings.ToLower(m.personaFilter)
	var filtered []config.Persona
	for _, p := range m.personaList {
		if strings.Contains(strings.ToLower(p.Name), filter) ||
			strings.Contains(strings.ToLower(p.Description), filter) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// renderPersonaSelector renders the persona selection overlay
func (m Model) renderPersonaSelector() string {
	width := m.width - 8
	if width < 40 {
		width = 40
	}

	var content strings.Builder

	title := selectorTitleStyle.Render("Select a persona")
	title += hintStyle.Render(fmt.Sprintf("  (current: %s)", m.persona.Name))
	content.WriteString(title)
	content.WriteString("\n\n")

	if m.personaFilter != "" {
		content.WriteString(inputLabelStyle.Render("Filter: ") + m.personaFilter + "_")
		content.WriteString("\n\n")
	}

	filtered := m.filteredPersonas()
	switch {
	case m.personaLoading:
		content.WriteString(loadingStyle.Render("  Loading personas..."))
	case len(m.personaList) == 0:
		content.WriteString(hintStyle.Render("  No personas found"))
	case len(filtered) == 0:
		content.WriteString(hintStyle.Render("  No personas match filter"))
	default:
		maxItems := 8
		startIdx := 0
		if m.personaCursor >= maxItems {
			startIdx = m.personaCursor - maxItems + 1
		}
		endIdx := startIdx + maxItems
		if endIdx > len(filtered) {
			endIdx = len(filtered)
		}

		if startIdx > 0 {
			content.WriteString(hintStyle.Render("  ↑ more above"))
			content.WriteString("\n")
		}

		for i := startIdx; i < endIdx; i++ {
			p := filtered[i]
			cursor := "  "
			nameStyle := selectorItemStyle
			if i == m.personaCursor {
				cursor = selectorCursorStyle.Render("▸ ")
				nameStyle = selectorSelectedStyle
			}

			line := cursor + nameStyle.Render(p.Name)
			if p.Name == m.persona.Name {
				line += " " + selectorTagStyle.Render("[active]")
			}

			if p.Description != "" {
				maxDesc := width - len(p.Name) - 15
				if maxDesc > 10 {
					desc := p.Description
					if len(desc) > maxDesc {
						desc = desc[:maxDesc-3] + "..."
					}
					line += hintStyle.Render(" - " + desc)
				}
			}

			content.WriteString(line)
			content.WriteString("\n")
		}

		if endIdx < len(filtered) {
			content.WriteString(hintStyle.Render("  ↓ more below"))
			content.WriteString("\n")
		}
	}

	content.WriteString("\n")

	shortcuts := []string{
		statusKeyStyle.Render("↑↓") + statusDescStyle.Render(" Navigate"),
		statusKeyStyle.Render("Enter") + statusDescStyle.Render(" Select"),
		statusKeyStyle.Render("Esc") + statusDescStyle.Render(" Cancel"),
	}
	content.WriteString(strings.Join(shortcuts, "  │  "))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2).
		Width(width)

	return boxStyle.Render(content.String())
}
