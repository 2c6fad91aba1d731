package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/gaintrack/internal/cli"
	"github.com/Veraticus/gaintrack/internal/engine"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/Veraticus/gaintrack/internal/tui/themes"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

const (
	compactWidth = 90
	sidePanel    = 40
	maxBarWidth  = 20
)

func tableColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Date", Width: 10},
		{Title: "Source", Width: 16},
		{Title: "Amount", Width: 14},
		{Title: "Status", Width: 8},
	}
}

func tableStyles(theme themes.Theme) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true)
	s.Selected = theme.Selected
	return s
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.renderHeader()}

	switch m.state {
	case StateAdding:
		sections = append(sections, m.renderForm())
	default:
		sections = append(sections, m.renderBody())
	}

	if line := m.renderStatus(); line != "" {
		sections = append(sections, line)
	}
	sections = append(sections, m.renderHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func periodLabel(p model.Period) string {
	if p.IsAll() {
		return "all time"
	}
	return p.String()
}

func (m Model) renderHeader() string {
	theme := m.config.Theme
	title := theme.Title.Render("GainTrack")
	period := theme.Subtitle.Render(fmt.Sprintf("‹ %s ›", periodLabel(m.period)))
	count := theme.Subtitle.Render(fmt.Sprintf("%d gains", len(m.visible)))
	return theme.Box.Render(lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", period, "  ", count))
}

func (m Model) renderBody() string {
	theme := m.config.Theme
	list := theme.BorderedBox.Render(m.renderTable())
	side := lipgloss.JoinVertical(lipgloss.Left, m.renderTotals(), m.renderBreakdown())

	if m.width < compactWidth {
		return lipgloss.JoinVertical(lipgloss.Left, list, side)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, list, " ", side)
}

func (m Model) renderTable() string {
	if len(m.visible) == 0 {
		empty := lipgloss.NewStyle().Foreground(m.config.Theme.Muted).Italic(true)
		return empty.Render(fmt.Sprintf("No gains in %s. Press a to add one.", periodLabel(m.period)))
	}
	return m.table.View()
}

func (m Model) renderTotals() string {
	theme := m.config.Theme
	label := lipgloss.NewStyle().Foreground(theme.Muted).Width(15)
	value := theme.Bold.Width(sidePanel - 19).Align(lipgloss.Right)

	line := func(name string, amount decimal.Decimal) string {
		return label.Render(name) + value.Render(cli.FormatAmount(amount))
	}

	lines := []string{
		theme.Title.Render("Totals"),
		line("Total gains", m.totals.TotalGains),
		line("Taxable base", m.totals.TaxableBase),
	}
	if m.period.IsAll() {
		lines = append(lines, line("Estimated tax", engine.WholeUnits(m.totals.EstimatedTax)))
	} else {
		// The month's own estimate applies the full schedule to that month alone.
		lines = append(lines,
			line("Month-only tax", engine.WholeUnits(m.totals.EstimatedTax)),
			line("All-time tax", engine.WholeUnits(m.ledgerTax)))
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(theme.Muted).Render(m.config.Schedule.String()))
	return theme.BorderedBox.Width(sidePanel).Render(strings.Join(lines, "\n"))
}

func (m Model) renderBreakdown() string {
	theme := m.config.Theme
	lines := []string{theme.Title.Render("By source")}

	if len(m.nodes) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.Muted).Render("nothing yet"))
		return theme.BorderedBox.Width(sidePanel).Render(strings.Join(lines, "\n"))
	}

	peak := decimal.Zero
	for _, n := range m.nodes {
		if n.Total.GreaterThan(peak) {
			peak = n.Total
		}
	}

	for _, n := range m.nodes {
		color := theme.CategoryColor(n.Color, n.Taxable, n.Resolved)
		name := lipgloss.NewStyle().Foreground(color).Bold(true).Render("● " + n.Name)
		status := model.TaxLabel(n.Taxable)
		if !n.Resolved {
			status = "unknown"
		}
		lines = append(lines,
			fmt.Sprintf("%s  %s", name, cli.FormatAmount(n.Total)),
			renderBar(n.Total, peak, color, theme)+" "+lipgloss.NewStyle().Foreground(theme.Muted).Render(status),
		)
	}
	return theme.BorderedBox.Width(sidePanel).Render(strings.Join(lines, "\n"))
}

// renderBar draws a bar proportional to value/peak. Any positive value gets at
// least one cell.
func renderBar(value, peak decimal.Decimal, color lipgloss.Color, theme themes.Theme) string {
	filled := 0
	if peak.IsPositive() {
		filled = int(value.Mul(decimal.NewFromInt(maxBarWidth)).Div(peak).IntPart())
		if filled == 0 && value.IsPositive() {
			filled = 1
		}
	}
	filled = min(filled, maxBarWidth)

	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	return bar + theme.BarEmpty.Render(strings.Repeat("░", maxBarWidth-filled))
}

func (m Model) renderForm() string {
	theme := m.config.Theme
	labels := [fieldCount]string{"Amount", "Source", "Date"}

	lines := []string{theme.Title.Render("Add gain")}
	for i, input := range m.inputs {
		lines = append(lines, theme.FormLabel.Render(labels[i])+" "+input.View())
	}
	if m.formErr != "" {
		lines = append(lines, "", theme.StatusError.Render(m.formErr))
	}
	return theme.BorderedBox.Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus() string {
	theme := m.config.Theme

	if m.state == StateConfirmDelete {
		return theme.StatusWarning.Render(fmt.Sprintf("Delete gain #%d? [y/N]", m.pendingDelete))
	}
	if m.status == "" {
		return ""
	}

	switch m.statusKind {
	case statusSuccess:
		return theme.StatusSuccess.Render(m.status)
	case statusWarning:
		return theme.StatusWarning.Render(m.status)
	case statusError:
		return theme.StatusError.Render(m.status)
	default:
		return theme.StatusInfo.Render(m.status)
	}
}

func (m Model) renderHelp() string {
	if m.state == StateAdding {
		return m.help.View(formKeys{km: m.keymap})
	}
	return m.help.View(m.keymap)
}
