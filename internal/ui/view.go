package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// View renders the dashboard.
func (m Model) View() string {
	if !m.loaded {
		return fmt.Sprintf("\n %s loading usage data...\n", m.spinner.View())
	}

	width := m.width
	if width < 40 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("quotatrack"))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n\n")
	}

	if len(m.providers) == 0 {
		b.WriteString(helpStyle.Render("No usage samples yet. Run a fetch to collect data."))
		b.WriteString("\n\n")
		b.WriteString(m.helpLine())
		return b.String()
	}

	for i, provider := range m.providers {
		b.WriteString(m.renderRow(i, provider, width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderChart(width))
	b.WriteString("\n\n")
	b.WriteString(m.helpLine())

	return b.String()
}

// renderRow renders one provider line: cursor, name, bar, badge, and the
// time-to-limit label when a prediction exists.
func (m Model) renderRow(index int, provider string, width int) string {
	sample := m.latest[provider]
	pred := m.predictions[provider]

	cursor := "  "
	nameStyle := rowStyle
	if index == m.selected {
		cursor = "> "
		nameStyle = selectedStyle
	}

	used := 0.0
	if sample != nil && sample.PrimaryUsedPercent != nil {
		used = *sample.PrimaryUsedPercent
	}

	barWidth := width / 2
	if barWidth > 50 {
		barWidth = 50
	}
	bar := UsageBar(used, nameStyle.Width(10).Render(provider), barWidth)

	detail := ""
	if pred != nil {
		detail = fmt.Sprintf("  %s  %s", StatusBadge(pred.Status), helpStyle.Render(pred.TimeToLimitLabel()))
	}

	return ansi.Truncate(cursor+bar+detail, width, "…")
}

// renderChart plots the selected provider's recent usage.
func (m Model) renderChart(width int) string {
	if m.selected >= len(m.providers) {
		return ""
	}
	provider := m.providers[m.selected]

	chartWidth := width - 12
	if chartWidth > 100 {
		chartWidth = 100
	}

	return RenderHistoryChart(m.history[provider], chartWidth, 8, provider+" usage %")
}

func (m Model) helpLine() string {
	return helpStyle.Render("j/k: select  r: refresh  q: quit")
}
