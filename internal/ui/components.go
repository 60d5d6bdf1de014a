package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/quotatrack/quotatrack/internal/models"
)

// RenderGradientBar renders a usage bar colored from green at the left to
// red at the right as usage fills.
func RenderGradientBar(usedPercent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * usedPercent / 100)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var chars []string
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#51cf66", "#ff6b6b", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			chars = append(chars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(colorSubtle)
			chars = append(chars, style.Render("░"))
		}
	}

	return strings.Join(chars, "")
}

// UsageBar renders a labelled usage bar with the percentage on the right.
func UsageBar(usedPercent float64, label string, width int) string {
	labelWidth := len(label) + 1
	percentWidth := 6
	barWidth := width - labelWidth - percentWidth - 4
	if barWidth < 5 {
		barWidth = 5
	}

	bar := RenderGradientBar(usedPercent, barWidth)

	labelStr := lipgloss.NewStyle().
		Foreground(colorTextSecondary).
		Render(label)

	percentStr := percentStyle(usedPercent).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", usedPercent))

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, percentStr)
}

// StatusBadge renders a short colored badge for a prediction status.
func StatusBadge(status models.PredictionStatus) string {
	var style lipgloss.Style
	switch status {
	case models.StatusAtLimit, models.StatusCritical:
		style = lipgloss.NewStyle().Foreground(colorCritical).Bold(true)
	case models.StatusWarning:
		style = lipgloss.NewStyle().Foreground(colorWarning)
	case models.StatusDecreasing:
		style = lipgloss.NewStyle().Foreground(colorInfo)
	default:
		style = lipgloss.NewStyle().Foreground(colorHealthy)
	}
	return style.Render(strings.ToUpper(string(status)))
}

// RenderHistoryChart plots a provider's recent usage values as an ASCII
// line chart, oldest to newest.
func RenderHistoryChart(values []float64, width, height int, caption string) string {
	if len(values) < 2 {
		return helpStyle.Render("Not enough history to chart")
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
