package ui

import (
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quotatrack/quotatrack/internal/db"
	"github.com/quotatrack/quotatrack/internal/models"
	"github.com/quotatrack/quotatrack/internal/services/prediction"
)

const (
	refreshInterval = 15 * time.Second
	// historyPoints bounds how many samples feed the chart.
	historyPoints = 100
)

type (
	dataMsg struct {
		providers   []string
		latest      map[string]*models.UsageSample
		predictions map[string]*models.UsagePrediction
		history     map[string][]float64
	}
	errMsg     struct{ err error }
	refreshMsg time.Time
)

// Model is the dashboard's Bubble Tea model.
type Model struct {
	db            *db.DB
	predictor     *prediction.Service
	lookbackHours float64
	horizonHours  float64

	spinner spinner.Model
	loaded  bool
	err     error

	width    int
	height   int
	selected int

	providers   []string
	latest      map[string]*models.UsageSample
	predictions map[string]*models.UsagePrediction
	history     map[string][]float64
}

// NewModel creates a dashboard over the given store and predictor.
func NewModel(database *db.DB, predictor *prediction.Service, lookbackHours, horizonHours float64) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		db:            database,
		predictor:     predictor,
		lookbackHours: lookbackHours,
		horizonHours:  horizonHours,
		spinner:       sp,
	}
}

// Init starts the spinner and the first data load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadData(), scheduleRefresh())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.loadData()
		case "j", "down":
			if m.selected < len(m.providers)-1 {
				m.selected++
			}
			return m, nil
		case "k", "up":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		}

	case dataMsg:
		m.loaded = true
		m.err = nil
		m.providers = msg.providers
		m.latest = msg.latest
		m.predictions = msg.predictions
		m.history = msg.history
		if m.selected >= len(m.providers) {
			m.selected = 0
		}
		return m, nil

	case errMsg:
		m.loaded = true
		m.err = msg.err
		return m, nil

	case refreshMsg:
		return m, tea.Batch(m.loadData(), scheduleRefresh())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// loadData fetches the latest snapshot, predictions, and chart history.
func (m Model) loadData() tea.Cmd {
	database := m.db
	predictor := m.predictor
	lookback := m.lookbackHours
	horizon := m.horizonHours

	return func() tea.Msg {
		latest, err := database.LatestPerProvider()
		if err != nil {
			return errMsg{err: err}
		}

		predictions, err := predictor.PredictAll(lookback, horizon)
		if err != nil {
			return errMsg{err: err}
		}

		providers := make([]string, 0, len(latest))
		for provider := range latest {
			providers = append(providers, provider)
		}
		sort.Strings(providers)

		since := time.Now().Add(-time.Duration(lookback * float64(time.Hour)))
		history := make(map[string][]float64, len(providers))
		for _, provider := range providers {
			samples, err := database.UsageHistory(provider, historyPoints, &since)
			if err != nil {
				return errMsg{err: err}
			}
			// Samples arrive newest first; the chart wants oldest first.
			var values []float64
			for i := len(samples) - 1; i >= 0; i-- {
				if samples[i].PrimaryUsedPercent != nil {
					values = append(values, *samples[i].PrimaryUsedPercent)
				}
			}
			history[provider] = values
		}

		return dataMsg{
			providers:   providers,
			latest:      latest,
			predictions: predictions,
			history:     history,
		}
	}
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}
