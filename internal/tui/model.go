// Package tui renders batch progress in the terminal.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dharsanguruparan/DocShift/internal/model"
	"github.com/dharsanguruparan/DocShift/internal/processing"
)

type itemState struct {
	name     string
	status   model.ItemStatus
	progress int
	err      string
}

// Model follows queue events until the channel closes.
type Model struct {
	events   <-chan processing.Event
	target   model.Format
	started  time.Time
	width    int
	total    int
	order    []string
	items    map[string]*itemState
	quitting bool
}

type doneMsg struct{}

type eventMsg processing.Event

// NewModel expects total items converted to target.
func NewModel(events <-chan processing.Event, target model.Format, total int) Model {
	return Model{
		events:  events,
		target:  target,
		total:   total,
		started: time.Now(),
		items:   make(map[string]*itemState),
	}
}

func (m Model) Init() tea.Cmd {
	return listenForEvents(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		st, ok := m.items[msg.ItemID]
		if !ok {
			st = &itemState{name: msg.Filename}
			m.items[msg.ItemID] = st
			m.order = append(m.order, msg.ItemID)
		}
		st.status = msg.Status
		if msg.Progress > st.progress {
			st.progress = msg.Progress
		}
		st.err = msg.Error
		return m, listenForEvents(m.events)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

// Done counts items that completed or failed.
func (m Model) Done() (completed, failed int) {
	for _, st := range m.items {
		switch st.status {
		case model.StatusCompleted:
			completed++
		case model.StatusFailed:
			failed++
		case model.StatusQueued, model.StatusConverting:
		}
	}
	return completed, failed
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	completed, failed := m.Done()
	ratio := 0.0
	if m.total > 0 {
		ratio = math.Min(1, float64(completed+failed)/float64(m.total))
	}
	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render(fmt.Sprintf("docshift → %s", m.target.Label())),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", completed+failed, m.total)) +
			dimStyle.Render(fmt.Sprintf("  failed:%d", failed)),
		barStyle.Render(renderBar(barWidth, ratio)),
	}
	for _, id := range m.order {
		lines = append(lines, renderItem(m.items[id]))
	}
	lines = append(lines, dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)))
	return strings.Join(lines, "\n")
}

func renderItem(st *itemState) string {
	switch st.status {
	case model.StatusCompleted:
		return okStyle.Render("✓ ") + labelStyle.Render(st.name)
	case model.StatusFailed:
		return warnStyle.Render("✗ ") + labelStyle.Render(st.name) + dimStyle.Render("  "+st.err)
	case model.StatusConverting:
		return accentStyle.Render("• ") + labelStyle.Render(st.name) + dimStyle.Render(fmt.Sprintf("  %d%%", st.progress))
	case model.StatusQueued:
		return dimStyle.Render("  " + st.name)
	default:
		return dimStyle.Render("  " + st.name)
	}
}

func listenForEvents(events <-chan processing.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	filled = min(max(filled, 0), width)
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
