package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dat/internal/scoring"
)

// ScorePort is the TUI-facing subset of the scoring pipeline.
type ScorePort interface {
	Score(answer []string) (scoring.Result, error)
	PairLabels() []string
	MinimumWords() int
}

type entry struct {
	answer []string
	result scoring.Result
}

// Model is the Bubble Tea model for the interactive scorer.
type Model struct {
	scorer   ScorePort
	input    textinput.Model
	viewport viewport.Model
	history  []entry
	summary  string
	status   string
	cursor   int
	ready    bool
}

// New creates a new TUI model instance.
func New(scorer ScorePort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = fmt.Sprintf("Type %d words separated by commas and press Enter", scorer.MinimumWords())
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{scorer: scorer, input: ti, viewport: vp, summary: summary, status: "Loaded. Type an answer."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			words := SplitAnswer(m.input.Value())
			if len(words) > 0 {
				res, err := m.scorer.Score(words)
				if err != nil {
					m.status = "Error: " + err.Error()
				} else {
					m.history = append(m.history, entry{answer: words, result: res})
					m.cursor = len(m.history) - 1
					m.status = statusLine(res, m.scorer.MinimumWords())
					m.input.SetValue("")
				}
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "down":
			if len(m.history) > 0 {
				m.cursor = (m.cursor + 1) % len(m.history)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if len(m.history) > 0 {
				m.cursor = (m.cursor - 1 + len(m.history)) % len(m.history)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and the selected answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Divergent Association Task")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

// SplitAnswer splits a typed answer on commas, or on whitespace when there
// are no commas. Commas keep multi-word phrases together.
func SplitAnswer(s string) []string {
	var parts []string
	if strings.Contains(s, ",") {
		parts = strings.Split(s, ",")
	} else {
		parts = strings.Fields(s)
	}
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func statusLine(res scoring.Result, minimum int) string {
	if res.Scored {
		return fmt.Sprintf("DAT %.2f", res.Score)
	}
	return fmt.Sprintf("Not scored: %d of %d valid words", len(res.Valid), minimum)
}

func (m Model) renderCurrent() string {
	if len(m.history) == 0 {
		return "No answers yet."
	}
	e := m.history[m.cursor]
	var b strings.Builder
	fmt.Fprintf(&b, "Answer %d/%d: %s\n\n", m.cursor+1, len(m.history), strings.Join(e.answer, ", "))
	fmt.Fprintf(&b, "Valid:   %s\n", strings.Join(e.result.Valid, ", "))
	if len(e.result.Invalid) > 0 {
		fmt.Fprintf(&b, "Invalid: %s\n", invalidStyle.Render(strings.Join(e.result.Invalid, ", ")))
	}
	if !e.result.Scored {
		fmt.Fprintf(&b, "\nNeed %d valid words to score.", m.scorer.MinimumWords())
		return b.String()
	}
	fmt.Fprintf(&b, "\n%s\n\n", highlightStyle.Render(fmt.Sprintf("DAT = %.2f", e.result.Score)))
	b.WriteString(renderPairs(e.result.Subset, m.scorer.PairLabels(), e.result.Distances))
	return b.String()
}

// renderPairs lists every pair distance and highlights the farthest pair.
func renderPairs(subset, labels []string, distances []float64) string {
	far := 0
	for i, d := range distances {
		if d > distances[far] {
			far = i
		}
	}
	lines := make([]string, 0, len(distances))
	i := 0
	for a := 0; a < len(subset); a++ {
		for c := a + 1; c < len(subset) && i < len(distances); c++ {
			label := ""
			if i < len(labels) {
				label = labels[i]
			}
			line := fmt.Sprintf("%-7s %-28s %.4f", label, subset[a]+" / "+subset[c], distances[i])
			if i == far {
				line = highlightStyle.Render(line)
			}
			lines = append(lines, line)
			i++
		}
	}
	return strings.Join(lines, "\n")
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	invalidStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
