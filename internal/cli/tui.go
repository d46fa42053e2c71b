package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pyview/hiergraph/pkg/pipeline"
	"github.com/pyview/hiergraph/pkg/transform"
)

const progressBarWidth = 40

var (
	barFullStyle   = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(colorDim)
	stageDoneStyle = lipgloss.NewStyle().Foreground(colorGreen)
	stageNowStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
)

// =============================================================================
// ProgressModel - build progress view
// =============================================================================

type progressMsg transform.Progress

type doneMsg struct {
	res *pipeline.Result
	err error
}

// ProgressModel is the bubbletea model shown by `build --tui`. It lists the
// transformation stages and a progress bar for the whole run.
type ProgressModel struct {
	Input    string
	Progress transform.Progress
	Result   *pipeline.Result
	Err      error
	Done     bool

	cancel context.CancelFunc
}

// NewProgressModel creates a progress model. cancel is called when the user
// quits before the run completes.
func NewProgressModel(input string, cancel context.CancelFunc) ProgressModel {
	return ProgressModel{Input: input, cancel: cancel}
}

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			m.Err = transform.ErrAborted
			m.Done = true
			return m, tea.Quit
		}
	case progressMsg:
		if msg.Fraction >= m.Progress.Fraction {
			m.Progress = transform.Progress(msg)
		}
	case doneMsg:
		m.Result, m.Err, m.Done = msg.res, msg.err, true
		if msg.err == nil {
			m.Progress.Fraction = 1
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Transforming " + m.Input))
	b.WriteString("\n\n")

	for _, st := range transform.Stages {
		switch {
		case m.Progress.Fraction > 0 && st < m.Progress.Stage, m.Done && m.Err == nil:
			b.WriteString(stageDoneStyle.Render(iconSuccess + " " + st.Label()))
		case st == m.Progress.Stage && m.Progress.Fraction > 0:
			b.WriteString(stageNowStyle.Render(iconInfo + " " + st.Label()))
			if m.Progress.Detail != "" {
				b.WriteString("  " + StyleDim.Render(m.Progress.Detail))
			}
		default:
			b.WriteString(StyleDim.Render("  " + st.Label()))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderBar(m.Progress.Fraction, progressBarWidth))
	b.WriteString(fmt.Sprintf(" %3.0f%%", m.Progress.Fraction*100))
	if m.Progress.TotalItems > 0 {
		b.WriteString(StyleDim.Render(fmt.Sprintf("  %d/%d records", m.Progress.ProcessedItems, m.Progress.TotalItems)))
	}
	b.WriteString("\n")

	if !m.Done {
		b.WriteString(StyleDim.Render("q quit"))
		b.WriteString("\n")
	}
	return b.String()
}

func renderBar(fraction float64, width int) string {
	fraction = min(max(fraction, 0), 1)
	full := int(fraction * float64(width))
	return barFullStyle.Render(strings.Repeat("█", full)) +
		barEmptyStyle.Render(strings.Repeat("░", width-full))
}

// runWithTUI runs build in the background while showing a ProgressModel.
func runWithTUI(ctx context.Context, input string, build func(context.Context, transform.ProgressFunc) (*pipeline.Result, error)) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgressModel(input, cancel), tea.WithContext(ctx), tea.WithOutput(os.Stderr))

	go func() {
		res, err := build(ctx, func(pr transform.Progress) { p.Send(progressMsg(pr)) })
		p.Send(doneMsg{res: res, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil, transform.ErrAborted
		}
		return nil, fmt.Errorf("progress view: %w", err)
	}
	m := final.(ProgressModel)
	return m.Result, m.Err
}
