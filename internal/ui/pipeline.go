package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lakshaymaurya-felt/archmole/internal/oplog"
	"github.com/lakshaymaurya-felt/archmole/internal/pipeline"
)

// ─── Messages ────────────────────────────────────────────────────────────────

// EventMsg forwards a pipeline event into the program.
type EventMsg struct{ Event pipeline.Event }

// LogMsg forwards an operation log line into the program.
type LogMsg struct{ Line oplog.Line }

// ─── Model ───────────────────────────────────────────────────────────────────

type stepState int

const (
	stepPending stepState = iota
	stepRunning
	stepDone
	stepFailed
)

// maxLogLines is how many recent log lines stay on screen.
const maxLogLines = 8

// PipelineModel renders a pipeline run: the step list, a progress bar and
// the latest log lines. ctrl+c requests cancellation; the program quits
// once the run reports it has finished.
type PipelineModel struct {
	title     string
	steps     []string
	states    []stepState
	percent   float64
	lines     []oplog.Line
	progress  progress.Model
	spinner   spinner.Model
	cancel    func()
	canceling bool
	finished  bool
	final     pipeline.State
	err       error
	width     int
}

// NewPipelineModel builds a model for steps. cancel is invoked on ctrl+c.
func NewPipelineModel(title string, steps []pipeline.Step, cancel func()) PipelineModel {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return PipelineModel{
		title:    title,
		steps:    names,
		states:   make([]stepState, len(steps)),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(ColorPrimary))),
		cancel:   cancel,
		width:    80,
	}
}

// Final returns the terminal state seen, and the run error.
func (m PipelineModel) Final() (pipeline.State, error) {
	return m.final, m.err
}

// Finished reports whether the run has ended.
func (m PipelineModel) Finished() bool { return m.finished }

// Percent returns the displayed progress.
func (m PipelineModel) Percent() float64 { return m.percent }

// Lines returns the log lines on screen.
func (m PipelineModel) Lines() []oplog.Line { return m.lines }

func (m PipelineModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m PipelineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(10, min(60, msg.Width-20))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.finished {
				return m, tea.Quit
			}
			if !m.canceling && m.cancel != nil {
				m.canceling = true
				m.cancel()
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case LogMsg:
		m.lines = append(m.lines, msg.Line)
		if len(m.lines) > maxLogLines {
			m.lines = m.lines[len(m.lines)-maxLogLines:]
		}
		return m, nil

	case EventMsg:
		return m.applyEvent(msg.Event)
	}
	return m, nil
}

func (m PipelineModel) applyEvent(ev pipeline.Event) (tea.Model, tea.Cmd) {
	inRange := ev.Index >= 0 && ev.Index < len(m.states)
	switch ev.Kind {
	case pipeline.StepStarted:
		if inRange {
			m.states[ev.Index] = stepRunning
		}
	case pipeline.StepFinished:
		if inRange {
			m.states[ev.Index] = stepDone
			if !ev.Outcome.Succeeded() {
				m.states[ev.Index] = stepFailed
			}
		}
	case pipeline.ProgressChanged:
		m.percent = ev.Progress
	case pipeline.RunFinished:
		m.finished = true
		m.final = ev.State
		m.err = ev.Err
		m.percent = ev.Progress
		return m, tea.Quit
	}
	return m, nil
}

func (m PipelineModel) View() string {
	var s strings.Builder
	s.WriteString("\n  " + TitleStyle.Render(m.title) + "\n\n")

	for i, name := range m.steps {
		var icon string
		style := lipgloss.NewStyle().Foreground(ColorText)
		switch m.states[i] {
		case stepRunning:
			icon = m.spinner.View()
		case stepDone:
			icon = SuccessStyle.Render(IconSuccess)
		case stepFailed:
			icon = ErrorStyle.Render(IconError)
		default:
			icon = MutedStyle.Render(IconPending)
			if m.finished {
				icon = MutedStyle.Render(IconSkipped)
			}
			style = MutedStyle
		}
		fmt.Fprintf(&s, "  %s %s\n", icon, style.Render(name))
	}

	s.WriteString("\n  " + m.progress.ViewAs(m.percent) + "\n\n")

	for _, l := range m.lines {
		s.WriteString("  " + RenderLine(l) + "\n")
	}

	s.WriteString("\n")
	switch {
	case m.finished:
		s.WriteString("  " + m.summary() + "\n")
	case m.canceling:
		s.WriteString(HintBarStyle.Render("  Canceling after the current step…") + "\n")
	default:
		s.WriteString(HintBarStyle.Render("  ctrl+c cancel "+IconPipe+" runs continue past non-critical failures") + "\n")
	}
	return s.String()
}

func (m PipelineModel) summary() string {
	failed := 0
	for _, st := range m.states {
		if st == stepFailed {
			failed++
		}
	}
	switch {
	case m.final == pipeline.Aborted && m.err != nil:
		return ErrorStyle.Render(fmt.Sprintf("%s Aborted: %v", IconError, m.err))
	case failed > 0:
		return ErrorStyle.Render(fmt.Sprintf("%s Completed with %d failed step(s)", IconError, failed))
	default:
		return SuccessStyle.Render(IconSuccess + " Completed")
	}
}
