package status

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Tab enumeration ─────────────────────────────────────────────────────────

// Tab identifies one of the dashboard sections.
type Tab int

const (
	TabOverview Tab = iota
	TabCPU
	TabMemory
	TabDisk
	TabNetwork
	TabProcesses
)

// TabNames is the display label for each tab.
var TabNames = []string{"Overview", "CPU", "Memory", "Disk", "Network", "Processes"}

// historyLen is how many samples the sparklines keep.
const historyLen = 60

// ─── Messages ────────────────────────────────────────────────────────────────

type tickMsg time.Time

type metricsMsg struct {
	metrics *SystemMetrics
	err     error
}

// KillResultMsg reports the outcome of a kill requested from the process tab.
type KillResultMsg struct {
	PID int32
	Err error
}

// KillFunc kills a process and reports back with a KillResultMsg.
type KillFunc func(pid int32) tea.Cmd

// Collector samples metrics. CollectMetrics is the production collector.
type Collector func(ctx context.Context, prev *NetworkMetrics, interval time.Duration) (*SystemMetrics, error)

// ─── Model ───────────────────────────────────────────────────────────────────

// StatusModel is the bubbletea Model for the system health dashboard.
type StatusModel struct {
	Metrics         *SystemMetrics
	prevNet         *NetworkMetrics
	Tab             Tab
	Width           int
	Height          int
	refreshInterval time.Duration
	collect         Collector
	kill            KillFunc
	procCursor      int
	confirmKill     bool
	notice          string
	quitting        bool
	Err             error

	// Sparkline ring buffers.
	NetSendHistory []uint64
	NetRecvHistory []uint64
	CPUHistory     []float64
	MemHistory     []float64
}

// Option configures a StatusModel.
type Option func(*StatusModel)

// WithCollector replaces the metrics collector.
func WithCollector(c Collector) Option {
	return func(m *StatusModel) { m.collect = c }
}

// WithKill enables killing processes from the Processes tab.
func WithKill(k KillFunc) Option {
	return func(m *StatusModel) { m.kill = k }
}

// NewStatusModel creates a StatusModel with the given refresh cadence.
func NewStatusModel(refreshInterval time.Duration, opts ...Option) StatusModel {
	if refreshInterval <= 0 {
		refreshInterval = time.Second
	}
	m := StatusModel{
		Width:           80,
		Height:          24,
		refreshInterval: refreshInterval,
		collect:         CollectMetrics,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m StatusModel) doTick() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m StatusModel) collectMetrics() tea.Cmd {
	prevNet := m.prevNet
	interval := m.refreshInterval
	collect := m.collect
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metrics, err := collect(ctx, prevNet, interval)
		return metricsMsg{metrics: metrics, err: err}
	}
}

// ─── tea.Model interface ─────────────────────────────────────────────────────

func (m StatusModel) Init() tea.Cmd {
	// The first metricsMsg starts the tick loop, so collection and display
	// stay strictly sequential.
	return m.collectMetrics()
}

func (m StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m, m.collectMetrics()

	case metricsMsg:
		if msg.err != nil {
			m.Err = msg.err
			return m, m.doTick()
		}
		m.Err = nil
		m.Metrics = msg.metrics
		m.prevNet = &msg.metrics.Network
		if m.procCursor >= len(msg.metrics.TopProcs) {
			m.procCursor = max(0, len(msg.metrics.TopProcs)-1)
		}

		m.CPUHistory = appendF64(m.CPUHistory, msg.metrics.CPU.TotalPercent, historyLen)
		m.MemHistory = appendF64(m.MemHistory, msg.metrics.Memory.UsedPercent, historyLen)
		m.NetSendHistory = appendU64(m.NetSendHistory, msg.metrics.Network.SendSpeed, historyLen)
		m.NetRecvHistory = appendU64(m.NetRecvHistory, msg.metrics.Network.RecvSpeed, historyLen)

		return m, m.doTick()

	case KillResultMsg:
		if msg.Err != nil {
			m.notice = ""
			m.Err = msg.Err
		} else {
			m.notice = "killed " + itoa(msg.PID)
		}
		return m, nil
	}

	return m, nil
}

func (m StatusModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.confirmKill {
		m.confirmKill = false
		if key == "enter" || key == "y" {
			if p, ok := m.selectedProc(); ok && m.kill != nil {
				m.notice = "killing " + itoa(p.PID) + "…"
				return m, m.kill(p.PID)
			}
		}
		m.notice = ""
		return m, nil
	}

	switch key {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "tab":
		m.Tab = (m.Tab + 1) % Tab(len(TabNames))
	case "shift+tab":
		if m.Tab == 0 {
			m.Tab = Tab(len(TabNames) - 1)
		} else {
			m.Tab--
		}
	case "1", "2", "3", "4", "5", "6":
		m.Tab = Tab(key[0] - '1')
	case "r":
		return m, m.collectMetrics()
	case "up", "k":
		if m.Tab == TabProcesses && m.procCursor > 0 {
			m.procCursor--
		}
	case "down", "j":
		if m.Tab == TabProcesses && m.Metrics != nil && m.procCursor < len(m.Metrics.TopProcs)-1 {
			m.procCursor++
		}
	case "x":
		if p, ok := m.selectedProc(); ok && m.Tab == TabProcesses && m.kill != nil {
			m.confirmKill = true
			m.notice = "kill " + p.Name + " (" + itoa(p.PID) + ")? enter to confirm"
		}
	}
	return m, nil
}

func (m StatusModel) selectedProc() (ProcessMetric, bool) {
	if m.Metrics == nil || m.procCursor < 0 || m.procCursor >= len(m.Metrics.TopProcs) {
		return ProcessMetric{}, false
	}
	return m.Metrics.TopProcs[m.procCursor], true
}

func (m StatusModel) View() string {
	if m.quitting {
		return ""
	}
	return m.renderView()
}

// ─── History helpers ─────────────────────────────────────────────────────────

func appendF64(h []float64, v float64, maxLen int) []float64 {
	h = append(h, v)
	if len(h) > maxLen {
		h = h[1:]
	}
	return h
}

func appendU64(h []uint64, v uint64, maxLen int) []uint64 {
	h = append(h, v)
	if len(h) > maxLen {
		h = h[1:]
	}
	return h
}
