package status

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lakshaymaurya-felt/archmole/internal/core"
	"github.com/lakshaymaurya-felt/archmole/internal/ui"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(ui.ColorMuted).Width(11)
	cardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ui.ColorMuted).Padding(0, 1)
	sparkStyle = lipgloss.NewStyle().Foreground(ui.ColorPrimary)
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(ui.ColorSecondary)
)

// level maps a usage percentage to the palette: fine, warm, hot.
func level(pct float64) lipgloss.AdaptiveColor {
	switch {
	case pct >= 90:
		return ui.ColorError
	case pct >= 70:
		return ui.ColorWarning
	}
	return ui.ColorSuccess
}

func (m StatusModel) renderView() string {
	w := max(m.Width, 50)

	parts := []string{m.renderTabs(w)}
	if m.Metrics == nil {
		parts = append(parts, ui.HintBarStyle.Render("  Collecting metrics…"))
		if m.Err != nil {
			parts = append(parts, ui.ErrorStyle.Render("  "+ui.IconError+" "+m.Err.Error()))
		}
		return strings.Join(parts, "\n")
	}

	var body string
	switch m.Tab {
	case TabOverview:
		body = m.renderOverview(w)
	case TabCPU:
		body = m.renderCPU(w)
	case TabMemory:
		body = m.renderMemory(w)
	case TabDisk:
		body = m.renderDisk(w)
	case TabNetwork:
		body = m.renderNetwork()
	case TabProcesses:
		body = m.renderProcesses(w)
	}
	return strings.Join(append(parts, body, "", m.renderStatusFooter()), "\n")
}

func (m StatusModel) renderTabs(w int) string {
	var b strings.Builder
	for i, name := range TabNames {
		label := " " + strconv.Itoa(i+1) + " " + name + " "
		if Tab(i) == m.Tab {
			b.WriteString(lipgloss.NewStyle().Bold(true).Reverse(true).Foreground(ui.ColorPrimary).Render(label))
		} else {
			b.WriteString(ui.MutedStyle.Render(label))
		}
	}
	return b.String() + "\n" + ui.MutedStyle.Render(strings.Repeat("─", w))
}

// ─── Shared pieces ───────────────────────────────────────────────────────────

func kv(label, value string) string {
	return "  " + labelStyle.Render(label) + value
}

// meter renders a usage bar followed by the percentage.
func meter(pct float64, width int) string {
	pct = min(max(pct, 0), 100)
	filled := int(pct / 100 * float64(width))
	bar := lipgloss.NewStyle().Foreground(level(pct)).Render(strings.Repeat("█", filled)) +
		ui.MutedStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %5.1f%%", bar, pct)
}

// ratio renders "used / total" in binary units.
func ratio(used, total uint64) string {
	return core.FormatSize(int64(used)) + " / " + core.FormatSize(int64(total))
}

func barWidth(w, narrow, wide int) int {
	if w > 110 {
		return wide
	}
	return narrow
}

// sparkline scales data to eight block heights and left-pads to width.
func sparkline[T float64 | uint64](data []T, width int) string {
	const blocks = "▁▂▃▄▅▆▇█"
	steps := []rune(blocks)
	if len(data) > width {
		data = data[len(data)-width:]
	}
	var peak T
	for _, v := range data {
		peak = max(peak, v)
	}
	var b strings.Builder
	b.WriteString(strings.Repeat(string(steps[0]), width-len(data)))
	for _, v := range data {
		idx := 0
		if peak > 0 {
			idx = min(int(float64(v)/float64(peak)*7), 7)
		}
		b.WriteRune(steps[idx])
	}
	return sparkStyle.Render(b.String())
}

// ─── Overview ────────────────────────────────────────────────────────────────

func (m StatusModel) renderOverview(w int) string {
	met := m.Metrics
	score := HealthScore(met)
	verdict := "healthy"
	switch {
	case score < 50:
		verdict = "critical"
	case score < 70:
		verdict = "strained"
	case score < 90:
		verdict = "fine"
	}
	headline := lipgloss.NewStyle().Bold(true).Foreground(level(100 - float64(score))).
		Render(fmt.Sprintf("  Health %d/100 %s %s", score, ui.IconBullet, verdict))

	hw := met.Hardware
	host := cardStyle.Render(strings.Join([]string{
		kv("Host", hw.Hostname),
		kv("Distro", hw.Distro),
		kv("Kernel", hw.Kernel+" "+ui.MutedStyle.Render(hw.Architecture)),
		kv("CPU", fmt.Sprintf("%s ×%d", hw.CPUModel, hw.CPUCores)),
		kv("Uptime", formatUptime(hw.Uptime)),
		kv("Load", fmt.Sprintf("%.2f %.2f %.2f", met.Load.Load1, met.Load.Load5, met.Load.Load15)),
	}, "\n"))

	bw := barWidth(w, 24, 32)
	usage := []string{
		kv("CPU", meter(met.CPU.TotalPercent, bw)),
		kv("Memory", meter(met.Memory.UsedPercent, bw)+"  "+ratio(met.Memory.Used, met.Memory.Total)),
	}
	if met.Memory.SwapTotal > 0 {
		usage = append(usage, kv("Swap", meter(met.Memory.SwapPercent, bw)+"  "+ratio(met.Memory.SwapUsed, met.Memory.SwapTotal)))
	}
	if root, ok := rootPartition(met.Disk); ok {
		usage = append(usage, kv("Disk /", meter(root.UsedPercent, bw)+"  "+ratio(root.Used, root.Total)))
	}
	usage = append(usage, kv("Network", "↓ "+formatSpeed(met.Network.RecvSpeed)+"  ↑ "+formatSpeed(met.Network.SendSpeed)))

	parts := []string{"", headline, "", host, cardStyle.Render(strings.Join(usage, "\n"))}
	if hints := cleanupHints(met); len(hints) > 0 {
		parts = append(parts, cardStyle.BorderForeground(ui.ColorWarning).Render(strings.Join(hints, "\n")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func rootPartition(d DiskMetrics) (PartitionMetric, bool) {
	for _, p := range d.Partitions {
		if p.Path == "/" {
			return p, true
		}
	}
	if len(d.Partitions) > 0 {
		return d.Partitions[0], true
	}
	return PartitionMetric{}, false
}

// cleanupHints suggests the am command that addresses each pressure point.
func cleanupHints(met *SystemMetrics) []string {
	var hints []string
	if root, ok := rootPartition(met.Disk); ok && root.UsedPercent >= 85 {
		hints = append(hints, fmt.Sprintf("  %s %s is %.0f%% full: am clean --all, am analyze", ui.IconChevron, root.Path, root.UsedPercent))
	}
	if met.Memory.UsedPercent >= 85 {
		hints = append(hints, fmt.Sprintf("  %s memory at %.0f%%: am optimize --memory", ui.IconChevron, met.Memory.UsedPercent))
	}
	if met.Memory.SwapTotal > 0 && met.Memory.SwapPercent >= 50 {
		hints = append(hints, fmt.Sprintf("  %s swap at %.0f%%: check the processes tab", ui.IconChevron, met.Memory.SwapPercent))
	}
	return hints
}

// ─── Detail tabs ─────────────────────────────────────────────────────────────

func (m StatusModel) renderCPU(w int) string {
	met := m.Metrics
	bw := barWidth(w, 40, 56)
	lines := []string{"", kv("Total", meter(met.CPU.TotalPercent, bw))}
	if len(m.CPUHistory) > 1 {
		lines = append(lines, kv("History", sparkline(m.CPUHistory, 30)))
	}
	lines = append(lines, "")
	for i, pct := range met.CPU.PerCore {
		lines = append(lines, kv("Core "+strconv.Itoa(i), meter(pct, bw-10)))
	}
	return strings.Join(lines, "\n")
}

func (m StatusModel) renderMemory(w int) string {
	mem := m.Metrics.Memory
	lines := []string{
		"",
		kv("Used", meter(mem.UsedPercent, barWidth(w, 40, 56))),
		"",
		kv("Total", core.FormatSize(int64(mem.Total))),
		kv("Used", core.FormatSize(int64(mem.Used))),
		kv("Available", core.FormatSize(int64(mem.Available))),
		kv("Free", core.FormatSize(int64(mem.Free))),
		kv("Cached", core.FormatSize(int64(mem.Cached))+ui.MutedStyle.Render("  reclaimable with am optimize --memory")),
	}
	if len(m.MemHistory) > 1 {
		lines = append(lines, kv("History", sparkline(m.MemHistory, 30)))
	}
	if mem.SwapTotal > 0 {
		lines = append(lines, "", kv("Swap", meter(mem.SwapPercent, barWidth(w, 40, 56))+"  "+ratio(mem.SwapUsed, mem.SwapTotal)))
	}
	return strings.Join(lines, "\n")
}

func (m StatusModel) renderDisk(w int) string {
	disk := m.Metrics.Disk
	bw := barWidth(w, 20, 32)
	rows := make([][]string, 0, len(disk.Partitions))
	for _, p := range disk.Partitions {
		rows = append(rows, []string{p.Path, p.Fstype, meter(p.UsedPercent, bw), ratio(p.Used, p.Total)})
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("MOUNT", "FS", "USED", "SPACE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle.PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})
	ioLines := kv("Read", core.FormatSize(int64(disk.ReadBytes))) + "\n" + kv("Written", core.FormatSize(int64(disk.WriteBytes)))
	return lipgloss.JoinVertical(lipgloss.Left, t.String(), ioLines)
}

func (m StatusModel) renderNetwork() string {
	nw := m.Metrics.Network
	lines := []string{
		"",
		kv("↓ Download", formatSpeed(nw.RecvSpeed)),
		kv("↑ Upload", formatSpeed(nw.SendSpeed)),
		"",
		kv("Received", core.FormatSize(int64(nw.BytesRecv))),
		kv("Sent", core.FormatSize(int64(nw.BytesSent))),
	}
	if len(m.NetRecvHistory) > 1 {
		lines = append(lines, "", kv("↓", sparkline(m.NetRecvHistory, 30)), kv("↑", sparkline(m.NetSendHistory, 30)))
	}
	return strings.Join(lines, "\n")
}

func (m StatusModel) renderProcesses(w int) string {
	procs := m.Metrics.TopProcs
	if len(procs) == 0 {
		return "\n" + ui.HintBarStyle.Render("  (no process data yet)")
	}
	nameW := barWidth(w, 22, 30)
	rows := make([][]string, len(procs))
	for i, p := range procs {
		name := p.Name
		if len(name) > nameW {
			name = name[:nameW-1] + "…"
		}
		marker := " "
		if i == m.procCursor {
			marker = ui.IconChevron
		}
		rows[i] = []string{marker, itoa(p.PID), name, fmt.Sprintf("%5.1f", p.CPUPct), fmt.Sprintf("%5.1f", p.MemPct)}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		BorderStyle(ui.MutedStyle).
		Headers("", "PID", "NAME", "CPU%", "MEM%").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headStyle.PaddingRight(1)
			case row == m.procCursor:
				return lipgloss.NewStyle().Foreground(ui.ColorPrimary).Bold(true).PaddingRight(1)
			}
			return lipgloss.NewStyle().PaddingRight(1)
		})
	return "\n" + headStyle.Render("  Top processes by CPU") + "\n" + t.String()
}

// ─── Footer ──────────────────────────────────────────────────────────────────

func (m StatusModel) renderStatusFooter() string {
	keys := []string{"tab switch", "1-6 jump", "r refresh", "q quit"}
	if m.Tab == TabProcesses && m.kill != nil {
		keys = append(keys, "↑/↓ select", "x kill")
	}
	footer := ui.HintBarStyle.Render("  " + strings.Join(keys, "  "+ui.IconPipe+"  "))

	var lines []string
	if m.notice != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(ui.ColorWarning).Render("  "+m.notice))
	}
	if m.Err != nil {
		lines = append(lines, ui.ErrorStyle.Render("  "+ui.IconError+" "+m.Err.Error()))
	}
	return strings.Join(append(lines, footer), "\n")
}

// formatSpeed renders a byte rate in binary units.
func formatSpeed(bps uint64) string {
	return core.FormatSize(int64(bps)) + "/s"
}

// formatUptime renders an uptime as days, hours and minutes.
func formatUptime(d time.Duration) string {
	d = d.Truncate(time.Minute)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}

func itoa(pid int32) string {
	return strconv.FormatInt(int64(pid), 10)
}
