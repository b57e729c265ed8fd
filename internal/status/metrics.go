package status

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/lakshaymaurya-felt/archmole/internal/core"
)

// topProcLimit is how many processes the Processes tab lists.
const topProcLimit = 10

// ─── Metric types ────────────────────────────────────────────────────────────

// SystemMetrics is one sample of system health.
type SystemMetrics struct {
	CollectedAt time.Time       `json:"collected_at"`
	Hardware    HardwareInfo    `json:"hardware"`
	CPU         CPUMetrics      `json:"cpu"`
	Load        LoadMetrics     `json:"load"`
	Memory      MemoryMetrics   `json:"memory"`
	Disk        DiskMetrics     `json:"disk"`
	Network     NetworkMetrics  `json:"network"`
	TopProcs    []ProcessMetric `json:"top_processes"`
}

// HardwareInfo describes the host.
type HardwareInfo struct {
	Hostname     string        `json:"hostname"`
	Distro       string        `json:"distro"`
	Kernel       string        `json:"kernel"`
	CPUModel     string        `json:"cpu_model"`
	CPUCores     int           `json:"cpu_cores"`
	RAMTotal     uint64        `json:"ram_total"`
	Architecture string        `json:"architecture"`
	Uptime       time.Duration `json:"uptime_ns"`
}

// CPUMetrics holds utilisation percentages.
type CPUMetrics struct {
	TotalPercent float64   `json:"total_percent"`
	PerCore      []float64 `json:"per_core"`
}

// LoadMetrics holds the load averages.
type LoadMetrics struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// MemoryMetrics holds RAM and swap usage in bytes.
type MemoryMetrics struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Available   uint64  `json:"available"`
	Free        uint64  `json:"free"`
	Cached      uint64  `json:"cached"`
	UsedPercent float64 `json:"used_percent"`
	SwapTotal   uint64  `json:"swap_total"`
	SwapUsed    uint64  `json:"swap_used"`
	SwapPercent float64 `json:"swap_percent"`
}

// PartitionMetric is the usage of one mounted filesystem.
type PartitionMetric struct {
	Path        string  `json:"path"`
	Device      string  `json:"device"`
	Fstype      string  `json:"fstype"`
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"used_percent"`
}

// DiskMetrics holds filesystem usage and cumulative IO.
type DiskMetrics struct {
	Partitions []PartitionMetric `json:"partitions"`
	ReadBytes  uint64            `json:"read_bytes"`
	WriteBytes uint64            `json:"write_bytes"`
}

// NetworkMetrics holds cumulative counters and speeds since the previous sample.
type NetworkMetrics struct {
	BytesSent uint64 `json:"bytes_sent"`
	BytesRecv uint64 `json:"bytes_recv"`
	SendSpeed uint64 `json:"send_speed"`
	RecvSpeed uint64 `json:"recv_speed"`
}

// ProcessMetric is one row of the process table.
type ProcessMetric struct {
	PID    int32   `json:"pid"`
	Name   string  `json:"name"`
	CPUPct float64 `json:"cpu_percent"`
	MemPct float64 `json:"mem_percent"`
}

// ─── Collection ──────────────────────────────────────────────────────────────

// CollectMetrics samples the system. prevNet, when set, is the previous
// network sample taken interval ago and is used to derive speeds. Memory is
// required; every other section degrades to zero values on error.
func CollectMetrics(ctx context.Context, prevNet *NetworkMetrics, interval time.Duration) (*SystemMetrics, error) {
	m := &SystemMetrics{CollectedAt: time.Now()}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	m.Memory = MemoryMetrics{
		Total:       vm.Total,
		Used:        vm.Used,
		Available:   vm.Available,
		Free:        vm.Free,
		Cached:      vm.Cached,
		UsedPercent: vm.UsedPercent,
	}
	if sw, err := mem.SwapMemoryWithContext(ctx); err == nil {
		m.Memory.SwapTotal = sw.Total
		m.Memory.SwapUsed = sw.Used
		m.Memory.SwapPercent = sw.UsedPercent
	}

	m.Hardware = collectHardware(ctx, vm.Total)

	if total, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(total) > 0 {
		m.CPU.TotalPercent = total[0]
	}
	if per, err := cpu.PercentWithContext(ctx, 0, true); err == nil {
		m.CPU.PerCore = per
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		m.Load = LoadMetrics{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}
	}

	m.Disk = collectDisk(ctx)
	m.Network = collectNetwork(ctx, prevNet, interval)
	m.TopProcs = collectTopProcs(ctx, topProcLimit)
	return m, nil
}

func collectHardware(ctx context.Context, ramTotal uint64) HardwareInfo {
	hw := HardwareInfo{
		RAMTotal:     ramTotal,
		Architecture: runtime.GOARCH,
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		hw.Hostname = info.Hostname
		hw.Kernel = info.KernelVersion
		hw.Uptime = time.Duration(info.Uptime) * time.Second
		hw.Distro = info.Platform
		if info.KernelArch != "" {
			hw.Architecture = info.KernelArch
		}
	}
	if rel, err := core.ReadOSRelease(); err == nil && rel.PrettyName != "" {
		hw.Distro = rel.PrettyName
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		hw.CPUModel = infos[0].ModelName
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		hw.CPUCores = n
	}
	return hw
}

func collectDisk(ctx context.Context) DiskMetrics {
	var d DiskMetrics
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err == nil {
		seen := make(map[string]bool)
		for _, p := range parts {
			if seen[p.Device] {
				continue
			}
			usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
			if err != nil || usage.Total == 0 {
				continue
			}
			seen[p.Device] = true
			d.Partitions = append(d.Partitions, PartitionMetric{
				Path:        p.Mountpoint,
				Device:      p.Device,
				Fstype:      p.Fstype,
				Total:       usage.Total,
				Used:        usage.Used,
				UsedPercent: usage.UsedPercent,
			})
		}
		// Root first, then by mount point.
		sort.SliceStable(d.Partitions, func(i, j int) bool {
			if d.Partitions[i].Path == "/" || d.Partitions[j].Path == "/" {
				return d.Partitions[i].Path == "/"
			}
			return d.Partitions[i].Path < d.Partitions[j].Path
		})
	}
	if io, err := disk.IOCountersWithContext(ctx); err == nil {
		for _, c := range io {
			d.ReadBytes += c.ReadBytes
			d.WriteBytes += c.WriteBytes
		}
	}
	return d
}

func collectNetwork(ctx context.Context, prev *NetworkMetrics, interval time.Duration) NetworkMetrics {
	var n NetworkMetrics
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil || len(counters) == 0 {
		return n
	}
	n.BytesSent = counters[0].BytesSent
	n.BytesRecv = counters[0].BytesRecv
	n.SendSpeed, n.RecvSpeed = Speeds(prev, n, interval)
	return n
}

// Speeds derives per-second rates from two cumulative samples. Counter
// resets yield zero.
func Speeds(prev *NetworkMetrics, cur NetworkMetrics, interval time.Duration) (send, recv uint64) {
	secs := interval.Seconds()
	if prev == nil || secs <= 0 {
		return 0, 0
	}
	if cur.BytesSent >= prev.BytesSent {
		send = uint64(float64(cur.BytesSent-prev.BytesSent) / secs)
	}
	if cur.BytesRecv >= prev.BytesRecv {
		recv = uint64(float64(cur.BytesRecv-prev.BytesRecv) / secs)
	}
	return send, recv
}

func collectTopProcs(ctx context.Context, limit int) []ProcessMetric {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil
	}
	out := make([]ProcessMetric, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		cpuPct, _ := p.CPUPercentWithContext(ctx)
		memPct, _ := p.MemoryPercentWithContext(ctx)
		out = append(out, ProcessMetric{PID: p.Pid, Name: name, CPUPct: cpuPct, MemPct: float64(memPct)})
	}
	return TopByCPU(out, limit)
}

// TopByCPU returns the limit busiest processes, ties broken by memory.
func TopByCPU(procs []ProcessMetric, limit int) []ProcessMetric {
	sort.SliceStable(procs, func(i, j int) bool {
		if procs[i].CPUPct != procs[j].CPUPct {
			return procs[i].CPUPct > procs[j].CPUPct
		}
		return procs[i].MemPct > procs[j].MemPct
	})
	if len(procs) > limit {
		procs = procs[:limit]
	}
	return procs
}

// ─── Health score ────────────────────────────────────────────────────────────

// HealthScore rates the sample from 0 to 100. Memory pressure, CPU load
// above the core count, swap use and a nearly full root filesystem cost
// points.
func HealthScore(m *SystemMetrics) int {
	if m == nil {
		return 0
	}
	score := 100.0

	if m.Memory.UsedPercent > 70 {
		score -= (m.Memory.UsedPercent - 70) * 1.0
	}
	if m.CPU.TotalPercent > 80 {
		score -= (m.CPU.TotalPercent - 80) * 0.75
	}
	if cores := float64(m.Hardware.CPUCores); cores > 0 && m.Load.Load5 > cores {
		score -= min(20, (m.Load.Load5/cores-1)*20)
	}
	if m.Memory.SwapPercent > 50 {
		score -= (m.Memory.SwapPercent - 50) * 0.2
	}
	for _, p := range m.Disk.Partitions {
		if p.Path == "/" && p.UsedPercent > 85 {
			score -= (p.UsedPercent - 85) * 2
		}
	}

	if score < 0 {
		return 0
	}
	return int(score + 0.5)
}
