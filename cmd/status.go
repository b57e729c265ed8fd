package cmd

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/archmole/internal/optimize"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
	"github.com/lakshaymaurya-felt/archmole/internal/status"
)

var (
	statusRefresh int
	statusJSON    bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Monitor system health",
	Long: `Live dashboard with CPU, memory, swap, disk, network and the busiest
processes. On the processes tab, x kills the selected process.

With --json, one sample is printed and the command exits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval := time.Duration(statusRefresh) * time.Second
		if statusJSON || !useTUI() {
			return printMetricsJSON(cmd, interval)
		}
		return withApp(func(a *app) error {
			model := status.NewStatusModel(interval, status.WithKill(a.killFromDashboard))
			_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		})
	},
}

// printMetricsJSON takes two samples one interval apart so network speeds
// are filled in.
func printMetricsJSON(cmd *cobra.Command, interval time.Duration) error {
	ctx, stop := signalContext()
	defer stop()

	first, err := status.CollectMetrics(ctx, nil, interval)
	if err != nil {
		return err
	}
	select {
	case <-time.After(interval):
	case <-ctx.Done():
		return ctx.Err()
	}
	m, err := status.CollectMetrics(ctx, &first.Network, interval)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*status.SystemMetrics
		HealthScore int `json:"health_score"`
	}{m, status.HealthScore(m)})
}

// killFromDashboard suspends the dashboard while the kill runs so sudo can
// prompt for a password on the terminal.
func (a *app) killFromDashboard(pid int32) tea.Cmd {
	done := func(err error) tea.Msg {
		if err == nil {
			a.log.Successf("process %d killed", pid)
		} else {
			a.log.Errorf("Kill process failed: %v", err)
		}
		return status.KillResultMsg{PID: pid, Err: err}
	}
	if pid <= 1 {
		return func() tea.Msg { return done(fmt.Errorf("refusing to kill pid %d", pid)) }
	}

	spec := optimize.KillSpec(int(pid))
	if dryRun {
		a.log.Infof("dry run: %s", spec)
		return func() tea.Msg { return status.KillResultMsg{PID: pid} }
	}
	decision := a.gate.Check(spec.Privilege())
	if !decision.Allowed {
		return func() tea.Msg { return done(fmt.Errorf("%w: %s", runner.ErrPrivilegeDenied, decision.Reason)) }
	}
	argv := decision.WrapInteractive(spec.Argv())
	return tea.ExecProcess(exec.Command(argv[0], argv[1:]...), done)
}

func init() {
	statusCmd.Flags().IntVar(&statusRefresh, "refresh", 1, "Refresh interval in seconds")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print one metrics sample as JSON")
}
