package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("daemon unreachable: %w", err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daemon:   running (pid %d)\n", status.PID)
			fmt.Fprintf(out, "Database: %s\n", status.DatabasePath)
			fmt.Fprintf(out, "Lock:     %s\n", status.LockPath)

			if len(status.Games) > 0 {
				statuses := make([]string, 0, len(status.Games))
				for name := range status.Games {
					statuses = append(statuses, name)
				}
				sort.Strings(statuses)
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Games:")
				for _, name := range statuses {
					fmt.Fprintf(out, "  %-12s %d\n", name, status.Games[name])
				}
			}

			if len(status.Tasks) > 0 {
				rows := make([][]string, 0, len(status.Tasks))
				for _, task := range status.Tasks {
					lastRun := "never"
					if !task.LastRun.IsZero() {
						lastRun = task.LastRun.Format("2006-01-02 15:04:05")
					}
					lastErr := task.LastErr
					if lastErr == "" {
						lastErr = "-"
					}
					rows = append(rows, []string{task.Name, task.Interval, lastRun, lastErr})
				}
				fmt.Fprintln(out)
				renderTable(out,
					[]string{"Task", "Interval", "Last Run", "Last Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft})
			}
			return nil
		},
	}
}
