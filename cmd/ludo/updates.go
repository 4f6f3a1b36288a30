package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newUpdatesCommand(ctx *commandContext) *cobra.Command {
	updatesCmd := &cobra.Command{
		Use:   "updates",
		Short: "Review and act on detected game updates",
	}

	var listStatuses []string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List update candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			updates, err := client.ListUpdates(cmd.Context(), listStatuses...)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, updates)
			}
			if len(updates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No updates")
				return nil
			}
			rows := make([][]string, 0, len(updates))
			for _, update := range updates {
				rows = append(rows, []string{
					strconv.FormatInt(update.ID, 10),
					strconv.FormatInt(update.GameID, 10),
					update.UpdateType,
					update.Title,
					update.Version,
					formatSize(update.Size),
					update.Status,
				})
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"ID", "Game", "Type", "Title", "Version", "Size", "Status"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft})
			return nil
		},
	}
	listCmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (pending, grabbed, dismissed)")

	var checkGame int64
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Run an update check now",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if checkGame > 0 {
				found, err := client.CheckGameUpdates(cmd.Context(), checkGame)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Found %d new update(s) for game %d\n", found, checkGame)
				return nil
			}
			report, err := client.CheckAllUpdates(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Checked %d game(s), found %d new update(s)\n",
				report["checked"], report["updatesFound"])
			return nil
		},
	}
	checkCmd.Flags().Int64Var(&checkGame, "game", 0, "Check a single game instead of all eligible games")

	grabCmd := &cobra.Command{
		Use:   "grab <updateId>",
		Short: "Grab a pending update",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			grab, err := client.GrabUpdate(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Grabbed %q (grab %d)\n", grab.Title, grab.ID)
			return nil
		},
	}

	dismissCmd := &cobra.Command{
		Use:   "dismiss <updateId>",
		Short: "Dismiss a pending update",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.DismissUpdate(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dismissed update %d\n", id)
			return nil
		},
	}

	updatesCmd.AddCommand(listCmd, checkCmd, grabCmd, dismissCmd)
	return updatesCmd
}
