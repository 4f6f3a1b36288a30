package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newDownloadsCommand(ctx *commandContext) *cobra.Command {
	downloadsCmd := &cobra.Command{
		Use:   "downloads",
		Short: "Inspect and control live transfers",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List live transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			downloads, err := client.ListDownloads(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, downloads)
			}
			if len(downloads) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No active downloads")
				return nil
			}
			rows := make([][]string, 0, len(downloads))
			for _, d := range downloads {
				gameID := ""
				if d.GameID != nil {
					gameID = strconv.FormatInt(*d.GameID, 10)
				}
				rows = append(rows, []string{
					d.Hash,
					d.Name,
					formatProgress(d.Progress),
					d.State,
					formatSize(d.Size),
					gameID,
				})
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"Hash", "Name", "Progress", "State", "Size", "Game"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight})
			return nil
		},
	}

	pauseCmd := &cobra.Command{
		Use:   "pause <hash>",
		Short: "Pause a transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.PauseDownload(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Paused %s\n", args[0])
			return nil
		},
	}

	resumeCmd := &cobra.Command{
		Use:   "resume <hash>",
		Short: "Resume a transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.ResumeDownload(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resumed %s\n", args[0])
			return nil
		},
	}

	var deleteFiles bool
	cancelCmd := &cobra.Command{
		Use:   "cancel <hash>",
		Short: "Remove a transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.CancelDownload(cmd.Context(), args[0], deleteFiles); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s\n", args[0])
			return nil
		},
	}
	cancelCmd.Flags().BoolVar(&deleteFiles, "delete-files", false, "Also delete downloaded files")

	importCmd := &cobra.Command{
		Use:   "import <hash> <gameId>",
		Short: "Attach an externally added transfer to a game",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := parseID(args[1])
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			folder, err := client.ImportDownload(cmd.Context(), args[0], gameID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as folder %d\n", folder.Path, folder.ID)
			return nil
		},
	}

	var historyLimit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show download history",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			entries, err := client.History(cmd.Context(), historyLimit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				completed := ""
				if entry.CompletedAt != nil {
					completed = entry.CompletedAt.Format("2006-01-02 15:04")
				}
				rows = append(rows, []string{
					strconv.FormatInt(entry.ID, 10),
					entry.Title,
					entry.Status,
					fmt.Sprintf("%.0f%%", entry.Progress),
					completed,
				})
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"ID", "Title", "Status", "Progress", "Completed"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft})
			return nil
		},
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "Maximum entries to show")

	downloadsCmd.AddCommand(listCmd, pauseCmd, resumeCmd, cancelCmd, importCmd, historyCmd)
	return downloadsCmd
}
