package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"ludo/internal/api"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Scan library folders and resolve unmatched entries",
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan monitored libraries for game folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			report, err := client.Scan(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d folders: %d matched, %d unmatched\n",
				report["scanned"], report["matched"], report["unmatched"])
			return nil
		},
	}

	unmatchedCmd := &cobra.Command{
		Use:   "unmatched",
		Short: "List folders awaiting a metadata match",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			entries, err := client.Unmatched(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No unmatched folders")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				year := ""
				if entry.ParsedYear > 0 {
					year = strconv.Itoa(entry.ParsedYear)
				}
				rows = append(rows, []string{
					strconv.FormatInt(entry.ID, 10),
					entry.ParsedTitle,
					year,
					entry.State,
					entry.Path,
				})
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"ID", "Title", "Year", "State", "Path"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft})
			return nil
		},
	}

	autoMatchCmd := &cobra.Command{
		Use:   "auto-match <entryId>",
		Short: "Attempt an unambiguous metadata match for an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryID, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			game, err := client.AutoMatch(cmd.Context(), entryID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Matched entry %d to %q (game %d)\n", entryID, game.Title, game.ID)
			return nil
		},
	}

	var (
		matchIGDB      int64
		matchTitle     string
		matchYear      int
		matchPlatforms []string
		matchTags      []string
		matchLibrary   int64
	)
	matchCmd := &cobra.Command{
		Use:   "match <entryId>",
		Short: "Match an entry to a chosen metadata candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if matchIGDB == 0 || matchTitle == "" {
				return fmt.Errorf("both --igdb and --title are required")
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			candidate := api.Candidate{
				ID:        matchIGDB,
				Title:     matchTitle,
				Year:      matchYear,
				Platforms: matchPlatforms,
			}
			var libraryID *int64
			if matchLibrary > 0 {
				libraryID = &matchLibrary
			}
			game, err := client.Match(cmd.Context(), entryID, candidate, matchTags, libraryID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Matched entry %d to %q (game %d)\n", entryID, game.Title, game.ID)
			return nil
		},
	}
	matchCmd.Flags().Int64Var(&matchIGDB, "igdb", 0, "IGDB id of the chosen candidate")
	matchCmd.Flags().StringVar(&matchTitle, "title", "", "Canonical title of the chosen candidate")
	matchCmd.Flags().IntVar(&matchYear, "year", 0, "Release year of the chosen candidate")
	matchCmd.Flags().StringSliceVar(&matchPlatforms, "platform", nil, "Platforms of the chosen candidate")
	matchCmd.Flags().StringSliceVar(&matchTags, "tag", nil, "Tags to apply to the game")
	matchCmd.Flags().Int64Var(&matchLibrary, "library", 0, "Library to assign the game to")

	librariesCmd := &cobra.Command{
		Use:   "libraries",
		Short: "Manage configured library roots",
	}

	librariesListCmd := &cobra.Command{
		Use:   "list",
		Short: "List library roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			libs, err := client.ListLibraries(cmd.Context())
			if err != nil {
				return err
			}
			sort.Slice(libs, func(i, j int) bool { return libs[i].Priority < libs[j].Priority })
			if ctx.jsonOutput() {
				return writeJSON(cmd, libs)
			}
			rows := make([][]string, 0, len(libs))
			for _, lib := range libs {
				monitored := "no"
				if lib.Monitored {
					monitored = "yes"
				}
				rows = append(rows, []string{
					strconv.FormatInt(lib.ID, 10),
					lib.Name,
					lib.Path,
					lib.Platform,
					monitored,
					strconv.Itoa(lib.Priority),
				})
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"ID", "Name", "Path", "Platform", "Monitored", "Priority"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight})
			return nil
		},
	}

	var (
		addPlatform  string
		addCategory  string
		addPriority  int
		addUnwatched bool
	)
	librariesAddCmd := &cobra.Command{
		Use:   "add <name> <path>",
		Short: "Add a library root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			lib, err := client.CreateLibrary(cmd.Context(), api.Library{
				Name:             args[0],
				Path:             args[1],
				Platform:         addPlatform,
				Monitored:        !addUnwatched,
				DownloadEnabled:  true,
				DownloadCategory: addCategory,
				Priority:         addPriority,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added library %q (id %d)\n", lib.Name, lib.ID)
			return nil
		},
	}
	librariesAddCmd.Flags().StringVar(&addPlatform, "platform", "", "Platform for games in this library")
	librariesAddCmd.Flags().StringVar(&addCategory, "category", "", "Download client category for this library")
	librariesAddCmd.Flags().IntVar(&addPriority, "priority", 0, "Ordering priority")
	librariesAddCmd.Flags().BoolVar(&addUnwatched, "unmonitored", false, "Exclude from scheduled scans")

	librariesRemoveCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a library root",
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
			if err := client.DeleteLibrary(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed library %d\n", id)
			return nil
		},
	}

	librariesCmd.AddCommand(librariesListCmd, librariesAddCmd, librariesRemoveCmd)
	libraryCmd.AddCommand(scanCmd, unmatchedCmd, autoMatchCmd, matchCmd, librariesCmd)
	return libraryCmd
}
