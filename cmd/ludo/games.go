package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ludo/internal/apiclient"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func newGamesCommand(ctx *commandContext) *cobra.Command {
	gamesCmd := &cobra.Command{
		Use:   "games",
		Short: "Manage the game catalog",
	}

	var statusFilter string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List games",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			var statuses []string
			if statusFilter != "" {
				statuses = append(statuses, statusFilter)
			}
			games, err := client.ListGames(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, games)
			}
			rows := make([][]string, 0, len(games))
			for _, game := range games {
				monitored := ""
				if game.Monitored {
					monitored = "yes"
				}
				rows = append(rows, []string{
					strconv.FormatInt(game.ID, 10),
					game.Title,
					game.Platform,
					game.Status,
					game.InstalledVersion,
					game.UpdatePolicy,
					monitored,
				})
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"ID", "Title", "Platform", "Status", "Version", "Policy", "Monitored"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft})
			return nil
		},
	}
	listCmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (wanted, downloading, downloaded)")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one game with its folders",
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
			game, err := client.GetGame(cmd.Context(), id)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, game)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", game.Title, game.Platform)
			fmt.Fprintf(out, "  status:  %s\n", game.Status)
			fmt.Fprintf(out, "  policy:  %s\n", game.UpdatePolicy)
			if game.InstalledVersion != "" {
				fmt.Fprintf(out, "  version: %s\n", game.InstalledVersion)
			}
			if game.InstalledQuality != "" {
				fmt.Fprintf(out, "  quality: %s\n", game.InstalledQuality)
			}
			if len(game.Tags) > 0 {
				fmt.Fprintf(out, "  tags:    %s\n", strings.Join(game.Tags, ", "))
			}
			if len(game.Folders) > 0 {
				rows := make([][]string, 0, len(game.Folders))
				for _, folder := range game.Folders {
					primary := ""
					if folder.IsPrimary {
						primary = "*"
					}
					rows = append(rows, []string{
						strconv.FormatInt(folder.ID, 10),
						primary,
						folder.Path,
						folder.Version,
						folder.Quality,
					})
				}
				renderTable(out,
					[]string{"Folder", "Primary", "Path", "Version", "Quality"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft})
			}
			return nil
		},
	}

	var addIGDB int64
	var addPlatform, addPolicy string
	var addTags []string
	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a game to the catalog as wanted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			game, err := client.CreateGame(cmd.Context(), apiclient.CreateGameRequest{
				IGDBID:       addIGDB,
				Title:        args[0],
				Platform:     addPlatform,
				Tags:         addTags,
				UpdatePolicy: addPolicy,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q as game %d\n", game.Title, game.ID)
			return nil
		},
	}
	addCmd.Flags().Int64Var(&addIGDB, "igdb", 0, "IGDB identifier")
	addCmd.Flags().StringVar(&addPlatform, "platform", "", "Platform tag")
	addCmd.Flags().StringVar(&addPolicy, "policy", "", "Update policy (notify, auto, ignore)")
	addCmd.Flags().StringSliceVar(&addTags, "tag", nil, "Store tags")

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a game (folders on disk are untouched)",
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
			if err := client.DeleteGame(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Game %d removed\n", id)
			return nil
		},
	}

	policyCmd := &cobra.Command{
		Use:   "policy <id> <notify|auto|ignore>",
		Short: "Set a game's update policy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			game, err := client.SetPolicy(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Policy for %q set to %s\n", game.Title, game.UpdatePolicy)
			return nil
		},
	}

	primaryCmd := &cobra.Command{
		Use:   "primary <gameId> <folderId>",
		Short: "Set a game's primary folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := parseID(args[0])
			if err != nil {
				return err
			}
			folderID, err := parseID(args[1])
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.SetPrimaryFolder(cmd.Context(), gameID, folderID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Folder %d is now primary for game %d\n", folderID, gameID)
			return nil
		},
	}

	gamesCmd.AddCommand(listCmd, showCmd, addCmd, removeCmd, policyCmd, primaryCmd)
	return gamesCmd
}
