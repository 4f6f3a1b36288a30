package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ludo/internal/api"
)

func releaseRows(releases []api.Release) [][]string {
	rows := make([][]string, 0, len(releases))
	for i, rel := range releases {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			rel.Title,
			rel.Indexer,
			rel.Quality,
			rel.Version,
			formatSize(rel.Size),
			strconv.Itoa(rel.Seeders),
			rel.Health,
		})
	}
	return rows
}

var releaseHeaders = []string{"#", "Title", "Indexer", "Quality", "Version", "Size", "Seeders", "Health"}

var releaseAligns = []columnAlignment{
	alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft,
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var gameID int64
	searchCmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the indexer for releases",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			var releases []api.Release
			switch {
			case gameID > 0:
				releases, err = client.SearchReleasesForGame(cmd.Context(), gameID)
			case len(args) == 1:
				releases, err = client.SearchReleases(cmd.Context(), args[0])
			default:
				return fmt.Errorf("provide a query or --game")
			}
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, releases)
			}
			if len(releases) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No releases found")
				return nil
			}
			renderTable(cmd.OutOrStdout(), releaseHeaders, releaseRows(releases), releaseAligns)
			return nil
		},
	}
	searchCmd.Flags().Int64Var(&gameID, "game", 0, "Search scoped to a cataloged game")
	return searchCmd
}

func newGrabCommand(ctx *commandContext) *cobra.Command {
	var gameID int64
	grabCmd := &cobra.Command{
		Use:   "grab <query> <result#>",
		Short: "Search and grab one release for a game",
		Long:  "Runs the search again and grabs the release at the given position in the result list.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if gameID <= 0 {
				return fmt.Errorf("--game is required")
			}
			position, err := strconv.Atoi(args[1])
			if err != nil || position <= 0 {
				return fmt.Errorf("invalid result position %q", args[1])
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			releases, err := client.SearchReleases(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if position > len(releases) {
				return fmt.Errorf("result %d out of range (%d results)", position, len(releases))
			}
			rel := releases[position-1]
			grabbed, err := client.Grab(cmd.Context(), gameID, api.ReleaseInput{
				GUID:        rel.GUID,
				Title:       rel.Title,
				Indexer:     rel.Indexer,
				Size:        rel.Size,
				Seeders:     rel.Seeders,
				Categories:  rel.Categories,
				PublishedAt: rel.PublishedAt,
				DownloadURL: rel.DownloadURL,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Grabbed %q (grab %d, hash %s)\n",
				grabbed.Title, grabbed.ID, grabbed.Hash)
			return nil
		},
	}
	grabCmd.Flags().Int64Var(&gameID, "game", 0, "Game the release belongs to")
	return grabCmd
}
