package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"ludo/internal/apiclient"
	"ludo/internal/config"
)

// commandContext lazily resolves the daemon address from flags or config so
// commands that never talk to the daemon do not require a config file.
type commandContext struct {
	apiFlag    *string
	configFlag *string
	jsonFlag   *bool

	client *apiclient.Client
}

func newCommandContext(apiFlag, configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{apiFlag: apiFlag, configFlag: configFlag, jsonFlag: jsonFlag}
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// writeJSON renders v to the command's stdout for --json consumers.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *commandContext) apiClient() (*apiclient.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	addr := strings.TrimSpace(*c.apiFlag)
	if addr == "" {
		cfg, _, _, err := config.Load(*c.configFlag)
		if err != nil {
			return nil, err
		}
		addr = cfg.Paths.APIBind
	}
	c.client = apiclient.New(addr)
	return c.client, nil
}

func newRootCommand() *cobra.Command {
	var apiFlag string
	var configFlag string
	var jsonFlag bool

	ctx := newCommandContext(&apiFlag, &configFlag, &jsonFlag)

	rootCmd := &cobra.Command{
		Use:           "ludo",
		Short:         "Ludo game library CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiFlag, "api", "", "Daemon API address (host:port)")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of tables")

	rootCmd.AddCommand(newGamesCommand(ctx))
	rootCmd.AddCommand(newSearchCommand(ctx))
	rootCmd.AddCommand(newGrabCommand(ctx))
	rootCmd.AddCommand(newDownloadsCommand(ctx))
	rootCmd.AddCommand(newLibraryCommand(ctx))
	rootCmd.AddCommand(newUpdatesCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(&configFlag))

	return rootCmd
}
