package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownPolicies = map[string]struct{}{
	"notify": {},
	"auto":   {},
	"ignore": {},
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		problems = append(problems, "paths.api_bind must be set")
	}
	if c.Workflow.ReconcileInterval <= 0 {
		problems = append(problems, "workflow.reconcile_interval must be positive")
	}
	if c.Workflow.UpdateCheckInterval <= 0 {
		problems = append(problems, "workflow.update_check_interval must be positive")
	}
	if _, ok := knownPolicies[c.Updates.DefaultPolicy]; !ok {
		problems = append(problems, fmt.Sprintf("updates.default_policy must be notify, auto, or ignore (got %q)", c.Updates.DefaultPolicy))
	}
	if c.Indexer.Timeout <= 0 {
		problems = append(problems, "indexer.timeout must be positive")
	}
	if c.DownloadClient.Timeout <= 0 {
		problems = append(problems, "download_client.timeout must be positive")
	}
	if c.Metadata.Timeout <= 0 {
		problems = append(problems, "metadata.timeout must be positive")
	}
	if c.Steam.Enabled && strings.TrimSpace(c.Steam.Root) == "" {
		problems = append(problems, "steam.root must be set when steam.enabled is true")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
}
