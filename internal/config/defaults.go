package config

const (
	defaultDataDir             = "~/.local/share/ludo"
	defaultAPIBind             = "127.0.0.1:7455"
	defaultIndexerTimeout      = 30
	defaultDownloadTimeout     = 30
	defaultMetadataTimeout     = 15
	defaultDownloadCategory    = "games"
	defaultReconcileInterval   = 5
	defaultUpdateCheckInterval = 86400
	defaultUpdatePolicy        = "notify"
	defaultNtfyTimeout         = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			APIBind: defaultAPIBind,
		},
		Indexer: Indexer{
			Timeout:    defaultIndexerTimeout,
			Categories: []int{1000, 4050},
		},
		DownloadClient: DownloadClient{
			DefaultCategory: defaultDownloadCategory,
			Timeout:         defaultDownloadTimeout,
		},
		Metadata: Metadata{
			Timeout: defaultMetadataTimeout,
		},
		Workflow: Workflow{
			ReconcileInterval:   defaultReconcileInterval,
			UpdateCheckInterval: defaultUpdateCheckInterval,
		},
		Updates: Updates{
			DefaultPolicy: defaultUpdatePolicy,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			Grabs:          true,
			Downloads:      true,
			Updates:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
