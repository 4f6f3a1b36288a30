// Package config loads, validates, and normalizes Ludo's TOML configuration.
package config
