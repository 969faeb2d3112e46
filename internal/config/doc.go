// Package config loads command-buffer settings from TOML or YAML files,
// applies LUSUSH_* environment overrides, and optionally watches the
// config file for live reload.
//
// Resolution order, lowest to highest priority:
//
//	defaults -> config file -> environment
//
// A missing config file is not an error; the defaults apply.
package config
