// Package config loads and merges revet configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (REVET_PROVIDER, REVET_FAIL_ON, etc.)
//  3. YAML config file (repo-local .revet.yml, else $XDG_CONFIG_HOME/revet/config.yml)
//  4. Built-in defaults
//
// A malformed config is a ValidationError and aborts the run before any
// agent executes. The effective config's Hash() participates in cache keys
// so a config change invalidates cached agent results.
package config
