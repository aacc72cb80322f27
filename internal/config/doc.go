// Package config loads and validates application settings.
//
// Values come from defaults, an optional YAML file, STUDYBUDDY_* environment
// variables and command-line flags, and are checked with struct tags before
// any component starts.
package config
