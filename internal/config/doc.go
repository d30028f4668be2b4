// Package config loads application settings from an optional YAML file and
// ENBOT_-prefixed environment variables, validates them, and exposes them as
// typed structs grouped by concern.
package config
