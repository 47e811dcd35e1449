// Package file provides the TOML-based configuration loader. Provider
// credentials are loaded once at process start and never reloaded; changing
// them requires a restart.
package file
