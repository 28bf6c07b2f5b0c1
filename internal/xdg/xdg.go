// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

// Package xdg provides XDG Base Directory paths for the commerce API.
package xdg

import (
	"os"
	"path/filepath"
)

const (
	appName        = "commerce-api"
	configFileName = "config.yaml"
)

// ConfigDir returns the XDG config directory for the commerce API.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the default config file path and whether a regular
// file exists there.
func ConfigFile() (string, bool) {
	path := filepath.Join(ConfigDir(), configFileName)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return path, false
	}
	return path, true
}
