// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/loopers/commerce-api/internal/config"
	"github.com/loopers/commerce-api/internal/xdg"
)

const serviceName = "commerce-api"

// NewRootCmd creates the root command for the commerce API CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

// newRootCmd creates the root command with injectable dependencies.
func newRootCmd(deps *ServeDeps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "Loopers commerce API",
		Long: `The Loopers commerce API serves member signup, header based
authentication and password management over HTTP, backed by PostgreSQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (YAML)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(deps))
	cmd.AddCommand(newMigrateCmd(deps.MigratorFactory))
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadConfig builds the effective configuration for cmd from the config
// file and the command line. Without --config, the XDG default file is used
// when it exists.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		if defaultPath, ok := xdg.ConfigFile(); ok {
			path = defaultPath
		}
	}
	return config.Load(path, cmd.Flags())
}
