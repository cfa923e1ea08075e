// Package cli provides configuration management commands.
package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/coursemirror/coursemirror/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage coursemirror configuration",
		Long: `Configuration management commands.

Commands:
  show  - Display current configuration
  set   - Set a configuration value
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}

			token := "(not set)"
			if cfg.Server.AccessToken != "" {
				token = "(set)"
			}

			fmt.Printf("Configuration file: %s\n\n", path)
			fmt.Printf("server.base_url:                %s\n", cfg.Server.BaseURL)
			fmt.Printf("server.access_token:            %s\n", token)
			fmt.Printf("sync.root_dir:                  %s\n", cfg.Sync.RootDir)
			fmt.Printf("sync.preserve_modified:         %v\n", cfg.Sync.PreserveModified)
			fmt.Printf("sync.refresh_threshold_seconds: %d\n", cfg.Sync.RefreshThresholdSeconds)
			fmt.Printf("sync.workers:                   %d\n", cfg.Sync.Workers)
			fmt.Printf("proxy.mode:                     %s\n", cfg.Proxy.Mode)
			if cfg.Proxy.Host != "" {
				fmt.Printf("proxy.host:                     %s\n", cfg.Proxy.Host)
				fmt.Printf("proxy.port:                     %d\n", cfg.Proxy.Port)
				fmt.Printf("proxy.user:                     %s\n", cfg.Proxy.User)
				fmt.Printf("proxy.no_proxy:                 %s\n", cfg.Proxy.NoProxy)
			}
			return nil
		},
	}
}

// newConfigSetCmd creates the 'config set' command.
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Sets one configuration value and saves the file.

Keys:
  server.base_url                 Course server API base URL
  server.access_token             Access token
  sync.root_dir                   Local mirror root directory
  sync.preserve_modified          Keep superseded files as name_1, name_2, ... (true/false)
  sync.refresh_threshold_seconds  Skip courses refreshed more recently than this
  sync.workers                    Worker pool size (0 = number of CPUs)
  proxy.mode                      no-proxy, system, basic or ntlm
  proxy.host, proxy.port, proxy.user, proxy.no_proxy`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Printf("Saved %s to %s\n", args[0], path)
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

// setConfigValue applies one key=value assignment to cfg.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "server.base_url":
		cfg.Server.BaseURL = value
	case "server.access_token":
		cfg.Server.AccessToken = value
	case "sync.root_dir":
		cfg.Sync.RootDir = value
	case "sync.preserve_modified":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.Sync.PreserveModified = v
	case "sync.refresh_threshold_seconds":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil || v < 0 {
			return fmt.Errorf("%s must be a non-negative integer", key)
		}
		cfg.Sync.RefreshThresholdSeconds = v
	case "sync.workers":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return fmt.Errorf("%s must be a non-negative integer", key)
		}
		cfg.Sync.Workers = v
	case "proxy.mode":
		switch value {
		case "no-proxy", "system", "basic", "ntlm":
			cfg.Proxy.Mode = value
		default:
			return fmt.Errorf("proxy.mode must be no-proxy, system, basic or ntlm")
		}
	case "proxy.host":
		cfg.Proxy.Host = value
	case "proxy.port":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 || v > 65535 {
			return fmt.Errorf("proxy.port must be a valid port number")
		}
		cfg.Proxy.Port = v
	case "proxy.user":
		cfg.Proxy.User = value
	case "proxy.no_proxy":
		cfg.Proxy.NoProxy = value
	default:
		return fmt.Errorf("unknown configuration key %q", key)
	}
	return nil
}
