// Package cli provides the command-line interface for coursemirror.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coursemirror/coursemirror/internal/logging"
	"github.com/coursemirror/coursemirror/internal/version"
)

var (
	// Global flags
	cfgFile     string
	accessToken string
	serverURL   string
	verbose     bool
	maxThreads  int

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "coursemirror",
		Short: "Mirror a course document repository into a local directory tree",
		Long: `coursemirror ` + version.Version + `
Keeps a local directory tree in step with the documents of your courses.

Typical flow:
  coursemirror config set server.base_url https://courses.example.edu/api
  coursemirror config set server.access_token <token>
  coursemirror config set sync.root_dir ~/Courses
  coursemirror build      # one-time full listing
  coursemirror update     # incremental refresh of the snapshot
  coursemirror sync       # download new and changed files`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&accessToken, "token", "", "Access token (overrides config)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "", "Course server base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().IntVar(&maxThreads, "max-threads", 0, "Worker pool size (0 = number of CPUs)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling. In-flight transfers finish first.\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return logger
}

// GetContext returns the global CLI context. It is cancelled when the user
// presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}
