// Package cli helpers shared by the build, update and sync commands.
package cli

import (
	"fmt"
	"time"

	"github.com/coursemirror/coursemirror/internal/api"
	"github.com/coursemirror/coursemirror/internal/config"
	"github.com/coursemirror/coursemirror/internal/httpx"
	"github.com/coursemirror/coursemirror/internal/model"
	"github.com/coursemirror/coursemirror/internal/pathutil"
	"github.com/coursemirror/coursemirror/internal/progress"
	"github.com/coursemirror/coursemirror/internal/snapshot"
	"github.com/coursemirror/coursemirror/internal/tree"
)

// resolveConfigPath returns the --config override or the default location.
func resolveConfigPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultPath()
}

// loadConfig loads the configuration and applies flag overrides.
// Priority: flags > config file > defaults.
func loadConfig() (*config.Config, string, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	if accessToken != "" {
		cfg.Server.AccessToken = accessToken
	}
	if serverURL != "" {
		cfg.Server.BaseURL = serverURL
	}
	if maxThreads > 0 {
		cfg.Sync.Workers = maxThreads
	}

	if cfg.Sync.RootDir != "" {
		dir, err := pathutil.Resolve(cfg.Sync.RootDir)
		if err != nil {
			return nil, "", err
		}
		cfg.Sync.RootDir = dir
	}

	return cfg, path, nil
}

// newSource creates the API client for the configured server, honoring the
// proxy settings. This is the standard way commands reach the remote side.
func newSource(cfg *config.Config) (*api.Client, error) {
	httpClient, err := httpx.NewClient(httpx.ProxyOptions{
		Mode:     cfg.Proxy.Mode,
		Host:     cfg.Proxy.Host,
		Port:     cfg.Proxy.Port,
		User:     cfg.Proxy.User,
		Password: cfg.Proxy.Password,
		NoProxy:  cfg.Proxy.NoProxy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return api.NewClient(httpClient, cfg.Server.BaseURL, cfg.Server.AccessToken), nil
}

// engineOptions assembles the shared engine options, attaching a spinner when
// stderr is a terminal.
func engineOptions(cfg *config.Config, src api.Source, spinnerLabel string) (tree.Options, *progress.Reporter) {
	reporter := progress.NewReporter()
	if progress.IsTerminal() {
		reporter.AttachSpinner(spinnerLabel)
	}
	return tree.Options{
		Source:   src,
		Log:      GetLogger(),
		Reporter: reporter,
		Workers:  cfg.Sync.Workers,
	}, reporter
}

// loadSnapshot reads the persisted tree, with a hint when none exists yet.
func loadSnapshot() (*model.SemestersRoot, string, error) {
	path, err := config.DefaultSnapshotPath()
	if err != nil {
		return nil, "", err
	}
	if !snapshot.Exists(path) {
		return nil, "", fmt.Errorf("no snapshot at %s, run 'coursemirror build' first", path)
	}
	root, err := snapshot.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load snapshot: %w", err)
	}
	return root, path, nil
}

// clearStoredToken removes the rejected access token from the config file so
// the next run fails fast with a clear message instead of hammering the
// server.
func clearStoredToken(cfg *config.Config, path string) {
	cfg.Server.AccessToken = ""
	if err := cfg.Save(path); err != nil {
		GetLogger().Warn().Err(err).Msg("could not clear stored token")
		return
	}
	GetLogger().Warn().Msg("stored access token was rejected and has been cleared")
}

// refreshThreshold converts the configured seconds into a duration.
func refreshThreshold(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Sync.RefreshThresholdSeconds) * time.Second
}

// countTree tallies courses and documents for the run summary.
func countTree(root *model.SemestersRoot) (courses, documents int) {
	var walk func(f *model.Folder)
	walk = func(f *model.Folder) {
		documents += len(f.ChildDocuments())
		for _, child := range f.ChildFolders() {
			walk(child)
		}
	}
	for _, sem := range root.AllSemesters() {
		for _, course := range sem.AllCourses() {
			courses++
			walk(course.Root)
		}
	}
	return courses, documents
}
