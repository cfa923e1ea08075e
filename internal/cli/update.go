package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coursemirror/coursemirror/internal/snapshot"
	"github.com/coursemirror/coursemirror/internal/tree"
)

// newUpdateCmd creates the 'update' command.
func newUpdateCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh the snapshot with documents changed since the last run",
		Long: `Fetches, per course, only the documents changed since that course was
last refreshed and patches them into the snapshot. Courses of semesters
that are already over are skipped unless --all is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			root, snapPath, err := loadSnapshot()
			if err != nil {
				return err
			}

			src, err := newSource(cfg)
			if err != nil {
				return err
			}

			release, err := tree.AcquireRunLock(cfg.Sync.RootDir)
			if err != nil {
				return err
			}
			defer release()

			opts, reporter := engineOptions(cfg, src, "Refreshing courses")
			updater := tree.NewUpdater(opts)
			updater.RefreshThreshold = refreshThreshold(cfg)
			updater.OnUnauthorized = func() { clearStoredToken(cfg, cfgPath) }

			requests, dirty, updateErr := updater.Update(GetContext(), root, all)
			reporter.Finish()

			if dirty {
				if err := snapshot.Save(snapPath, root); err != nil {
					return fmt.Errorf("failed to save snapshot: %w", err)
				}
			}

			GetLogger().Info().
				Int("requests", requests).
				Bool("changed", dirty).
				Msg("update finished")

			return updateErr
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Refresh courses of past semesters too")

	return cmd
}
