package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coursemirror/coursemirror/internal/config"
	"github.com/coursemirror/coursemirror/internal/snapshot"
	"github.com/coursemirror/coursemirror/internal/tree"
)

// newBuildCmd creates the 'build' command.
func newBuildCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "List the whole remote repository into a fresh snapshot",
		Long: `Lists every semester, course and folder of the remote repository and
writes the result as the local snapshot. Run once before the first sync;
afterwards 'update' refreshes the snapshot incrementally.

An existing snapshot is only replaced with --force.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			snapPath, err := config.DefaultSnapshotPath()
			if err != nil {
				return err
			}
			if !force && snapshot.Exists(snapPath) {
				fmt.Printf("Snapshot already exists at: %s\n", snapPath)
				fmt.Println("Use --force to rebuild it from scratch, or run 'update'.")
				return nil
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

			opts, reporter := engineOptions(cfg, src, "Listing courses")
			root, requests, buildErr := tree.NewBuilder(opts).Build(GetContext())
			reporter.Finish()

			// A partial tree from an aborted run is still a valid snapshot;
			// the next update repairs the rest.
			if err := snapshot.Save(snapPath, root); err != nil {
				return fmt.Errorf("failed to save snapshot: %w", err)
			}

			courses, documents := countTree(root)
			GetLogger().Info().
				Int("courses", courses).
				Int("documents", documents).
				Int("requests", requests).
				Str("snapshot", snapPath).
				Msg("build finished")

			return buildErr
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Rebuild even if a snapshot exists")

	return cmd
}
