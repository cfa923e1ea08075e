package cli

import (
	"github.com/spf13/cobra"

	"github.com/coursemirror/coursemirror/internal/progress"
	"github.com/coursemirror/coursemirror/internal/tree"
)

// newSyncCmd creates the 'sync' command.
func newSyncCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download new and changed files into the local directory tree",
		Long: `Walks the snapshot, creates the directory structure under sync.root_dir
and downloads every document whose local file is missing or out of date.
With sync.preserve_modified (the default), a superseded local file is
kept next to its replacement as name_1, name_2 and so on.

Run 'update' first to bring the snapshot up to date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			root, _, err := loadSnapshot()
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

			opts, reporter := engineOptions(cfg, src, "Downloading files")
			syncer := tree.NewSyncer(opts, cfg.Sync.RootDir)
			syncer.PreserveModified = cfg.Sync.PreserveModified

			var ui *progress.DownloadUI
			if progress.IsTerminal() {
				ui = progress.NewDownloadUI()
				src.Progress = ui.Callback()
				syncer.OnDownloadError = func(fileName string, err error) {
					ui.Abandon(fileName)
				}
			}

			downloads, syncErr := syncer.Sync(GetContext(), root, all)
			if ui != nil {
				ui.Wait()
			}
			reporter.Finish()

			GetLogger().Info().
				Int("downloads", downloads).
				Str("root", cfg.Sync.RootDir).
				Msg("sync finished")

			return syncErr
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Materialize past semesters too")

	return cmd
}
