package tree

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/coursemirror/coursemirror/internal/api"
	"github.com/coursemirror/coursemirror/internal/diskspace"
	"github.com/coursemirror/coursemirror/internal/model"
	"github.com/coursemirror/coursemirror/internal/util/sanitize"
)

// spaceMargin pads the free-space requirement for pending downloads.
const spaceMargin = 1.05

// Syncer reconciles a tree against the real local directory structure:
// missing directories are created, new and changed files are downloaded
// concurrently, superseded files are optionally kept as versioned backups.
// The tree itself is read-only during a sync.
type Syncer struct {
	opts Options

	// RootDir is the local mirror root. It must already exist.
	RootDir string

	// PreserveModified renames a superseded local file to the first unused
	// backup name (name_1, name_2, ...) before the replacement lands.
	PreserveModified bool

	// OnDownloadError, when set, is notified about per-file failures, e.g.
	// to abort that file's progress bar.
	OnDownloadError func(fileName string, err error)
}

// NewSyncer creates a materialization engine for the given local root.
func NewSyncer(opts Options, rootDir string) *Syncer {
	return &Syncer{opts: opts, RootDir: rootDir}
}

// downloadTask is one pending file transfer decided during the walk.
type downloadTask struct {
	doc      *model.Document
	path     string
	modified bool
}

// Sync walks the tree, creates the directory structure, and downloads every
// document whose local file is absent or out of date. It returns the number
// of downloads issued. Directory failures abort the whole run
// (ErrStructural); individual download failures do not.
func (s *Syncer) Sync(ctx context.Context, root *model.SemestersRoot, allSemesters bool) (int, error) {
	if info, err := os.Stat(s.RootDir); err != nil || !info.IsDir() {
		return 0, fmt.Errorf("sync root %s does not exist: %w", s.RootDir, ErrStructural)
	}

	now := time.Now().Unix()

	// Phase one: single-threaded walk deciding what to transfer. Only
	// local stat calls happen here, so there is nothing to parallelize.
	var tasks []downloadTask
	for _, semester := range root.AllSemesters() {
		if !allSemesters && !semester.Contains(now) {
			continue
		}

		semDir := filepath.Join(s.RootDir, sanitize.FileName(semester.Title))
		if err := mkdirIfAbsent(semDir); err != nil {
			return 0, err
		}

		for _, course := range semester.AllCourses() {
			courseDir := filepath.Join(semDir, sanitize.FileName(course.Title))
			if err := mkdirIfAbsent(courseDir); err != nil {
				return 0, err
			}
			if err := s.walkFolder(course.Root, courseDir, &tasks); err != nil {
				return 0, err
			}
		}
	}

	var pendingBytes int64
	for _, t := range tasks {
		pendingBytes += t.doc.FileSize
	}
	if err := diskspace.CheckAvailableSpace(s.RootDir, pendingBytes, spaceMargin); err != nil {
		if diskspace.IsInsufficientSpaceError(err) {
			s.opts.logger().Error().Err(err).Int("pending", len(tasks)).Msg("not enough free space")
		}
		return 0, fmt.Errorf("%v: %w", err, ErrStructural)
	}

	// Phase two: fan the downloads out over the pool.
	r := newRun(ctx, s.opts, 1)
	for _, t := range tasks {
		if t.modified && s.PreserveModified {
			if err := renameToBackup(t.path); err != nil {
				r.log.Warn().Err(err).Str("file", t.path).Msg("could not back up old version")
			}
		}
		task := t
		r.spawn(func() { s.download(r, task) })
	}
	r.wait()

	return int(r.requests.Load()), r.err()
}

// walkFolder recurses over one folder, mapping merged remote containers
// (the default folder, and siblings whose sanitized names coincide) onto
// the same local directory via mkdir-if-absent.
func (s *Syncer) walkFolder(folder *model.Folder, dir string, tasks *[]downloadTask) error {
	for _, child := range folder.ChildFolders() {
		childDir := dir
		if name := sanitize.FileName(child.Name); !isDefaultFolder(child) && name != "" {
			childDir = filepath.Join(dir, name)
			if err := mkdirIfAbsent(childDir); err != nil {
				return err
			}
		}
		if err := s.walkFolder(child, childDir, tasks); err != nil {
			return err
		}
	}

	for _, doc := range folder.ChildDocuments() {
		path := filepath.Join(dir, sanitize.FileName(doc.FileName))

		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			*tasks = append(*tasks, downloadTask{doc: doc, path: path})
			s.opts.logger().Info().Str("file", doc.Name).Msg("new")

		case err != nil:
			return fmt.Errorf("cannot stat %s: %v: %w", path, err, ErrStructural)

		case info.Size() != doc.FileSize || info.ModTime().Unix() < doc.ChangedAt:
			// Size mismatch or an older local copy. A local edit that keeps
			// the size and carries a newer mtime slips through; that is the
			// documented behavior.
			*tasks = append(*tasks, downloadTask{doc: doc, path: path, modified: true})
			s.opts.logger().Info().Str("file", doc.Name).Msg("modified")
		}
	}
	return nil
}

// download is one transfer unit. Failures are isolated per file; only a
// rejected credential ends the run.
func (s *Syncer) download(r *run, task downloadTask) {
	r.addRequest()
	r.reporter.SetCurrent(task.doc.Name)

	if err := r.source.Download(r.ctx, task.doc.ID, task.path); err != nil {
		if s.OnDownloadError != nil {
			s.OnDownloadError(filepath.Base(task.path), err)
		}
		if errors.Is(err, api.ErrUnauthorized) {
			r.log.Error().Err(err).Str("file", task.doc.Name).Msg("aborting sync")
			r.requestStop(err)
			return
		}
		r.log.Warn().Err(err).Str("file", task.doc.Name).Msg("download failed")
		return
	}

	r.log.Info().Str("file", task.doc.Name).Msg("downloaded")
}

// mkdirIfAbsent creates dir unless it already exists. Any other failure is
// structural: the mirror cannot take shape without its directories.
func mkdirIfAbsent(dir string) error {
	err := os.Mkdir(dir, 0o755)
	if err == nil || errors.Is(err, fs.ErrExist) {
		return nil
	}
	return fmt.Errorf("could not create directory %s: %v: %w", dir, err, ErrStructural)
}

// renameToBackup moves path to the first unused versioned name
// (path_1, path_2, ...).
func renameToBackup(path string) error {
	for i := 1; ; i++ {
		backup := fmt.Sprintf("%s_%d", path, i)
		if _, err := os.Stat(backup); errors.Is(err, fs.ErrNotExist) {
			return os.Rename(path, backup)
		}
	}
}
