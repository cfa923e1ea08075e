package tree

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coursemirror/coursemirror/internal/api"
	"github.com/coursemirror/coursemirror/internal/model"
)

// Updater refreshes an existing tree incrementally, one unit per eligible
// course. Each unit fetches only documents changed after the course's
// cursor and patches them into the folder subtree in place.
type Updater struct {
	opts Options

	// RefreshThreshold skips courses whose cursor is younger than this.
	// Zero refreshes every eligible course.
	RefreshThreshold time.Duration

	// OnUnauthorized is invoked once when the server rejects the stored
	// credential, before the run stops. Callers clear the token here.
	OnUnauthorized func()

	unauthorizedOnce sync.Once
}

// NewUpdater creates an update engine.
func NewUpdater(opts Options) *Updater {
	return &Updater{opts: opts}
}

// Update refreshes every course whose semester validity window contains now
// (every course, if fullRefresh) and whose cursor is older than the refresh
// threshold. It reports the number of remote calls, whether the tree was
// modified, and the fatal error if the run was cut short. The tree is valid
// either way and should be persisted.
func (u *Updater) Update(ctx context.Context, root *model.SemestersRoot, fullRefresh bool) (int, bool, error) {
	r := newRun(ctx, u.opts, 1)

	now := time.Now().Unix()
	cutoff := now - int64(u.RefreshThreshold/time.Second)

	for _, semester := range root.AllSemesters() {
		if !fullRefresh && !semester.Contains(now) {
			continue
		}
		for _, course := range semester.AllCourses() {
			if course.UpdateTime >= cutoff {
				continue
			}
			if r.stopping() {
				break
			}
			sem, crs := semester, course
			r.spawn(func() { u.updateCourse(r, sem, crs, now) })
		}
	}
	r.wait()

	return int(r.requests.Load()), r.dirty.Load(), r.err()
}

// updateCourse is one refresh unit. now was captured before the fetch, so
// documents changed mid-fetch surface again on the next pass; replacing by
// id keeps that at-least-once behavior idempotent.
func (u *Updater) updateCourse(r *run, semester *model.Semester, course *model.Course, now int64) {
	r.addRequest()
	r.reporter.SetCurrent(course.Title)

	docs, err := r.source.ChangedDocuments(r.ctx, course.ID, course.UpdateTime)
	if err != nil {
		u.handleCourseError(r, semester, course, err)
		return
	}

	if len(docs) > 0 {
		idx := buildCourseIndex(course.Root)

		for _, rec := range docs {
			target, ok := idx.byID[rec.FolderID]
			if !ok {
				// The document points at a folder this tree has never seen:
				// the local subtree is stale beyond incremental repair.
				// Re-list the whole course subtree instead of patching an
				// inconsistent picture.
				u.rebuildCourse(r, course)
				break
			}

			// An update and a creation are indistinguishable remotely, so
			// replace rather than append.
			target.RemoveDocument(rec.ID)

			ns := folderNamespace(idx.parentOf[target.ID], target)
			name := ns.resolve(rec.FileName)
			target.AddDocument(model.NewDocument(rec, name))

			r.log.Info().Str("course", course.Title).Str("document", rec.Name).Msg("document refreshed")
		}
	}

	// Stamp with the time captured before the fetch; the cursor only moves
	// forward.
	course.UpdateTime = now
	r.dirty.Store(true)
}

// rebuildCourse swaps in an empty root folder with the same id and re-lists
// it with the build unit.
func (u *Updater) rebuildCourse(r *run, course *model.Course) {
	r.log.Warn().Str("course", course.Title).Msg("stale local index, re-listing course folders")

	course.Root = model.NewFolder(api.Folder{ID: course.Root.ID})
	if r.stopping() {
		return
	}
	courseID := course.ID
	folder := course.Root
	r.spawn(func() { listFolder(r, courseID, folder, nil) })
}

func (u *Updater) handleCourseError(r *run, semester *model.Semester, course *model.Course, err error) {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		u.unauthorizedOnce.Do(func() {
			if u.OnUnauthorized != nil {
				u.OnUnauthorized()
			}
		})
		r.requestStop(err)

	case errors.Is(err, api.ErrConnection):
		r.requestStop(err)

	case errors.Is(err, api.ErrForbidden), errors.Is(err, api.ErrNotFound):
		// Permission loss or deletion is not transient: drop the course and
		// keep going for the others.
		semester.RemoveCourse(course)
		r.dirty.Store(true)
		r.log.Warn().Err(err).Str("course", course.Title).Msg("removed course")

	default:
		r.log.Warn().Err(err).Str("course", course.Title).Msg("refresh failed")
	}
}
