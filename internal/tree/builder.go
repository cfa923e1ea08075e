package tree

import (
	"context"

	"github.com/coursemirror/coursemirror/internal/model"
	"github.com/coursemirror/coursemirror/internal/util/sanitize"
)

// Builder constructs a fresh tree from nothing by recursively fanning
// listing calls out over the worker pool. Sibling order in the result is
// whatever order the pool completes units in.
type Builder struct {
	opts Options
}

// NewBuilder creates a build engine.
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Build lists the whole remote hierarchy into a new tree. It returns the
// number of remote calls issued and, if the run was cut short, the fatal
// error; the partial tree is still valid and worth persisting.
func (b *Builder) Build(ctx context.Context) (*model.SemestersRoot, int, error) {
	root := model.NewSemestersRoot()

	// Two parties: the caller and the semesters unit.
	r := newRun(ctx, b.opts, 2)
	if err := r.pool.Submit(func() {
		defer r.barrier.Arrive()
		b.listSemesters(r, root)
	}); err != nil {
		r.barrier.Arrive()
	}
	r.wait()

	return root, int(r.requests.Load()), r.err()
}

func (b *Builder) listSemesters(r *run, root *model.SemestersRoot) {
	r.addRequest()
	semesters, err := r.source.Semesters(r.ctx)
	if err != nil {
		r.handleListError("semesters", err)
		return
	}

	for _, rec := range semesters {
		node := model.NewSemester(rec)
		root.AddSemester(node)
		r.reporter.SetCurrent(node.Title)

		if r.stopping() {
			return
		}
		r.spawn(func() { b.listCourses(r, node) })
	}
}

func (b *Builder) listCourses(r *run, semester *model.Semester) {
	r.addRequest()
	courses, err := r.source.Courses(r.ctx, semester.ID)
	if err != nil {
		r.handleListError("courses of "+semester.Title, err)
		return
	}

	for _, rec := range courses {
		node := model.NewCourse(rec)
		semester.AddCourse(node)
		r.reporter.SetCurrent(node.Title)

		if r.stopping() {
			return
		}
		courseID := node.ID
		folder := node.Root
		r.spawn(func() { listFolder(r, courseID, folder, nil) })
	}
}

// listFolder lists one folder's direct contents into the node and recurses
// over child folders. ns is the claimed-name set of the local directory this
// folder maps to; nil means the folder owns a fresh directory. Children that
// share this folder's directory (the default folder, siblings whose sanitized
// names coincide) are listed inline so the namespace stays owned by one
// goroutine at a time; everything else fans out over the pool.
// The Updater reuses this unit to rebuild a stale course subtree.
func listFolder(r *run, courseID string, folder *model.Folder, ns namespace) {
	r.addRequest()
	contents, err := r.source.FolderContents(r.ctx, courseID, folder.ID)
	if err != nil {
		r.handleListError("folder "+folder.Name, err)
		return
	}
	if ns == nil {
		ns = newNamespace()
	}

	children := make([]*model.Folder, 0, len(contents.Folders))
	folded := make(map[string]int)
	for _, rec := range contents.Folders {
		child := model.NewFolder(rec)
		folder.AddFolder(child)
		children = append(children, child)
		if !isDefaultFolder(child) {
			ns.add(rec.Name)
			folded[sanitize.Fold(rec.Name)]++
		}
	}

	// Documents claim their names before any merged child lists, so a file
	// in the default folder cannot shadow one in this directory.
	for _, rec := range contents.Documents {
		name := ns.resolve(rec.FileName)
		folder.AddDocument(model.NewDocument(rec, name))
		r.reporter.SetCurrent(rec.Name)
	}

	shared := make(map[string]namespace)
	for _, child := range children {
		if r.stopping() {
			return
		}
		switch {
		case isDefaultFolder(child):
			listFolder(r, courseID, child, ns)
		case folded[sanitize.Fold(child.Name)] > 1:
			key := sanitize.Fold(child.Name)
			if shared[key] == nil {
				shared[key] = newNamespace()
			}
			listFolder(r, courseID, child, shared[key])
		default:
			child := child
			r.spawn(func() { listFolder(r, courseID, child, nil) })
		}
	}
}
