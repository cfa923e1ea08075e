// Package model holds the persistent tree of mirrored semesters, courses,
// folders and documents.
//
// The tree carries no behavior beyond structural integrity: engines mutate
// it, the snapshot package serializes it. During a build or update many
// worker goroutines append concurrently, each only to the child collection
// of the node it was handed, so every node guards its own collections with
// its own lock instead of one global lock.
package model

import (
	"sync"

	"github.com/coursemirror/coursemirror/internal/api"
)

// SemestersRoot is the root of the persisted tree. It is written and read
// as one unit by the snapshot package.
type SemestersRoot struct {
	mu        sync.Mutex
	Semesters []*Semester `json:"semesters"`
}

// Semester mirrors one organization unit with its validity window.
type Semester struct {
	mu      sync.Mutex
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Begin   int64     `json:"begin"`
	End     int64     `json:"end"`
	Courses []*Course `json:"courses"`
}

// Course mirrors one course. UpdateTime is the incremental-fetch cursor:
// the wall-clock time captured before the last successful changed-documents
// fetch began, 0 if the course was never refreshed incrementally.
type Course struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	UpdateTime int64   `json:"updateTime"`
	Root       *Folder `json:"root"`
}

// Folder is one directory level of a course subtree. Its position in the
// tree is its only parent link; no parent id is stored.
type Folder struct {
	mu        sync.Mutex
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Folders   []*Folder   `json:"folders"`
	Documents []*Document `json:"documents"`
}

// Document is one mirrored file record.
type Document struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	FileName    string `json:"fileName"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"createdAt"`
	ChangedAt   int64  `json:"changedAt"`
	FileSize    int64  `json:"fileSize"`
}

// NewSemestersRoot creates an empty tree.
func NewSemestersRoot() *SemestersRoot {
	return &SemestersRoot{Semesters: make([]*Semester, 0)}
}

// NewSemester creates a semester node from a listing record.
func NewSemester(rec api.Semester) *Semester {
	return &Semester{
		ID:      rec.ID,
		Title:   rec.Title,
		Begin:   rec.Begin,
		End:     rec.End,
		Courses: make([]*Course, 0),
	}
}

// NewCourse creates a course node from a listing record with an empty root
// folder and a zero cursor.
func NewCourse(rec api.Course) *Course {
	return &Course{
		ID:    rec.ID,
		Title: rec.Title,
		Root:  NewFolder(api.Folder{ID: rec.RootFolderID}),
	}
}

// NewFolder creates a folder node from a listing record.
func NewFolder(rec api.Folder) *Folder {
	return &Folder{
		ID:        rec.ID,
		Name:      rec.Name,
		Folders:   make([]*Folder, 0),
		Documents: make([]*Document, 0),
	}
}

// NewDocument creates a document node from a listing record. fileName is the
// collision-resolved local name, which may differ from rec.FileName.
func NewDocument(rec api.Document, fileName string) *Document {
	return &Document{
		ID:          rec.ID,
		Name:        rec.Name,
		FileName:    fileName,
		Description: rec.Description,
		CreatedAt:   rec.CreatedAt,
		ChangedAt:   rec.ChangedAt,
		FileSize:    rec.FileSize,
	}
}

// AddSemester appends a semester. Safe under concurrent workers.
func (r *SemestersRoot) AddSemester(s *Semester) {
	r.mu.Lock()
	r.Semesters = append(r.Semesters, s)
	r.mu.Unlock()
}

// AllSemesters returns a snapshot of the semester list.
func (r *SemestersRoot) AllSemesters() []*Semester {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Semester, len(r.Semesters))
	copy(out, r.Semesters)
	return out
}

// AddCourse appends a course. Safe under concurrent workers.
func (s *Semester) AddCourse(c *Course) {
	s.mu.Lock()
	s.Courses = append(s.Courses, c)
	s.mu.Unlock()
}

// RemoveCourse removes a course by identity. Returns true if it was present.
func (s *Semester) RemoveCourse(c *Course) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, have := range s.Courses {
		if have == c {
			s.Courses = append(s.Courses[:i], s.Courses[i+1:]...)
			return true
		}
	}
	return false
}

// AllCourses returns a snapshot of the course list.
func (s *Semester) AllCourses() []*Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Course, len(s.Courses))
	copy(out, s.Courses)
	return out
}

// Contains reports whether now (unix seconds) falls inside the semester's
// validity window.
func (s *Semester) Contains(now int64) bool {
	return now > s.Begin && now < s.End
}

// AddFolder appends a child folder. Safe under concurrent workers.
func (f *Folder) AddFolder(child *Folder) {
	f.mu.Lock()
	f.Folders = append(f.Folders, child)
	f.mu.Unlock()
}

// AddDocument appends a document. Safe under concurrent workers.
func (f *Folder) AddDocument(d *Document) {
	f.mu.Lock()
	f.Documents = append(f.Documents, d)
	f.mu.Unlock()
}

// RemoveDocument removes the document with the given id if present.
// A refreshed document replaces its stale copy, never duplicates it.
func (f *Folder) RemoveDocument(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, d := range f.Documents {
		if d.ID == id {
			f.Documents = append(f.Documents[:i], f.Documents[i+1:]...)
			return true
		}
	}
	return false
}

// ChildFolders returns a snapshot of the child folder list.
func (f *Folder) ChildFolders() []*Folder {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Folder, len(f.Folders))
	copy(out, f.Folders)
	return out
}

// ChildDocuments returns a snapshot of the document list.
func (f *Folder) ChildDocuments() []*Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Document, len(f.Documents))
	copy(out, f.Documents)
	return out
}
