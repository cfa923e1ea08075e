package tree

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/coursemirror/coursemirror/internal/api"
	"github.com/coursemirror/coursemirror/internal/model"
)

// stubSource is an in-memory Source shared by the engine tests. Listing data
// is keyed by the id the engine passes in; errors are injected per call kind
// and id.
type stubSource struct {
	mu        sync.Mutex
	semesters []api.Semester
	courses   map[string][]api.Course       // by semester id
	contents  map[string]api.FolderContents // by folder id
	changed   map[string][]api.Document     // by course id
	files     map[string]string             // document id -> content
	fail      map[string]error              // "kind/id" -> injected error
	calls     map[string]int                // by kind
}

func newStubSource() *stubSource {
	return &stubSource{
		courses:  make(map[string][]api.Course),
		contents: make(map[string]api.FolderContents),
		changed:  make(map[string][]api.Document),
		files:    make(map[string]string),
		fail:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (s *stubSource) record(kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[kind]++
	if err, ok := s.fail[kind+"/"+id]; ok {
		return err
	}
	return nil
}

func (s *stubSource) count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}

func (s *stubSource) Semesters(ctx context.Context) ([]api.Semester, error) {
	if err := s.record("semesters", ""); err != nil {
		return nil, err
	}
	return s.semesters, nil
}

func (s *stubSource) Courses(ctx context.Context, semesterID string) ([]api.Course, error) {
	if err := s.record("courses", semesterID); err != nil {
		return nil, err
	}
	return s.courses[semesterID], nil
}

func (s *stubSource) FolderContents(ctx context.Context, courseID, folderID string) (api.FolderContents, error) {
	if err := s.record("folders", folderID); err != nil {
		return api.FolderContents{}, err
	}
	return s.contents[folderID], nil
}

func (s *stubSource) ChangedDocuments(ctx context.Context, courseID string, since int64) ([]api.Document, error) {
	if err := s.record("changed", courseID); err != nil {
		return nil, err
	}
	return s.changed[courseID], nil
}

func (s *stubSource) Download(ctx context.Context, documentID, destPath string) error {
	if err := s.record("download", documentID); err != nil {
		return err
	}
	s.mu.Lock()
	content := s.files[documentID]
	s.mu.Unlock()
	return os.WriteFile(destPath, []byte(content), 0o644)
}

func findCourse(root *model.SemestersRoot, id string) *model.Course {
	for _, sem := range root.AllSemesters() {
		for _, c := range sem.AllCourses() {
			if c.ID == id {
				return c
			}
		}
	}
	return nil
}

func TestBuildListsWholeHierarchy(t *testing.T) {
	src := newStubSource()
	src.semesters = []api.Semester{{ID: "s1", Title: "SS 2026"}}
	src.courses["s1"] = []api.Course{
		{ID: "c1", Title: "Algorithms", RootFolderID: "r1"},
		{ID: "c2", Title: "Databases", RootFolderID: "r2"},
	}
	src.contents["r1"] = api.FolderContents{
		Folders: []api.Folder{{ID: "f1", Name: "Slides"}},
		Documents: []api.Document{
			{ID: "d1", FolderID: "r1", Name: "Notes", FileName: "notes.pdf"},
			{ID: "d2", FolderID: "r1", Name: "Notes copy", FileName: "Notes.pdf"},
		},
	}
	src.contents["f1"] = api.FolderContents{
		Documents: []api.Document{{ID: "d3", FolderID: "f1", Name: "Week 1", FileName: "week1.pdf"}},
	}

	root, requests, err := NewBuilder(Options{Source: src, Workers: 3}).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// semesters + courses + two course roots + one subfolder
	if requests != 5 {
		t.Errorf("requests = %d, want 5", requests)
	}

	c1 := findCourse(root, "c1")
	if c1 == nil {
		t.Fatal("course c1 missing from tree")
	}
	docs := c1.Root.ChildDocuments()
	if len(docs) != 2 {
		t.Fatalf("root documents = %d, want 2", len(docs))
	}
	names := map[string]bool{}
	for _, d := range docs {
		names[d.FileName] = true
	}
	if !names["notes.pdf"] || !names["Notes_1.pdf"] {
		t.Errorf("colliding file names resolved to %v, want notes.pdf and Notes_1.pdf", names)
	}

	folders := c1.Root.ChildFolders()
	if len(folders) != 1 || len(folders[0].ChildDocuments()) != 1 {
		t.Errorf("subfolder not listed: %+v", folders)
	}
}

func TestBuildDefaultFolderSharesParentNamespace(t *testing.T) {
	src := newStubSource()
	src.semesters = []api.Semester{{ID: "s1", Title: "SS 2026"}}
	src.courses["s1"] = []api.Course{{ID: "c1", Title: "Algorithms", RootFolderID: "r1"}}
	src.contents["r1"] = api.FolderContents{
		Folders: []api.Folder{{ID: "g", Name: DefaultFolderName}},
		Documents: []api.Document{
			{ID: "d1", FolderID: "r1", Name: "Notes", FileName: "notes.pdf"},
		},
	}
	src.contents["g"] = api.FolderContents{
		Documents: []api.Document{
			{ID: "d2", FolderID: "g", Name: "General notes", FileName: "notes.pdf"},
		},
	}

	root, _, err := NewBuilder(Options{Source: src, Workers: 2}).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	course := findCourse(root, "c1")
	if course == nil {
		t.Fatal("course c1 missing from tree")
	}
	rootDocs := course.Root.ChildDocuments()
	if len(rootDocs) != 1 || rootDocs[0].FileName != "notes.pdf" {
		t.Fatalf("root document = %+v, want notes.pdf", rootDocs)
	}
	folders := course.Root.ChildFolders()
	if len(folders) != 1 {
		t.Fatalf("default folder missing: %+v", folders)
	}
	defDocs := folders[0].ChildDocuments()
	if len(defDocs) != 1 {
		t.Fatalf("default folder documents = %+v", defDocs)
	}
	// Both land in the course directory, so the second claim must be
	// disambiguated or one file overwrites the other at sync.
	if defDocs[0].FileName != "notes_1.pdf" {
		t.Errorf("default-folder FileName = %q, want notes_1.pdf", defDocs[0].FileName)
	}
}

func TestBuildMergesSameNamedSiblingFolders(t *testing.T) {
	src := newStubSource()
	src.semesters = []api.Semester{{ID: "s1", Title: "SS 2026"}}
	src.courses["s1"] = []api.Course{{ID: "c1", Title: "Algorithms", RootFolderID: "r1"}}
	src.contents["r1"] = api.FolderContents{
		Folders: []api.Folder{
			{ID: "fa", Name: "Slides"},
			{ID: "fb", Name: "slides"},
		},
	}
	src.contents["fa"] = api.FolderContents{
		Documents: []api.Document{{ID: "d1", FolderID: "fa", FileName: "week1.pdf"}},
	}
	src.contents["fb"] = api.FolderContents{
		Documents: []api.Document{{ID: "d2", FolderID: "fb", FileName: "Week1.pdf"}},
	}

	root, _, err := NewBuilder(Options{Source: src, Workers: 2}).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	names := map[string]bool{}
	for _, f := range findCourse(root, "c1").Root.ChildFolders() {
		for _, d := range f.ChildDocuments() {
			names[d.FileName] = true
		}
	}
	if !names["week1.pdf"] || !names["Week1_1.pdf"] {
		t.Errorf("sibling documents resolved to %v, want week1.pdf and Week1_1.pdf", names)
	}
}

func TestBuildSkipsForbiddenBranch(t *testing.T) {
	src := newStubSource()
	src.semesters = []api.Semester{{ID: "s1", Title: "SS 2026"}}
	src.courses["s1"] = []api.Course{
		{ID: "c1", Title: "Open", RootFolderID: "r1"},
		{ID: "c2", Title: "Closed", RootFolderID: "r2"},
	}
	src.contents["r1"] = api.FolderContents{
		Documents: []api.Document{{ID: "d1", FolderID: "r1", FileName: "a.pdf"}},
	}
	src.fail["folders/r2"] = api.ErrForbidden

	root, _, err := NewBuilder(Options{Source: src, Workers: 2}).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if c := findCourse(root, "c1"); c == nil || len(c.Root.ChildDocuments()) != 1 {
		t.Error("reachable branch was not fully listed")
	}
	if c := findCourse(root, "c2"); c == nil || len(c.Root.ChildDocuments()) != 0 {
		t.Error("forbidden branch should stay empty but present")
	}
}

func TestBuildStopsOnUnauthorized(t *testing.T) {
	src := newStubSource()
	src.semesters = []api.Semester{
		{ID: "s1", Title: "SS 2026"},
		{ID: "s2", Title: "WS 2026"},
	}
	src.courses["s1"] = []api.Course{{ID: "c1", Title: "Algorithms", RootFolderID: "r1"}}
	src.courses["s2"] = []api.Course{{ID: "c2", Title: "Databases", RootFolderID: "r2"}}
	src.fail["courses/s1"] = api.ErrUnauthorized

	// One worker makes the schedule deterministic: the failing unit runs
	// first and everything still queued must be dropped, not executed.
	_, _, err := NewBuilder(Options{Source: src, Workers: 1}).Build(context.Background())
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("Build err = %v, want ErrUnauthorized", err)
	}
	if got := src.count("courses"); got != 1 {
		t.Errorf("course listings after stop = %d, want 1", got)
	}
	if got := src.count("folders"); got != 0 {
		t.Errorf("folder listings after stop = %d, want 0", got)
	}
}

func TestBuildStopsOnConnectionFailure(t *testing.T) {
	src := newStubSource()
	src.fail["semesters/"] = api.ErrConnection

	root, _, err := NewBuilder(Options{Source: src}).Build(context.Background())
	if !errors.Is(err, api.ErrConnection) {
		t.Fatalf("Build err = %v, want ErrConnection", err)
	}
	if len(root.AllSemesters()) != 0 {
		t.Error("tree should be empty after first-call failure")
	}
}
