package model

import (
	"fmt"
	"sync"
	"testing"

	"github.com/coursemirror/coursemirror/internal/api"
)

func TestConcurrentAppend(t *testing.T) {
	folder := NewFolder(api.Folder{ID: "root"})

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			folder.AddFolder(NewFolder(api.Folder{ID: fmt.Sprintf("f%d", n)}))
			folder.AddDocument(NewDocument(api.Document{ID: fmt.Sprintf("d%d", n)}, "x"))
		}(i)
	}
	wg.Wait()

	if len(folder.ChildFolders()) != 64 {
		t.Errorf("expected 64 folders, got %d", len(folder.ChildFolders()))
	}
	if len(folder.ChildDocuments()) != 64 {
		t.Errorf("expected 64 documents, got %d", len(folder.ChildDocuments()))
	}
}

func TestRemoveDocument(t *testing.T) {
	folder := NewFolder(api.Folder{ID: "root"})
	folder.AddDocument(NewDocument(api.Document{ID: "d1"}, "a.pdf"))
	folder.AddDocument(NewDocument(api.Document{ID: "d2"}, "b.pdf"))

	if !folder.RemoveDocument("d1") {
		t.Fatal("expected d1 to be removed")
	}
	if folder.RemoveDocument("d1") {
		t.Error("second removal of d1 should report false")
	}

	docs := folder.ChildDocuments()
	if len(docs) != 1 || docs[0].ID != "d2" {
		t.Errorf("unexpected documents after removal: %+v", docs)
	}
}

func TestRemoveCourse(t *testing.T) {
	sem := NewSemester(api.Semester{ID: "s1", Title: "WS"})
	c1 := NewCourse(api.Course{ID: "c1"})
	c2 := NewCourse(api.Course{ID: "c2"})
	sem.AddCourse(c1)
	sem.AddCourse(c2)

	if !sem.RemoveCourse(c1) {
		t.Fatal("expected c1 to be removed")
	}
	courses := sem.AllCourses()
	if len(courses) != 1 || courses[0] != c2 {
		t.Errorf("unexpected courses after removal: %+v", courses)
	}
}

func TestSemesterContains(t *testing.T) {
	sem := NewSemester(api.Semester{Begin: 100, End: 200})
	for _, tt := range []struct {
		now  int64
		want bool
	}{
		{50, false},
		{100, false},
		{150, true},
		{200, false},
		{250, false},
	} {
		if got := sem.Contains(tt.now); got != tt.want {
			t.Errorf("Contains(%d) = %v, want %v", tt.now, got, tt.want)
		}
	}
}
