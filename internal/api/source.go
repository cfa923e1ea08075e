package api

import "context"

// Source is the narrow contract the sync engines hold on the remote server.
// Every method fails with one of the taxonomy sentinels (possibly wrapped).
// Retry policy belongs to the transport behind the concrete client, never to
// the engines.
type Source interface {
	// Semesters lists all organization units visible to the user.
	Semesters(ctx context.Context) ([]Semester, error)

	// Courses lists the courses of one semester.
	Courses(ctx context.Context, semesterID string) ([]Course, error)

	// FolderContents lists the direct child folders and documents of one
	// folder. An empty folderID addresses the course root folder.
	FolderContents(ctx context.Context, courseID, folderID string) (FolderContents, error)

	// ChangedDocuments lists all documents of a course whose change time is
	// strictly newer than since (unix seconds).
	ChangedDocuments(ctx context.Context, courseID string, since int64) ([]Document, error)

	// Download fetches one document into destPath. The file appears at
	// destPath only after a complete transfer.
	Download(ctx context.Context, documentID, destPath string) error
}
