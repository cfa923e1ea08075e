package api

// Semester is one listing record from GET /semesters.
// Begin and End bound the semester's validity window (unix seconds).
type Semester struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Begin int64  `json:"begin"`
	End   int64  `json:"end"`
}

// Course is one listing record from GET /semesters/{id}/courses.
type Course struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	RootFolderID string `json:"rootFolderId"`
}

// Folder is one listing record from a folder-contents call.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Document is one listing record from a folder-contents or changed-documents
// call. ChangedAt drives both the incremental cursor and the local
// file-freshness heuristic.
type Document struct {
	ID          string `json:"id"`
	FolderID    string `json:"folderId"`
	Name        string `json:"name"`
	FileName    string `json:"fileName"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"createdAt"`
	ChangedAt   int64  `json:"changedAt"`
	FileSize    int64  `json:"fileSize"`
}

// FolderContents is the combined result of listing one folder.
type FolderContents struct {
	Folders   []Folder   `json:"folders"`
	Documents []Document `json:"documents"`
}
