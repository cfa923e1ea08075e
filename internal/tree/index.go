package tree

import "github.com/coursemirror/coursemirror/internal/model"

// courseIndex gives O(1) access into one course's folder subtree. It is
// built by a single unit before that course's documents are patched and is
// read-only afterwards.
type courseIndex struct {
	// byID maps folder id to folder node, including the root.
	byID map[string]*model.Folder

	// parentOf maps a folder id to its parent node. The course root has no
	// entry; its parent is the course directory itself.
	parentOf map[string]*model.Folder
}

// buildCourseIndex walks the whole subtree once. Folder ids are unique
// tree-wide, so later insertions never overwrite earlier ones.
func buildCourseIndex(root *model.Folder) *courseIndex {
	idx := &courseIndex{
		byID:     make(map[string]*model.Folder),
		parentOf: make(map[string]*model.Folder),
	}
	idx.walk(root)
	return idx
}

func (idx *courseIndex) walk(folder *model.Folder) {
	for _, child := range folder.ChildFolders() {
		idx.walk(child)
		idx.parentOf[child.ID] = folder
	}
	idx.byID[folder.ID] = folder
}
