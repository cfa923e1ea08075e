package tree

import (
	"fmt"
	"path"
	"strings"

	"github.com/coursemirror/coursemirror/internal/model"
	"github.com/coursemirror/coursemirror/internal/util/sanitize"
)

// DefaultFolderName is the synthetic remote container whose contents appear
// merged into its parent directory in the local mirror.
const DefaultFolderName = "Allgemeiner Dateiordner"

// isDefaultFolder reports whether a folder is the synthetic default
// container.
func isDefaultFolder(f *model.Folder) bool {
	return strings.TrimSpace(f.Name) == DefaultFolderName
}

// namespace is a case-insensitive set of sanitized names claimed inside one
// filesystem directory. It is owned by exactly one goroutine at a time.
type namespace map[string]struct{}

func newNamespace() namespace {
	return make(namespace)
}

// add claims a name.
func (ns namespace) add(name string) {
	ns[sanitize.Fold(name)] = struct{}{}
}

// taken reports whether a name is already claimed.
func (ns namespace) taken(name string) bool {
	_, ok := ns[sanitize.Fold(name)]
	return ok
}

// resolve claims a unique variant of candidate. If the sanitized candidate
// collides, a numeric disambiguator is inserted before the extension
// (report.pdf, report_1.pdf, report_2.pdf, ...). The scheme is
// deterministic for a given claimed set and always terminates because the
// set is finite.
func (ns namespace) resolve(candidate string) string {
	name := sanitize.FileName(candidate)
	if !ns.taken(name) {
		ns.add(name)
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		variant := fmt.Sprintf("%s_%d%s", base, i, ext)
		if !ns.taken(variant) {
			ns.add(variant)
			return variant
		}
	}
}

// folderNamespace builds the filesystem-equivalent namespace of folder,
// given its parent. Remote containers that land in the same local directory
// are folded together:
//
//   - the default folder shares its parent's directory, so the parent's own
//     children count as taken names;
//   - siblings whose sanitized names collide case-insensitively with folder's
//     merge into one directory, so their children count too (the loop over
//     siblings includes folder itself).
//
// parent is nil for a course root folder; then only the root's own children
// are in scope.
func folderNamespace(parent *model.Folder, folder *model.Folder) namespace {
	ns := newNamespace()

	if parent == nil {
		for _, child := range folder.ChildFolders() {
			ns.add(child.Name)
		}
		for _, doc := range folder.ChildDocuments() {
			ns.add(doc.FileName)
		}
		return ns
	}

	if isDefaultFolder(folder) {
		for _, sibling := range parent.ChildFolders() {
			ns.add(sibling.Name)
		}
		for _, doc := range parent.ChildDocuments() {
			ns.add(doc.FileName)
		}
	}

	folded := sanitize.Fold(folder.Name)
	for _, sibling := range parent.ChildFolders() {
		if sanitize.Fold(sibling.Name) != folded {
			continue
		}
		for _, child := range sibling.ChildFolders() {
			ns.add(child.Name)
		}
		for _, doc := range sibling.ChildDocuments() {
			ns.add(doc.FileName)
		}
	}

	return ns
}
