package archive

import (
	"os"
	"sync"
)

// WorkDir is the local extraction directory of one archive. Root is the
// tree removed on Release; Path is the directory holding the data files and
// may be Root itself or a directory below it.
type WorkDir struct {
	Root string
	Path string

	once sync.Once
	err  error
}

func NewWorkDir(root, path string) *WorkDir {
	if path == "" {
		path = root
	}
	return &WorkDir{Root: root, Path: path}
}

// Release removes the whole tree. Safe to call more than once.
func (w *WorkDir) Release() error {
	w.once.Do(func() {
		w.err = os.RemoveAll(w.Root)
	})
	return w.err
}
