package configfs

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sys/unix"
)

const (
	dirMode  = 0o755
	attrMode = 0o644
)

// Tree is a handle on the control tree, rooted at the configfs mount point.
//
// Tree performs single filesystem operations and interprets [Plan]s. It works
// the same on a real configfs mount and on a plain directory or in-memory
// filesystem, which do not pre-populate default groups or attribute files.
type Tree struct {
	fs     billy.Filesystem
	Layout Layout
	Logger *log.Logger
}

// NewTree creates a Tree over fs. If logger is nil, log.Default() is used.
func NewTree(fs billy.Filesystem, logger *log.Logger) *Tree {
	if logger == nil {
		logger = log.Default()
	}
	return &Tree{
		fs:     fs,
		Layout: Layout{Root: fs.Root()},
		Logger: logger,
	}
}

// OpenTree creates a Tree over the host directory root.
// An empty root selects [DefaultRoot].
func OpenTree(root string, logger *log.Logger) *Tree {
	if root == "" {
		root = DefaultRoot
	}
	return NewTree(osfs.New(root), logger)
}

// Filesystem returns the underlying filesystem.
func (t *Tree) Filesystem() billy.Filesystem {
	return t.fs
}

// Exists reports whether p exists, without following links.
func (t *Tree) Exists(p string) (bool, error) {
	_, err := t.fs.Lstat(p)
	if err == nil {
		return true, nil
	}
	if stderrors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Mkdir creates the directory p. It fails if p already exists.
func (t *Tree) Mkdir(p string) error {
	if _, err := t.fs.Lstat(p); err == nil {
		return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrExist}
	} else if !stderrors.Is(err, fs.ErrNotExist) {
		return err
	}
	return t.fs.MkdirAll(p, dirMode)
}

// EnsureDir creates the directory p unless it exists, and reports whether
// it created it.
func (t *Tree) EnsureDir(p string) (bool, error) {
	fi, err := t.fs.Lstat(p)
	if err == nil {
		if !fi.IsDir() {
			return false, &fs.PathError{Op: "mkdir", Path: p, Err: unix.ENOTDIR}
		}
		return false, nil
	}
	if !stderrors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	return true, t.fs.MkdirAll(p, dirMode)
}

// WriteAttr writes value to the attribute file p, followed by a newline.
// Write and close errors are both reported: configfs rejects bad values
// at write time.
func (t *Tree) WriteAttr(p, value string) (err error) {
	f, err := t.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, attrMode)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if _, err = f.Write([]byte(value + "\n")); err != nil {
		return &fs.PathError{Op: "write", Path: p, Err: err}
	}
	return nil
}

// ReadAttr returns the content of the attribute file p without surrounding
// whitespace.
func (t *Tree) ReadAttr(p string) (string, error) {
	data, err := util.ReadFile(t.fs, p)
	if err != nil {
		return "", relErr("read", p, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Symlink creates a link at p pointing to target.
func (t *Tree) Symlink(target, p string) error {
	return t.fs.Symlink(target, p)
}

// Readlink returns the target of the link p.
func (t *Tree) Readlink(p string) (string, error) {
	target, err := t.fs.Readlink(p)
	if err != nil {
		return "", relErr("readlink", p, err)
	}
	return target, nil
}

// Remove removes a file, link or empty directory.
func (t *Tree) Remove(p string) error {
	return t.fs.Remove(p)
}

// ReadDir lists a directory sorted by name, without following links.
func (t *Tree) ReadDir(p string) ([]fs.FileInfo, error) {
	entries, err := t.fs.ReadDir(p)
	if err != nil {
		return nil, relErr("readdir", p, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// Walk returns every path under p, including p, children first.
// Missing paths yield an empty list.
func (t *Tree) Walk(p string) []string {
	fi, err := t.fs.Lstat(p)
	if err != nil {
		return nil
	}
	var out []string
	if fi.IsDir() {
		entries, _ := t.ReadDir(p)
		for _, e := range entries {
			out = append(out, t.Walk(path.Join(p, e.Name()))...)
		}
	}
	return append(out, p)
}

// relErr reports err against the tree-relative path p. Host paths carried
// by the underlying filesystem are dropped.
func relErr(op, p string, err error) error {
	var pe *fs.PathError
	if stderrors.As(err, &pe) {
		err = pe.Err
	}
	return &fs.PathError{Op: op, Path: p, Err: err}
}

// isLink reports whether fi describes a symbolic link.
func isLink(fi fs.FileInfo) bool {
	return fi.Mode()&fs.ModeSymlink != 0
}

// tolerated reports whether a failed removal of a kernel-owned entry can be
// ignored: configfs refuses to unlink attribute files and default groups,
// and the entry may already be gone.
func tolerated(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist) || stderrors.Is(err, fs.ErrPermission)
}

// describe adds a short explanation for the errno values the control tree
// uses to reject mutations.
func describe(err error) string {
	switch {
	case stderrors.Is(err, unix.EBUSY):
		return "device or entity is in use"
	case stderrors.Is(err, unix.ENOTEMPTY):
		return "directory still holds entries or is linked from elsewhere"
	case stderrors.Is(err, fs.ErrExist):
		return "entry already exists"
	case stderrors.Is(err, fs.ErrPermission):
		return "permission denied"
	case stderrors.Is(err, unix.EINVAL):
		return "value rejected by the driver"
	case stderrors.Is(err, fs.ErrNotExist):
		return "no such entry"
	}
	return ""
}

// stepError formats a step failure for logs and error details.
func stepError(op, p string, err error) string {
	if hint := describe(err); hint != "" {
		return fmt.Sprintf("%s %s: %v (%s)", op, p, err, hint)
	}
	return fmt.Sprintf("%s %s: %v", op, p, err)
}
