package configfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeMkdir(t *testing.T) {
	tree, _ := newTestTree(t)

	require.NoError(t, tree.Mkdir("vkms/dev1"))
	err := tree.Mkdir("vkms/dev1")
	assert.True(t, errors.Is(err, fs.ErrExist))

	created, err := tree.EnsureDir("vkms/dev1")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = tree.EnsureDir("vkms/dev1/planes")
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, tree.WriteAttr("vkms/dev1/enabled", "0"))
	_, err = tree.EnsureDir("vkms/dev1/enabled")
	assert.Error(t, err)
}

func TestTreeAttributes(t *testing.T) {
	tree, _ := newTestTree(t)

	require.NoError(t, tree.WriteAttr("vkms/dev1/enabled", "1"))
	require.NoError(t, tree.WriteAttr("vkms/dev1/enabled", "0"))
	got, err := tree.ReadAttr("vkms/dev1/enabled")
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	_, err = tree.ReadAttr("vkms/dev1/missing")
	var pe *fs.PathError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "vkms/dev1/missing", pe.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestTreeWalk(t *testing.T) {
	tree, _ := newTestTree(t)
	require.NoError(t, tree.WriteAttr("a/b/c", "x"))
	require.NoError(t, tree.Symlink("/a/b", "a/link"))

	assert.Equal(t, []string{"a/b/c", "a/b", "a/link", "a"}, tree.Walk("a"))
	assert.Empty(t, tree.Walk("nope"))
}

func TestTreeOnHostDirectory(t *testing.T) {
	root := t.TempDir()
	tree := OpenTree(root, quietLogger())
	assert.Equal(t, root, tree.Layout.Root)

	mustCreate(t, tree, scenarioDevice())

	// Link targets are absolute host paths.
	target, err := os.Readlink(filepath.Join(root, "vkms/dev1/planes/p0/possible_crtcs/c0"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "vkms/dev1/crtcs/c0"), target)

	got, err := NewReader(tree, nil).Read(t.Context(), "dev1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c0"}, got.Planes[0].PossibleCrtcs)

	require.NoError(t, NewLifecycle(tree, nil, nil).Remove(t.Context(), "dev1"))
	_, err = os.Stat(filepath.Join(root, "vkms/dev1"))
	assert.True(t, os.IsNotExist(err))
}

func TestTolerated(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not exist", fs.ErrNotExist, true},
		{"eperm", &fs.PathError{Op: "unlink", Path: "x", Err: syscall.EPERM}, true},
		{"enoent", &fs.PathError{Op: "rmdir", Path: "x", Err: syscall.ENOENT}, true},
		{"ebusy", &fs.PathError{Op: "rmdir", Path: "x", Err: syscall.EBUSY}, false},
		{"enotempty", syscall.ENOTEMPTY, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tolerated(tt.err))
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Contains(t, describe(syscall.EBUSY), "in use")
	assert.Contains(t, describe(syscall.ENOTEMPTY), "linked from elsewhere")
	assert.Contains(t, describe(&fs.PathError{Op: "write", Path: "x", Err: syscall.EINVAL}), "rejected")
	assert.Empty(t, describe(errors.New("plain")))

	assert.Equal(t, "rmdir /x: boom", stepError("rmdir", "/x", errors.New("boom")))
}
