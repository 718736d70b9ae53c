package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "root", input: "/", want: "/"},
		{name: "empty", input: "", want: "/"},
		{name: "relative made absolute", input: "a/b", want: "/a/b"},
		{name: "backslashes", input: `\a\b\c.txt`, want: "/a/b/c.txt"},
		{name: "double separators", input: "//a///b/", want: "/a/b"},
		{name: "dot segments", input: "/a/./b/../c", want: "/a/c"},
		{name: "escape root", input: "/a/../..", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePath(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParentAndBaseName(t *testing.T) {
	assert.Equal(t, "", ParentPath("/"))
	assert.Equal(t, "/", ParentPath("/a"))
	assert.Equal(t, "/a", ParentPath("/a/b"))

	assert.Equal(t, "", BaseName("/"))
	assert.Equal(t, "b c.txt", BaseName("/a/b c.txt"))
}

func TestGenericName(t *testing.T) {
	root := NewGenericName("mem", "test", "/", Folder)
	name := root.CreateName("/docs/a b.txt", File)

	assert.Equal(t, "mem://test", name.RootURI())
	assert.Equal(t, "mem://test/docs/a%20b.txt", name.URI())
	assert.Equal(t, "a b.txt", name.BaseName())
	assert.Equal(t, "/docs", name.Parent().Path())
	assert.Equal(t, "/", name.Parent().Parent().Path())
	assert.Nil(t, root.Parent())
}

func TestRelativeName(t *testing.T) {
	root := NewGenericName("mem", "test", "/", Folder)
	base := root.CreateName("/a/b", Folder)

	tests := []struct {
		path string
		want string
	}{
		{path: "/a/b", want: "."},
		{path: "/a/b/c", want: "c"},
		{path: "/a/b/c/d.txt", want: "c/d.txt"},
		{path: "/a/x", want: "../x"},
		{path: "/", want: "../.."},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := RelativeName(base, root.CreateName(tt.path, Imaginary))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	other := NewGenericName("mem", "other", "/a/b", Folder)
	_, err := RelativeName(base, other)
	assert.ErrorIs(t, err, ErrBadPath)
}

func TestCheckScope(t *testing.T) {
	root := NewGenericName("mem", "test", "/", Folder)
	base := root.CreateName("/a", Folder)

	self := root.CreateName("/a", Imaginary)
	child := root.CreateName("/a/b", Imaginary)
	grandchild := root.CreateName("/a/b/c", Imaginary)
	sibling := root.CreateName("/ab", Imaginary)

	assert.NoError(t, CheckScope(base, sibling, ScopeFileSystem))

	assert.NoError(t, CheckScope(base, child, ScopeChild))
	assert.Error(t, CheckScope(base, grandchild, ScopeChild))
	assert.Error(t, CheckScope(base, self, ScopeChild))

	assert.NoError(t, CheckScope(base, grandchild, ScopeDescendant))
	assert.Error(t, CheckScope(base, self, ScopeDescendant))
	assert.Error(t, CheckScope(base, sibling, ScopeDescendant))

	assert.NoError(t, CheckScope(base, self, ScopeDescendantOrSelf))
	assert.NoError(t, CheckScope(base, child, ScopeDescendantOrSelf))
}
