package fs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luapack/luapack/internal/fs"
)

func TestMockFSDirectories(t *testing.T) {
	mock := fs.MockFS(map[string]string{
		"/project/main.lua":     "return 1",
		"/project/lib/util.lua": "return 2",
	})

	root := mock.ReadDirectory("/project")
	require.NotNil(t, root)
	require.Equal(t, fs.FileEntry, root["main.lua"].Kind)
	require.Equal(t, fs.DirEntry, root["lib"].Kind)

	lib := mock.ReadDirectory("/project/lib")
	require.NotNil(t, lib)
	require.Equal(t, fs.FileEntry, lib["util.lua"].Kind)

	require.Nil(t, mock.ReadDirectory("/project/missing"))
}

func TestMockFSReadFile(t *testing.T) {
	mock := fs.MockFS(map[string]string{
		"/a.lua": "return 1",
	})

	contents, ok := mock.ReadFile("/a.lua")
	require.True(t, ok)
	require.Equal(t, "return 1", contents)

	_, ok = mock.ReadFile("/b.lua")
	require.False(t, ok)
}

func TestMockFSAbs(t *testing.T) {
	mock := fs.MockFS(nil)

	abs, ok := mock.Abs("project/../a.lua")
	require.True(t, ok)
	require.Equal(t, "/a.lua", abs)

	abs, ok = mock.Abs("/project/./b.lua")
	require.True(t, ok)
	require.Equal(t, "/project/b.lua", abs)
}

func TestMockFSRel(t *testing.T) {
	mock := fs.MockFS(nil)

	cases := []struct {
		base, target, expected string
	}{
		{"/project", "/project/main.lua", "main.lua"},
		{"/project", "/project", "."},
		{"/project/a", "/project/b/c.lua", "../b/c.lua"},
		{"/project/a/b", "/project", "../.."},
		{"/", "/project/main.lua", "project/main.lua"},
	}
	for _, c := range cases {
		rel, ok := mock.Rel(c.base, c.target)
		require.True(t, ok, "%s -> %s", c.base, c.target)
		require.Equal(t, c.expected, rel, "%s -> %s", c.base, c.target)
	}
}
