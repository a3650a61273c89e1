package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/luapack/luapack/internal/fs"
	"github.com/luapack/luapack/pkg/api"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: example entry.lua")
		os.Exit(1)
	}
	result := api.Build(api.BuildOptions{
		EntryPath: os.Args[1],
		Outfile:   "bundle.lua",
		FS:        &EnvFS{fs.RealFS()},
	})
	for _, warn := range result.Warnings {
		fmt.Println("[WARN] ", warn.Text)
	}
	for _, err := range result.Errors {
		fmt.Println("[ERROR] ", err.Text)
	}
	for _, file := range result.OutputFiles {
		fmt.Println(string(file.Contents))
	}
}

// EnvFS filesystem
//
// The idea here is to wrap the real file system in one that transforms
// modules as they are read. This one expands $(NAME) references to
// environment variables in every Lua file pulled into the bundle,
// unlike --define which only touches the entry module.
type EnvFS struct {
	fs.FS
}

var _ fs.FS = (*EnvFS)(nil)

// ReadFile expands $(NAME) in any .lua file
func (f *EnvFS) ReadFile(path string) (string, bool) {
	contents, ok := f.FS.ReadFile(path)
	if !ok || f.Ext(path) != ".lua" {
		return contents, ok
	}
	return expand(contents), true
}

// expand replaces each $(NAME) with the value of the NAME environment
// variable. Unset names expand to the empty string, like in make.
func expand(contents string) string {
	var sb strings.Builder
	for {
		start := strings.Index(contents, "$(")
		if start < 0 {
			break
		}
		end := strings.IndexByte(contents[start:], ')')
		if end < 0 {
			break
		}
		sb.WriteString(contents[:start])
		sb.WriteString(os.Getenv(contents[start+2 : start+end]))
		contents = contents[start+end+1:]
	}
	sb.WriteString(contents)
	return sb.String()
}
