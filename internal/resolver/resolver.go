package resolver

// Turns textual require references into file paths.
//
// A reference may name a file directly ("lib/json.lua"), omit the
// extension ("lib/json"), or use dotted module notation ("lib.json").
// Candidates are probed in a fixed order against the file system and the
// first hit wins. The order is part of the output contract: it decides
// which physical file a reference binds to when several candidates
// exist, so it must never be rearranged.

import (
	"strings"

	"github.com/luapack/luapack/internal/fs"
)

type Resolver struct {
	fs           fs.FS
	primaryExt   string
	alternateExt string
}

func NewResolver(fs fs.FS) *Resolver {
	return &Resolver{
		fs:           fs,
		primaryExt:   ".lua",
		alternateExt: ".luau",
	}
}

// Resolve returns the canonical absolute path of the first candidate that
// exists as a regular file, or false when none does. Probing is strictly
// read-only.
func (r *Resolver) Resolve(reference string, baseDir string) (string, bool) {
	for _, candidate := range r.candidates(reference, baseDir) {
		if absolute, ok := r.probe(candidate); ok {
			return absolute, true
		}
	}
	return "", false
}

func (r *Resolver) candidates(reference string, baseDir string) []string {
	list := r.variants(reference, baseDir)

	// Tolerate the convention where module "Foo" lives in "foo.lua"
	folded := foldFirstCharacter(reference)
	if folded != reference {
		list = append(list, r.variants(folded, baseDir)...)
	}
	return list
}

func (r *Resolver) variants(reference string, baseDir string) []string {
	converted := r.convertDots(reference)
	return []string{
		reference,
		r.fs.Join(baseDir, reference),
		reference + r.primaryExt,
		r.fs.Join(baseDir, reference+r.primaryExt),
		reference + r.alternateExt,
		r.fs.Join(baseDir, reference+r.alternateExt),
		converted,
		r.fs.Join(baseDir, converted),
		converted + r.primaryExt,
		r.fs.Join(baseDir, converted+r.primaryExt),
		converted + r.alternateExt,
		r.fs.Join(baseDir, converted+r.alternateExt),
	}
}

// convertDots rewrites module notation to a path ("a.b.c" becomes
// "a/b/c") while leaving a trailing recognized extension alone
// ("a.b.lua" becomes "a/b.lua")
func (r *Resolver) convertDots(reference string) string {
	rest := reference
	ext := ""
	if e := r.fs.Ext(rest); e == r.primaryExt || e == r.alternateExt {
		ext = e
		rest = rest[:len(rest)-len(e)]
	}
	return strings.ReplaceAll(rest, ".", "/") + ext
}

func foldFirstCharacter(reference string) string {
	if len(reference) > 0 {
		if c := reference[0]; c >= 'A' && c <= 'Z' {
			return string(c+'a'-'A') + reference[1:]
		}
	}
	return reference
}

func (r *Resolver) probe(path string) (string, bool) {
	absolute, ok := r.fs.Abs(path)
	if !ok {
		return "", false
	}
	entries := r.fs.ReadDirectory(r.fs.Dir(absolute))
	if entries == nil {
		return "", false
	}
	if entry, ok := entries[r.fs.Base(absolute)]; ok && entry.Kind == fs.FileEntry {
		return absolute, true
	}
	return "", false
}
