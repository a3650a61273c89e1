package bundler

// Bundling is a text-level transform. Each module's source is scanned
// for require references, which are rewritten in place to indexed calls
// into a generated module table. The scanner tokenizes just enough of
// the surrounding Lua to skip comments and string literals so a require
// inside either is left alone. Parsing only happens afterwards, on the
// assembled output, and only when a tree consumer (the mangler or the
// whitespace minifier) is enabled.

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/luapack/luapack/internal/fs"
	"github.com/luapack/luapack/internal/logger"
	"github.com/luapack/luapack/internal/lua_ast"
	"github.com/luapack/luapack/internal/lua_parser"
	"github.com/luapack/luapack/internal/lua_printer"
	"github.com/luapack/luapack/internal/mangler"
	"github.com/luapack/luapack/internal/resolver"
	"github.com/luapack/luapack/internal/runtime"
)

type MangleMode uint8

const (
	MangleOff MangleMode = iota
	MangleManual
	MangleAuto
)

type Alphabet uint8

const (
	AlphabetWide Alphabet = iota
	AlphabetLower
)

// Define is a literal find/replace pair applied to the entry module's
// raw text before anything else, in the order given.
type Define struct {
	Find    string
	Replace string
}

type Options struct {
	EntryPath string

	// Only recorded in the metafile. Writing the output is the caller's
	// concern.
	Outfile string

	Defines []Define

	MangleMode        MangleMode
	MangleSentinel    string
	MangleAlphabet    Alphabet
	MangleMetamethods bool

	MinifyWhitespace bool
	Metafile         bool

	// The source of the module table name. Tests inject a fixed seed to
	// get reproducible output.
	Rand *rand.Rand
}

type BundleResult struct {
	Code     []byte
	Metafile string
	NameMap  map[string]string
}

// RequireEdge records one require site for the metafile. To is empty
// when the reference did not resolve to a file.
type RequireEdge struct {
	From      string
	To        string
	Reference string
}

// ModuleGraph tracks every module pulled into the bundle, keyed by
// canonical resolved path. A path is unseen until its first require,
// holds its raw snapshot while its own requires are being processed, and
// holds transformed text once processing returns. The snapshot ordering
// is what makes require cycles terminate.
type ModuleGraph struct {
	slots      map[string]int
	contents   map[string]string
	rawBytes   map[string]int
	unreadable map[string]bool
	order      []string
	edges      []RequireEdge
	nextSlot   int
}

func newModuleGraph() *ModuleGraph {
	return &ModuleGraph{
		slots:      make(map[string]int),
		contents:   make(map[string]string),
		rawBytes:   make(map[string]int),
		unreadable: make(map[string]bool),
		nextSlot:   1,
	}
}

// slotFor returns the slot for a resolved path, assigning the next free
// one on first reference. Slots count up from 1 in discovery order.
func (g *ModuleGraph) slotFor(path string) int {
	if slot, ok := g.slots[path]; ok {
		return slot
	}
	slot := g.nextSlot
	g.nextSlot++
	g.slots[path] = slot
	g.order = append(g.order, path)
	return slot
}

type bundler struct {
	fs        fs.FS
	log       logger.Log
	res       *resolver.Resolver
	options   *Options
	graph     *ModuleGraph
	tableName string
}

// Bundle reads the entry module, recursively pulls in everything it
// requires, and returns the assembled output. Diagnostics go to the log;
// an empty Code with errors on the log means the bundle failed.
func Bundle(fs fs.FS, log logger.Log, options Options) BundleResult {
	if options.Rand == nil {
		options.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	entryPath := options.EntryPath
	if abs, ok := fs.Abs(entryPath); ok {
		entryPath = abs
	}
	contents, ok := fs.ReadFile(entryPath)
	if !ok {
		log.AddError(nil, logger.Loc{}, fmt.Sprintf("Could not read from file: %s", options.EntryPath))
		return BundleResult{}
	}

	b := &bundler{
		fs:        fs,
		log:       log,
		res:       resolver.NewResolver(fs),
		options:   &options,
		graph:     newModuleGraph(),
		tableName: runtime.TableName(options.Rand),
	}

	// Snapshot the entry before scanning it so a module that requires
	// the entry back short-circuits instead of recursing forever. The
	// entry only occupies a slot if something actually requires it.
	b.graph.contents[entryPath] = contents
	b.graph.rawBytes[entryPath] = len(contents)
	transformed := b.bundle(contents, true, entryPath, fs.Dir(entryPath))
	b.graph.contents[entryPath] = transformed

	code := runtime.Prologue(b.tableName, b.modules()) + transformed

	var nameMap map[string]string
	if options.MangleMode != MangleOff || options.MinifyWhitespace {
		source := logger.Source{
			AbsPath:    entryPath,
			PrettyPath: "<bundle>",
			Contents:   code,
		}
		tree, ok := lua_parser.Parse(log, source)
		if !ok {
			return BundleResult{}
		}
		if options.MangleMode != MangleOff {
			sequence := lua_ast.DefaultNameSequence()
			if options.MangleAlphabet == AlphabetLower {
				sequence = lua_ast.LowerNameSequence()
			}
			nameMap = mangler.Mangle(tree, mangler.Options{
				Auto:                options.MangleMode == MangleAuto,
				Sentinel:            options.MangleSentinel,
				MangleSentinelNames: options.MangleMetamethods,
				Sequence:            &sequence,
			})
		}
		code = string(lua_printer.Print(tree, lua_printer.Options{
			RemoveWhitespace: options.MinifyWhitespace,
		}))
	}

	result := BundleResult{Code: []byte(code), NameMap: nameMap}
	if options.Metafile {
		result.Metafile = b.metafileJSON(entryPath, len(result.Code), nameMap)
	}
	return result
}

// bundle transforms the raw text of a single module. Defines apply to
// the entry module only.
func (b *bundler) bundle(text string, isEntry bool, selfPath string, baseDir string) string {
	if isEntry {
		for _, define := range b.options.Defines {
			text = strings.ReplaceAll(text, define.Find, define.Replace)
		}
	}
	return b.scanRequires(text, selfPath, baseDir)
}

// scanRequires walks the module text byte by byte, copying it through
// while rewriting each resolvable require reference to an indexed call
// into the module table. Newly referenced modules are pulled into the
// graph as they are discovered.
func (b *bundler) scanRequires(text string, selfPath string, baseDir string) string {
	source := logger.Source{
		AbsPath:    selfPath,
		PrettyPath: b.prettyPath(selfPath),
		Contents:   text,
	}

	sb := strings.Builder{}
	i := 0

	for i < len(text) {
		c := text[i]

		switch {
		case c == '-' && i+1 < len(text) && text[i+1] == '-':
			// A comment runs to the end of the line unless a long
			// bracket immediately follows the dashes
			end := i + 2
			if length := longBracketLen(text, end); length > 0 {
				end += length
			} else {
				for end < len(text) && text[end] != '\n' {
					end++
				}
			}
			sb.WriteString(text[i:end])
			i = end

		case c == '\'' || c == '"':
			end := shortStringEnd(text, i)
			sb.WriteString(text[i:end])
			i = end

		case c == '[':
			if length := longBracketLen(text, i); length > 0 {
				sb.WriteString(text[i : i+length])
				i += length
			} else {
				sb.WriteByte(c)
				i++
			}

		case c >= '0' && c <= '9':
			// Consume the whole numeric token so an identifier scan
			// cannot start in the middle of one
			start := i
			for i < len(text) && (isIdentByte(text[i]) || text[i] == '.') {
				i++
			}
			sb.WriteString(text[start:i])

		case isIdentStart(c):
			start := i
			for i < len(text) && isIdentByte(text[i]) {
				i++
			}
			word := text[start:i]
			if word != "require" {
				sb.WriteString(word)
				continue
			}
			reference, end, ok := matchRequireTail(text, i)
			if !ok {
				sb.WriteString(word)
				continue
			}
			resolved, found := b.res.Resolve(reference, baseDir)
			if !found {
				// Leave the reference for the host runtime to handle
				b.graph.edges = append(b.graph.edges, RequireEdge{From: selfPath, Reference: reference})
				sb.WriteString(text[start:end])
				i = end
				continue
			}
			b.graph.edges = append(b.graph.edges, RequireEdge{From: selfPath, To: resolved, Reference: reference})
			fmt.Fprintf(&sb, "%s[%d]()", b.tableName, b.graph.slotFor(resolved))
			i = end
			site := logger.Range{Loc: logger.Loc{Start: int32(start)}, Len: int32(len(word))}
			b.include(resolved, &source, site)

		default:
			sb.WriteByte(c)
			i++
		}
	}

	return sb.String()
}

// include pulls a resolved module into the graph on its first reference.
// The raw text is cached before recursing so a cycle back into this
// module sees the snapshot instead of recursing forever.
func (b *bundler) include(path string, source *logger.Source, site logger.Range) {
	if _, ok := b.graph.contents[path]; ok {
		return
	}
	if b.graph.unreadable[path] {
		return
	}
	contents, ok := b.fs.ReadFile(path)
	if !ok {
		// The slot stays referenced. The prologue emits no initializer
		// for it, so calling the module fails at run time.
		b.graph.unreadable[path] = true
		b.log.AddRangeWarning(source, site, fmt.Sprintf("Could not read from file: %s", b.prettyPath(path)))
		return
	}
	b.graph.contents[path] = contents
	b.graph.rawBytes[path] = len(contents)
	transformed := b.bundle(contents, false, path, b.fs.Dir(path))
	b.graph.contents[path] = transformed
}

// modules lists the slotted modules in slot order for the prologue.
func (b *bundler) modules() []runtime.Module {
	modules := make([]runtime.Module, 0, len(b.graph.order))
	for _, path := range b.graph.order {
		modules = append(modules, runtime.Module{
			Slot:       b.graph.slots[path],
			PrettyPath: b.prettyPath(path),
			Body:       b.graph.contents[path],
			Unreadable: b.graph.unreadable[path],
		})
	}
	return modules
}

func (b *bundler) prettyPath(path string) string {
	if rel, ok := b.fs.Rel(b.fs.Cwd(), path); ok {
		return rel
	}
	return path
}

type metafileRequire struct {
	Reference string  `json:"reference"`
	Resolved  *string `json:"resolved"`
}

type metafileModule struct {
	Path     string            `json:"path"`
	Slot     int               `json:"slot,omitempty"`
	Bytes    int               `json:"bytes"`
	Requires []metafileRequire `json:"requires"`
}

func (b *bundler) metafileJSON(entryPath string, outBytes int, nameMap map[string]string) string {
	type metafileOutput struct {
		Path  string `json:"path"`
		Bytes int    `json:"bytes"`
	}
	type metafile struct {
		Entry   string            `json:"entry"`
		Output  metafileOutput    `json:"output"`
		Modules []metafileModule  `json:"modules"`
		NameMap map[string]string `json:"nameMap,omitempty"`
	}

	requiresByModule := make(map[string][]metafileRequire)
	for _, edge := range b.graph.edges {
		record := metafileRequire{Reference: edge.Reference}
		if edge.To != "" {
			pretty := b.prettyPath(edge.To)
			record.Resolved = &pretty
		}
		requiresByModule[edge.From] = append(requiresByModule[edge.From], record)
	}

	// The entry leads even when it never got a slot
	paths := make([]string, 0, len(b.graph.order)+1)
	paths = append(paths, entryPath)
	for _, path := range b.graph.order {
		if path != entryPath {
			paths = append(paths, path)
		}
	}

	modules := make([]metafileModule, 0, len(paths))
	for _, path := range paths {
		requires := requiresByModule[path]
		if requires == nil {
			requires = []metafileRequire{}
		}
		modules = append(modules, metafileModule{
			Path:     b.prettyPath(path),
			Slot:     b.graph.slots[path],
			Bytes:    b.graph.rawBytes[path],
			Requires: requires,
		})
	}

	data := metafile{
		Entry:   b.prettyPath(entryPath),
		Output:  metafileOutput{Path: b.options.Outfile, Bytes: outBytes},
		Modules: modules,
		NameMap: nameMap,
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return ""
	}
	return string(out) + "\n"
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

// shortStringEnd returns the index just past the quoted string starting
// at i. Backslash escapes are honored. An unterminated string stops at
// the end of the line so the rest of the file still gets scanned.
func shortStringEnd(text string, i int) int {
	quote := text[i]
	i++
	for i < len(text) {
		c := text[i]
		if c == '\\' && i+1 < len(text) {
			i += 2
			continue
		}
		if c == quote {
			return i + 1
		}
		if c == '\n' {
			return i
		}
		i++
	}
	return i
}

// longBracketLen returns the length of the long bracket token starting
// at i ("[[" through the matching "]]", with any level of "=" padding),
// or zero when text[i:] does not open one. An unterminated bracket
// consumes the rest of the text.
func longBracketLen(text string, i int) int {
	if i >= len(text) || text[i] != '[' {
		return 0
	}
	j := i + 1
	for j < len(text) && text[j] == '=' {
		j++
	}
	if j >= len(text) || text[j] != '[' {
		return 0
	}
	level := j - i - 1
	for k := j + 1; k < len(text); k++ {
		if text[k] != ']' {
			continue
		}
		m := k + 1
		for m < len(text) && text[m] == '=' {
			m++
		}
		if m-k-1 == level && m < len(text) && text[m] == ']' {
			return m + 1 - i
		}
	}
	return len(text) - i
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		switch text[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}

// matchRequireTail matches the argument part of a require reference
// after the identifier itself: a single quoted string with optional
// enclosing parentheses and any amount of whitespace in between. It
// returns the raw reference text and the index just past the construct.
func matchRequireTail(text string, i int) (string, int, bool) {
	i = skipSpace(text, i)
	hasParen := false
	if i < len(text) && text[i] == '(' {
		hasParen = true
		i = skipSpace(text, i+1)
	}
	if i >= len(text) {
		return "", 0, false
	}

	var reference string
	switch text[i] {
	case '\'', '"':
		quote := text[i]
		j := i + 1
		for {
			if j >= len(text) || text[j] == '\n' {
				return "", 0, false
			}
			if text[j] == '\\' {
				j += 2
				continue
			}
			if text[j] == quote {
				break
			}
			j++
		}
		reference = text[i+1 : j]
		i = j + 1

	case '[':
		level := 0
		for i+1+level < len(text) && text[i+1+level] == '=' {
			level++
		}
		length := longBracketLen(text, i)
		closing := "]" + strings.Repeat("=", level) + "]"
		if length == 0 || !strings.HasSuffix(text[i:i+length], closing) {
			return "", 0, false
		}
		reference = text[i+level+2 : i+length-level-2]
		i += length

	default:
		return "", 0, false
	}

	if hasParen {
		i = skipSpace(text, i)
		if i >= len(text) || text[i] != ')' {
			return "", 0, false
		}
		i++
	}
	return reference, i, true
}
