package api

import (
	"math/rand"

	"github.com/luapack/luapack/internal/fs"
)

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type LogLevel uint8

const (
	LogLevelSilent LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

type MangleMode uint8

const (
	MangleOff MangleMode = iota
	MangleManual
	MangleAuto
)

type MangleAlphabet uint8

const (
	AlphabetWide MangleAlphabet = iota
	AlphabetLower
)

// Define is a literal find/replace pair applied to the entry module's
// text before bundling. Pairs apply in order, so later pairs see the
// output of earlier ones.
type Define struct {
	Find    string
	Replace string
}

type Location struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Message struct {
	Text     string
	Location *Location
}

////////////////////////////////////////////////////////////////////////////////
// Build API

type BuildOptions struct {
	Color      StderrColor
	ErrorLimit int
	LogLevel   LogLevel

	MinifyWhitespace bool

	Mangle            MangleMode
	MangleSentinel    string
	MangleAlphabet    MangleAlphabet
	MangleMetamethods bool

	Defines []Define

	EntryPath string
	Outfile   string
	Metafile  string

	// Both are overridable so tests can run against an in-memory file
	// system with a fixed seed. Leaving them nil uses the real file
	// system and a clock-seeded table name.
	FS   fs.FS
	Rand *rand.Rand
}

type BuildResult struct {
	Errors   []Message
	Warnings []Message

	OutputFiles []OutputFile
}

type OutputFile struct {
	Path     string
	Contents []byte
}

func Build(options BuildOptions) BuildResult {
	return buildImpl(options)
}
