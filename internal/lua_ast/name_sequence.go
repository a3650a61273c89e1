package lua_ast

import "math/rand"

// A NameSequence enumerates every identifier over its alphabet in
// shortest-first order: all one-character names, then all two-character
// names, and so on, lexicographic within a length. The first character
// comes from head (no digits), the rest from tail. The enumeration is
// deterministic, so a fixed traversal order yields a reproducible build.
//
// The sequence itself knows nothing about reserved words. Callers that
// need keyword-free names keep calling NextName until one clears their
// reserved set, which advances the sequence past the collision.
type NameSequence struct {
	head  string
	tail  string
	index int
}

// DefaultNameSequence draws from the full identifier alphabet.
func DefaultNameSequence() NameSequence {
	return NameSequence{
		head: "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_",
		tail: "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_0123456789",
	}
}

// LowerNameSequence draws from lowercase letters only. This matches the
// plain base-26 scheme some callers prefer for diff-friendly output.
func LowerNameSequence() NameSequence {
	return NameSequence{
		head: "abcdefghijklmnopqrstuvwxyz",
		tail: "abcdefghijklmnopqrstuvwxyz",
	}
}

func (s *NameSequence) NextName() string {
	name := s.NumberToName(s.index)
	s.index++
	return name
}

func (s *NameSequence) NumberToName(i int) string {
	headBase := len(s.head)
	tailBase := len(s.tail)

	j := i % headBase
	name := s.head[j : j+1]
	i = i / headBase

	for i > 0 {
		i--
		j := i % tailBase
		name += s.tail[j : j+1]
		i = i / tailBase
	}

	return name
}

const tableNameLength = 8

// RandomTableName generates the name of the bundle's module table. The
// first character avoids digits so the result is a valid identifier, and
// the length makes an accidental collision with user code implausible.
// The random source is supplied by the caller so builds can be made
// reproducible.
func RandomTableName(r *rand.Rand) string {
	s := DefaultNameSequence()
	name := make([]byte, tableNameLength)
	name[0] = s.head[r.Intn(len(s.head))]
	for i := 1; i < tableNameLength; i++ {
		name[i] = s.tail[r.Intn(len(s.tail))]
	}
	return string(name)
}
