package lua_ast_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luapack/luapack/internal/lua_ast"
)

func TestNameSequenceShortestFirst(t *testing.T) {
	s := lua_ast.DefaultNameSequence()

	require.Equal(t, "a", s.NextName())
	require.Equal(t, "b", s.NextName())
	require.Equal(t, "c", s.NextName())

	// The 53rd single-character name is the last one before the sequence
	// grows to two characters
	require.Equal(t, "_", s.NumberToName(52))
	require.Equal(t, "aa", s.NumberToName(53))
	require.Equal(t, "ba", s.NumberToName(54))
	require.Equal(t, "ab", s.NumberToName(2*53))
}

func TestNameSequenceLowerAlphabet(t *testing.T) {
	s := lua_ast.LowerNameSequence()

	require.Equal(t, "a", s.NumberToName(0))
	require.Equal(t, "z", s.NumberToName(25))
	require.Equal(t, "aa", s.NumberToName(26))
	require.Equal(t, "za", s.NumberToName(51))
	require.Equal(t, "ab", s.NumberToName(52))
}

func TestNameSequenceNeverRepeats(t *testing.T) {
	s := lua_ast.LowerNameSequence()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		name := s.NextName()
		require.False(t, seen[name], "name %q repeated at index %d", name, i)
		seen[name] = true
	}
}

func TestNameSequenceDeterministic(t *testing.T) {
	a := lua_ast.DefaultNameSequence()
	b := lua_ast.DefaultNameSequence()
	for i := 0; i < 500; i++ {
		require.Equal(t, a.NextName(), b.NextName())
	}
}

func TestRandomTableName(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	name := lua_ast.RandomTableName(r)
	require.Len(t, name, 8)

	first := name[0]
	require.False(t, first >= '0' && first <= '9')

	// A fixed seed gives a fixed name
	r2 := rand.New(rand.NewSource(1))
	require.Equal(t, name, lua_ast.RandomTableName(r2))

	// A different seed gives a different name
	r3 := rand.New(rand.NewSource(2))
	require.NotEqual(t, name, lua_ast.RandomTableName(r3))
}
