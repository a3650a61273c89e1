package mangler

import (
	"testing"

	"github.com/luapack/luapack/internal/logger"
	"github.com/luapack/luapack/internal/lua_ast"
	"github.com/luapack/luapack/internal/lua_lexer"
	"github.com/luapack/luapack/internal/lua_parser"
	"github.com/luapack/luapack/internal/lua_printer"
	"github.com/stretchr/testify/require"
)

func parseForTest(t *testing.T, contents string) lua_ast.AST {
	t.Helper()
	log := logger.NewDeferLog()
	tree, ok := lua_parser.Parse(log, logger.Source{
		AbsPath:    "<stdin>",
		PrettyPath: "<stdin>",
		Contents:   contents,
	})
	require.True(t, ok, "parse failed")
	return tree
}

func mangleForTest(t *testing.T, contents string, options Options) (string, map[string]string) {
	t.Helper()
	tree := parseForTest(t, contents)
	nameMap := Mangle(tree, options)
	return string(lua_printer.Print(tree, lua_printer.Options{})), nameMap
}

func expectMangled(t *testing.T, options Options, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		printed, _ := mangleForTest(t, contents, options)
		require.Equal(t, expected, printed)
	})
}

func TestManualMode(t *testing.T) {
	expectMangled(t, Options{}, "x._foo = y.plain", "x.a = y.plain\n")
	expectMangled(t, Options{}, "x._foo = a._bar + a._foo", "x.a = a.b + a.a\n")
	expectMangled(t, Options{}, "obj:_m(1)", "obj:a(1)\n")
	expectMangled(t, Options{}, "t = {_a = 1, b = 2}", "t = {a = 1, b = 2}\n")
	expectMangled(t, Options{}, "function obj._helpers:_run() end",
		"function obj.b:a()\nend\n")
}

func TestAutoMode(t *testing.T) {
	options := Options{Auto: true}
	expectMangled(t, options, "a.b = c.d", "a.a = c.b\n")
	expectMangled(t, options, "obj:method(1)", "obj:a(1)\n")
	expectMangled(t, options, "t = {key = 1}", "t = {a = 1}\n")

	// The marker opts a name out of automatic renaming
	expectMangled(t, options, "x._keep = y.gone", "x.keep = y.a\n")
}

func TestSentinelProtection(t *testing.T) {
	expectMangled(t, Options{Auto: true}, "t.__index = t.__index", "t.__index = t.__index\n")
	expectMangled(t, Options{Auto: true}, "t = {__index = base}", "t = {__index = base}\n")
	expectMangled(t, Options{}, "t.__index = t._x", "t.__index = t.a\n")

	// A custom sentinel replaces the default one
	expectMangled(t, Options{Sentinel: "m_"}, "x.m_keep = x._gone", "x.m_keep = x.a\n")

	// Dropping protection makes sentinel names ordinary, so in auto mode
	// the leading marker character is stripped like any other
	expectMangled(t, Options{Auto: true, MangleSentinelNames: true},
		"t.__index = 1", "t._index = 1\n")
}

func TestStringKeys(t *testing.T) {
	expectMangled(t, Options{}, "t['_k'] = t[\"_k\"]", "t['a'] = t[\"a\"]\n")
	expectMangled(t, Options{}, "t._k = t['_k']", "t.a = t['a']\n")
	expectMangled(t, Options{}, "t = {['_k'] = 1}", "t = {['a'] = 1}\n")

	// Only a direct quoted string is a string key
	expectMangled(t, Options{}, "a[('_k')] = 1", "a[('_k')] = 1\n")
	expectMangled(t, Options{}, "t[ [[_k]] ] = 1", "t[ [[_k]]] = 1\n")
}

func TestNameMapIsBijective(t *testing.T) {
	_, nameMap := mangleForTest(t, "a._x = a._y a._z = a._x", Options{})
	require.Equal(t, map[string]string{"_x": "a", "_y": "b", "_z": "c"}, nameMap)

	seen := map[string]bool{}
	for _, mangled := range nameMap {
		require.False(t, seen[mangled])
		seen[mangled] = true
	}
}

func TestGeneratedNamesSkipKeywords(t *testing.T) {
	sequence := lua_ast.DefaultNameSequence()
	m := &mangler{options: Options{Sequence: &sequence}}

	seen := map[string]bool{}
	for i := 0; i < 2000; i++ {
		name := m.nextName()
		require.False(t, seen[name], "name %q repeated", name)
		seen[name] = true
		_, isKeyword := lua_lexer.Keywords[name]
		require.False(t, isKeyword, "name %q is a keyword", name)
	}
}

func TestSharedSubtreeRenamedOnce(t *testing.T) {
	shared := &lua_ast.EDot{
		Target: lua_ast.Expr{Data: &lua_ast.EIdent{Name: "t"}},
		Name:   "s",
	}
	tree := lua_ast.AST{Stmts: []lua_ast.Stmt{
		{Data: &lua_ast.SExpr{Value: lua_ast.Expr{Data: &lua_ast.ECall{
			Target: lua_ast.Expr{Data: &lua_ast.EIdent{Name: "f"}},
			Args:   []lua_ast.Expr{{Data: shared}, {Data: shared}},
		}}}},
	}}

	nameMap := Mangle(tree, Options{Auto: true})
	require.Equal(t, "a", shared.Name)
	require.Equal(t, map[string]string{"s": "a"}, nameMap)
}

func TestCyclicTreeTerminates(t *testing.T) {
	inner := &lua_ast.EDot{Name: "_x"}
	outer := &lua_ast.EDot{Target: lua_ast.Expr{Data: inner}, Name: "_y"}
	inner.Target = lua_ast.Expr{Data: outer}

	tree := lua_ast.AST{Stmts: []lua_ast.Stmt{
		{Data: &lua_ast.SExpr{Value: lua_ast.Expr{Data: outer}}},
	}}

	nameMap := Mangle(tree, Options{})
	require.Equal(t, map[string]string{"_y": "a", "_x": "b"}, nameMap)
	require.Equal(t, "a", outer.Name)
	require.Equal(t, "b", inner.Name)
}

func TestSharedStringKeyRenamedOnce(t *testing.T) {
	str := &lua_ast.EString{Value: "k", Quote: '"'}
	makeIndex := func() lua_ast.Expr {
		return lua_ast.Expr{Data: &lua_ast.EIndex{
			Target: lua_ast.Expr{Data: &lua_ast.EIdent{Name: "t"}},
			Index:  lua_ast.Expr{Data: str},
		}}
	}
	tree := lua_ast.AST{Stmts: []lua_ast.Stmt{
		{Data: &lua_ast.SAssign{
			Targets: []lua_ast.Expr{makeIndex()},
			Values:  []lua_ast.Expr{makeIndex()},
		}},
	}}

	nameMap := Mangle(tree, Options{Auto: true})
	require.Equal(t, "a", str.Value)
	require.Equal(t, map[string]string{"k": "a"}, nameMap)
}
