package lua_printer

import (
	"testing"

	"github.com/luapack/luapack/internal/logger"
	"github.com/luapack/luapack/internal/lua_ast"
	"github.com/luapack/luapack/internal/lua_parser"
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
	msgs := log.Done()
	text := ""
	for _, msg := range msgs {
		text += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
	}
	require.True(t, ok, "parse failed: %s", text)
	return tree
}

func expectPrinted(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		tree := parseForTest(t, contents)
		require.Equal(t, expected, string(Print(tree, Options{})))
	})
}

func expectPrintedMinify(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents+" [minify]", func(t *testing.T) {
		t.Helper()
		tree := parseForTest(t, contents)
		require.Equal(t, expected, string(Print(tree, Options{RemoveWhitespace: true})))
	})
}

func TestStatements(t *testing.T) {
	expectPrinted(t, "local a,b = 1,'x'", "local a, b = 1, 'x'\n")
	expectPrinted(t, "local x", "local x\n")
	expectPrinted(t, "f(1, 2)", "f(1, 2)\n")
	expectPrinted(t, "a.b:c(1)", "a.b:c(1)\n")
	expectPrinted(t, "a, b.c = 1, 2", "a, b.c = 1, 2\n")
	expectPrinted(t, "if a then f() elseif b then g() else h() end",
		"if a then\n  f()\nelseif b then\n  g()\nelse\n  h()\nend\n")
	expectPrinted(t, "while x do f() end", "while x do\n  f()\nend\n")
	expectPrinted(t, "repeat f() until x", "repeat\n  f()\nuntil x\n")
	expectPrinted(t, "for i = 1, 10 do end", "for i = 1, 10 do\nend\n")
	expectPrinted(t, "for i = 1, 10, 2 do end", "for i = 1, 10, 2 do\nend\n")
	expectPrinted(t, "for k, v in pairs(t) do end", "for k, v in pairs(t) do\nend\n")
	expectPrinted(t, "function a.b:c(x, ...) return x end",
		"function a.b:c(x, ...)\n  return x\nend\n")
	expectPrinted(t, "local function f() end", "local function f()\nend\n")
	expectPrinted(t, "do return end", "do\n  return\nend\n")
	expectPrinted(t, "::top:: goto top", "::top::\ngoto top\n")
	expectPrinted(t, "break", "break\n")
	expectPrinted(t, "return 1, 2;", "return 1, 2\n")
}

func TestExpressions(t *testing.T) {
	expectPrinted(t, "x = (a + b) * c", "x = (a + b) * c\n")
	expectPrinted(t, "x = a * (b + c)", "x = a * (b + c)\n")
	expectPrinted(t, "x = a ^ b ^ c", "x = a ^ b ^ c\n")
	expectPrinted(t, "x = -a ^ 2", "x = -a ^ 2\n")
	expectPrinted(t, "x = a .. b .. c", "x = a .. b .. c\n")
	expectPrinted(t, "x = not a == b", "x = not a == b\n")
	expectPrinted(t, "x = #t + 1", "x = #t + 1\n")
	expectPrinted(t, "x = a and b or c", "x = a and b or c\n")
	expectPrinted(t, "x = function() end", "x = function()\nend\n")
	expectPrinted(t, "t = {1, x = 2, [k] = 3; 4}", "t = {1, x = 2, [k] = 3, 4}\n")
	expectPrinted(t, "x = t[1][2].y", "x = t[1][2].y\n")
	expectPrinted(t, "x = ...", "x = ...\n")
	expectPrinted(t, "x = 0xFF", "x = 0xFF\n")

	// Call sugar is normalized to parenthesized argument lists
	expectPrinted(t, "f 's'", "f('s')\n")
	expectPrinted(t, "f {1}", "f({1})\n")
	expectPrinted(t, "f [[s]]", "f([[s]])\n")
}

func TestStrings(t *testing.T) {
	expectPrinted(t, `x = 'it\'s'`, "x = 'it\\'s'\n")
	expectPrinted(t, `x = "a\nb"`, "x = \"a\\nb\"\n")
	expectPrinted(t, "x = [==[raw ]] here]==]", "x = [==[raw ]] here]==]\n")
	expectPrinted(t, "x = [[\nline]]", "x = [[\nline]]\n")

	// A long bracket string directly after "[" needs a space to keep the
	// index bracket from becoming part of the string delimiter
	expectPrinted(t, "x = a[ [[s]] ]", "x = a[ [[s]]]\n")
}

func TestMinify(t *testing.T) {
	expectPrintedMinify(t, "local a, b = 1, 2 local c = 3", "local a,b=1,2;local c=3;")
	expectPrintedMinify(t, "if a then f() end", "if a then f();end;")
	expectPrintedMinify(t, "if a then f() else g() end", "if a then f();else g();end;")
	expectPrintedMinify(t, "while x do f() end", "while x do f();end;")
	expectPrintedMinify(t, "repeat f() until x", "repeat f();until x;")
	expectPrintedMinify(t, "for i = 1, 10 do end", "for i=1,10 do end;")
	expectPrintedMinify(t, "for k in f(t) do end", "for k in f(t)do end;")
	expectPrintedMinify(t, "function a.b:c(x) return x end", "function a.b:c(x)return x;end;")
	expectPrintedMinify(t, "f 's'", "f('s');")
	expectPrintedMinify(t, "x = a + b * c", "x=a+b*c;")
	expectPrintedMinify(t, "x = a and b", "x=a and b;")
	expectPrintedMinify(t, "x = a and(b)", "x=a and(b);")
}

func TestMinifyFuseGuards(t *testing.T) {
	// "-" next to "-" would start a comment
	expectPrintedMinify(t, "x = a - -b", "x=a- -b;")
	expectPrintedMinify(t, "return -x", "return-x;")

	// ".." next to a number or "." would change the token
	expectPrintedMinify(t, "x = 1 .. y", "x=1 ..y;")
	expectPrintedMinify(t, "x = y .. .5", "x=y.. .5;")
	expectPrintedMinify(t, "local function f(...) return a .. ... end",
		"local function f(...)return a.. ...;end;")

	// long bracket strings after "["
	expectPrintedMinify(t, "x = a[ [[s]] ]", "x=a[ [[s]]];")
}

func TestParenStatementGuard(t *testing.T) {
	// Newlines do not separate statements, so a statement starting with
	// "(" would otherwise be read as call arguments for the previous one
	expectPrinted(t, "a = f; (g)()", "a = f\n;(g)()\n")
	expectPrinted(t, "f(); (g)()", "f()\n;(g)()\n")
	expectPrinted(t, "repeat f() until x; (g)()", "repeat\n  f()\nuntil x\n;(g)()\n")

	// No guard needed at the start of a fresh block
	expectPrinted(t, "do (f)() end", "do\n  (f)()\nend\n")

	expectPrintedMinify(t, "a = f; (g)()", "a=f;(g)();")
}

func TestStability(t *testing.T) {
	sources := []string{
		"local a, b = 1, 'x'",
		"x = a - -b",
		"x = 1 .. y",
		"x = -a ^ 2",
		"a = f; (g)()",
		"x = a[ [[s]] ]",
		"if a then f() elseif b then g() else h() end",
		"for i = 1, 10, 2 do f(i) end",
		"function a.b:c(x, ...) return x, ... end",
		"t = {1, x = 2, [k] = 3}",
	}

	for _, source := range sources {
		t.Run(source, func(t *testing.T) {
			for _, options := range []Options{{}, {RemoveWhitespace: true}} {
				first := string(Print(parseForTest(t, source), options))
				second := string(Print(parseForTest(t, first), options))
				require.Equal(t, first, second)
			}
		})
	}
}
