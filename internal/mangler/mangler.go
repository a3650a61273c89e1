package mangler

// Renames table property names to short generated identifiers: dot
// accesses, method names, bare table keys, and quoted string keys used in
// index position. Local variables and globals are left alone, so the
// output stays link-compatible with code outside the bundle unless that
// code pokes at renamed properties.
//
// The naming policy decides what is eligible:
//
//   - names beginning with the sentinel ("__" by default, the metamethod
//     convention) always pass through unchanged
//   - in manual mode only names beginning with the marker character are
//     renamed, everything else passes through
//   - in auto mode every name is renamed, and the marker instead opts a
//     name out: the marker is stripped and the rest passes through
//
// Renaming is consistent within one pass: the same original name maps to
// the same generated name everywhere, and no two originals share one
// generated name.
//
// Input trees may share subtrees or even contain cycles. The walk keys a
// visited set by node identity and never enters a node twice, so sharing
// is safe and cyclic trees terminate.

import (
	"strings"

	"github.com/luapack/luapack/internal/lua_ast"
	"github.com/luapack/luapack/internal/lua_lexer"
)

type Options struct {
	// Rename every eligible name, not just marker-prefixed ones
	Auto bool

	// Prefix for names that must never be renamed. Defaults to "__".
	Sentinel string

	// Single-character eligibility marker. Defaults to '_'.
	Marker byte

	// Rename sentinel-prefixed names too, dropping their protection
	MangleSentinelNames bool

	// Source of generated names. Defaults to the wide alphabet.
	Sequence *lua_ast.NameSequence
}

// Mangle rewrites property names in the tree in place and returns the
// mapping from original to generated names.
func Mangle(tree lua_ast.AST, options Options) map[string]string {
	if options.Sentinel == "" {
		options.Sentinel = "__"
	}
	if options.Marker == 0 {
		options.Marker = '_'
	}
	if options.Sequence == nil {
		sequence := lua_ast.DefaultNameSequence()
		options.Sequence = &sequence
	}

	m := &mangler{
		options:      options,
		nameMap:      make(map[string]string),
		visitedExprs: make(map[lua_ast.E]bool),
		visitedStmts: make(map[lua_ast.S]bool),
	}
	for _, stmt := range tree.Stmts {
		m.visitStmt(stmt)
	}
	return m.nameMap
}

type mangler struct {
	options      Options
	nameMap      map[string]string
	visitedExprs map[lua_ast.E]bool
	visitedStmts map[lua_ast.S]bool
}

func (m *mangler) rename(name string) string {
	if !m.options.MangleSentinelNames && strings.HasPrefix(name, m.options.Sentinel) {
		return name
	}

	if m.options.Auto {
		if len(name) > 0 && name[0] == m.options.Marker {
			return name[1:]
		}
		return m.mapped(name)
	}

	if len(name) > 0 && name[0] == m.options.Marker {
		return m.mapped(name)
	}
	return name
}

func (m *mangler) mapped(name string) string {
	if mangled, ok := m.nameMap[name]; ok {
		return mangled
	}
	mangled := m.nextName()
	m.nameMap[name] = mangled
	return mangled
}

func (m *mangler) nextName() string {
	for {
		name := m.options.Sequence.NextName()
		if _, isKeyword := lua_lexer.Keywords[name]; !isKeyword {
			return name
		}
	}
}

// renameStringKey rewrites the inner text of a quoted string used as a
// table key, keeping the original quote character. The node is marked
// visited so a later structural visit cannot rename it a second time.
func (m *mangler) renameStringKey(str *lua_ast.EString) {
	if m.visitedExprs[str] {
		return
	}
	str.Value = m.rename(str.Value)
	m.visitedExprs[str] = true
}

func isStringKey(expr lua_ast.Expr) (*lua_ast.EString, bool) {
	if str, ok := expr.Data.(*lua_ast.EString); ok && str.Quote != 0 {
		return str, true
	}
	return nil, false
}

func (m *mangler) visitExpr(expr lua_ast.Expr) {
	data := expr.Data
	if data == nil || m.visitedExprs[data] {
		return
	}
	m.visitedExprs[data] = true

	switch e := data.(type) {
	case *lua_ast.EDot:
		e.Name = m.rename(e.Name)
		m.visitExpr(e.Target)

	case *lua_ast.EMethodCall:
		e.Name = m.rename(e.Name)
		m.visitExpr(e.Target)
		for _, arg := range e.Args {
			m.visitExpr(arg)
		}

	case *lua_ast.EIndex:
		if str, ok := isStringKey(e.Index); ok {
			m.renameStringKey(str)
		}
		m.visitExpr(e.Target)
		m.visitExpr(e.Index)

	case *lua_ast.ETable:
		for i := range e.Properties {
			property := &e.Properties[i]
			switch property.Kind {
			case lua_ast.PropertyBare:
				property.KeyName = m.rename(property.KeyName)
			case lua_ast.PropertyComputed:
				if str, ok := isStringKey(property.Key); ok {
					m.renameStringKey(str)
				}
			}
			m.visitExpr(property.Key)
			m.visitExpr(property.Value)
		}

	case *lua_ast.ECall:
		m.visitExpr(e.Target)
		for _, arg := range e.Args {
			m.visitExpr(arg)
		}

	case *lua_ast.EFunction:
		m.visitFn(e.Fn)

	case *lua_ast.EBinary:
		m.visitExpr(e.Left)
		m.visitExpr(e.Right)

	case *lua_ast.EUnary:
		m.visitExpr(e.Value)

	case *lua_ast.EParen:
		m.visitExpr(e.Value)
	}
}

func (m *mangler) visitFn(fn lua_ast.Fn) {
	for _, stmt := range fn.Body {
		m.visitStmt(stmt)
	}
}

func (m *mangler) visitStmt(stmt lua_ast.Stmt) {
	data := stmt.Data
	if data == nil || m.visitedStmts[data] {
		return
	}
	m.visitedStmts[data] = true

	switch s := data.(type) {
	case *lua_ast.SLocal:
		for _, value := range s.Values {
			m.visitExpr(value)
		}

	case *lua_ast.SLocalFunction:
		m.visitFn(s.Fn)

	case *lua_ast.SFunction:
		if s.IsMethod {
			s.Method = m.rename(s.Method)
		}
		m.visitExpr(s.Target)
		m.visitFn(s.Fn)

	case *lua_ast.SAssign:
		for _, target := range s.Targets {
			m.visitExpr(target)
		}
		for _, value := range s.Values {
			m.visitExpr(value)
		}

	case *lua_ast.SExpr:
		m.visitExpr(s.Value)

	case *lua_ast.SIf:
		m.visitExpr(s.Test)
		for _, stmt := range s.Body {
			m.visitStmt(stmt)
		}
		for _, elseIf := range s.ElseIfs {
			m.visitExpr(elseIf.Test)
			for _, stmt := range elseIf.Body {
				m.visitStmt(stmt)
			}
		}
		for _, stmt := range s.Else {
			m.visitStmt(stmt)
		}

	case *lua_ast.SWhile:
		m.visitExpr(s.Test)
		for _, stmt := range s.Body {
			m.visitStmt(stmt)
		}

	case *lua_ast.SRepeat:
		for _, stmt := range s.Body {
			m.visitStmt(stmt)
		}
		m.visitExpr(s.Test)

	case *lua_ast.SNumericFor:
		m.visitExpr(s.Start)
		m.visitExpr(s.End)
		m.visitExpr(s.Step)
		for _, stmt := range s.Body {
			m.visitStmt(stmt)
		}

	case *lua_ast.SGenericFor:
		for _, expr := range s.Exprs {
			m.visitExpr(expr)
		}
		for _, stmt := range s.Body {
			m.visitStmt(stmt)
		}

	case *lua_ast.SDo:
		for _, stmt := range s.Body {
			m.visitStmt(stmt)
		}

	case *lua_ast.SReturn:
		for _, value := range s.Values {
			m.visitExpr(value)
		}
	}
}
