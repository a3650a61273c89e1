package lua_printer

// Converts a syntax tree back to source text. With RemoveWhitespace the
// output drops indentation and newlines, terminates every statement with
// ";", and inserts single spaces only where two tokens would otherwise
// fuse into something else when lexed again:
//
//   - a name, keyword, or number after another one ("local a", "10 do")
//   - "-" after "-", which would start a comment
//   - ".." after a number, which would extend the number
//   - a long bracket string after "[", which would open a longer bracket
//
// Newlines are not statement boundaries in this language, so a statement
// beginning with "(" can be misread as call arguments for the previous
// statement's final expression. The printer prefixes such statements with
// ";" in whitespace mode too.

import (
	"strings"

	"github.com/luapack/luapack/internal/lua_ast"
)

type Options struct {
	RemoveWhitespace bool
}

func Print(tree lua_ast.AST, options Options) []byte {
	p := &printer{
		options:    options,
		prevNumEnd: -1,
	}
	for _, stmt := range tree.Stmts {
		p.printIndent()
		p.printStmt(stmt)
	}
	return p.lua
}

type printer struct {
	options        Options
	lua            []byte
	indent         int
	prevNumEnd     int
	needsSemicolon bool
}

func (p *printer) print(text string) {
	p.lua = append(p.lua, text...)
}

func (p *printer) printSpace() {
	if !p.options.RemoveWhitespace {
		p.print(" ")
	}
}

func (p *printer) printNewline() {
	if !p.options.RemoveWhitespace {
		p.print("\n")
	}
}

func (p *printer) printIndent() {
	if !p.options.RemoveWhitespace {
		for i := 0; i < p.indent; i++ {
			p.print("  ")
		}
	}
}

func (p *printer) printSemicolonAfterStatement() {
	if p.options.RemoveWhitespace {
		p.print(";")
	} else {
		p.print("\n")
	}
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

func (p *printer) lastByte() byte {
	if len(p.lua) == 0 {
		return 0
	}
	return p.lua[len(p.lua)-1]
}

func (p *printer) printSpaceBeforeIdentifier() {
	if isIdentByte(p.lastByte()) {
		p.print(" ")
	}
}

func (p *printer) printDash() {
	if p.lastByte() == '-' {
		p.print(" ")
	}
	p.print("-")
}

// printBody prints the statements of a block one indent level deeper and
// leaves the cursor indented for the closing keyword
func (p *printer) printBody(body []lua_ast.Stmt) {
	p.printNewline()
	p.needsSemicolon = false
	p.indent++
	for _, stmt := range body {
		p.printIndent()
		p.printStmt(stmt)
	}
	p.indent--
	p.printIndent()
}

// stmtStartsWithParen walks the leftmost target chain looking for the "("
// that could be misread as call arguments for the previous statement
func stmtStartsWithParen(stmt lua_ast.Stmt) bool {
	var data lua_ast.E
	switch s := stmt.Data.(type) {
	case *lua_ast.SExpr:
		data = s.Value.Data
	case *lua_ast.SAssign:
		data = s.Targets[0].Data
	default:
		return false
	}

	for {
		switch e := data.(type) {
		case *lua_ast.EParen:
			return true
		case *lua_ast.ECall:
			data = e.Target.Data
		case *lua_ast.EMethodCall:
			data = e.Target.Data
		case *lua_ast.EDot:
			data = e.Target.Data
		case *lua_ast.EIndex:
			data = e.Target.Data
		default:
			return false
		}
	}
}

// stmtEndsWithExpr reports whether the printed statement ends with an
// expression that a following "(" could attach to
func stmtEndsWithExpr(stmt lua_ast.Stmt) bool {
	switch s := stmt.Data.(type) {
	case *lua_ast.SLocal:
		return len(s.Values) > 0
	case *lua_ast.SAssign, *lua_ast.SExpr, *lua_ast.SRepeat:
		return true
	}
	return false
}

func (p *printer) printStmt(stmt lua_ast.Stmt) {
	if !p.options.RemoveWhitespace && p.needsSemicolon && stmtStartsWithParen(stmt) {
		p.print(";")
	}
	p.needsSemicolon = stmtEndsWithExpr(stmt)

	switch s := stmt.Data.(type) {
	case *lua_ast.SLocal:
		p.printSpaceBeforeIdentifier()
		p.print("local")
		for i, name := range s.Names {
			if i > 0 {
				p.print(",")
				p.printSpace()
			}
			p.printSpaceBeforeIdentifier()
			p.print(name)
		}
		if len(s.Values) > 0 {
			p.printSpace()
			p.print("=")
			p.printSpace()
			p.printExprList(s.Values)
		}
		p.printSemicolonAfterStatement()

	case *lua_ast.SLocalFunction:
		p.printSpaceBeforeIdentifier()
		p.print("local")
		p.printSpaceBeforeIdentifier()
		p.print("function")
		p.printSpaceBeforeIdentifier()
		p.print(s.Name)
		p.printFn(s.Fn)
		p.printSemicolonAfterStatement()

	case *lua_ast.SFunction:
		p.printSpaceBeforeIdentifier()
		p.print("function")
		p.printSpaceBeforeIdentifier()
		p.printExpr(s.Target, lua_ast.LLowest)
		if s.IsMethod {
			p.print(":")
			p.print(s.Method)
		}
		p.printFn(s.Fn)
		p.printSemicolonAfterStatement()

	case *lua_ast.SAssign:
		p.printExprList(s.Targets)
		p.printSpace()
		p.print("=")
		p.printSpace()
		p.printExprList(s.Values)
		p.printSemicolonAfterStatement()

	case *lua_ast.SExpr:
		p.printExpr(s.Value, lua_ast.LLowest)
		p.printSemicolonAfterStatement()

	case *lua_ast.SIf:
		p.printSpaceBeforeIdentifier()
		p.print("if")
		p.printSpace()
		p.printExpr(s.Test, lua_ast.LLowest)
		p.printSpace()
		p.printSpaceBeforeIdentifier()
		p.print("then")
		p.printBody(s.Body)
		for _, elseIf := range s.ElseIfs {
			p.printSpaceBeforeIdentifier()
			p.print("elseif")
			p.printSpace()
			p.printExpr(elseIf.Test, lua_ast.LLowest)
			p.printSpace()
			p.printSpaceBeforeIdentifier()
			p.print("then")
			p.printBody(elseIf.Body)
		}
		if s.HasElse {
			p.printSpaceBeforeIdentifier()
			p.print("else")
			p.printBody(s.Else)
		}
		p.printSpaceBeforeIdentifier()
		p.print("end")
		p.printSemicolonAfterStatement()

	case *lua_ast.SWhile:
		p.printSpaceBeforeIdentifier()
		p.print("while")
		p.printSpace()
		p.printExpr(s.Test, lua_ast.LLowest)
		p.printSpace()
		p.printSpaceBeforeIdentifier()
		p.print("do")
		p.printBody(s.Body)
		p.printSpaceBeforeIdentifier()
		p.print("end")
		p.printSemicolonAfterStatement()

	case *lua_ast.SRepeat:
		p.printSpaceBeforeIdentifier()
		p.print("repeat")
		p.printBody(s.Body)
		p.printSpaceBeforeIdentifier()
		p.print("until")
		p.printSpace()
		p.printExpr(s.Test, lua_ast.LLowest)
		p.printSemicolonAfterStatement()

	case *lua_ast.SNumericFor:
		p.printSpaceBeforeIdentifier()
		p.print("for")
		p.printSpaceBeforeIdentifier()
		p.print(s.Name)
		p.printSpace()
		p.print("=")
		p.printSpace()
		p.printExpr(s.Start, lua_ast.LLowest)
		p.print(",")
		p.printSpace()
		p.printExpr(s.End, lua_ast.LLowest)
		if s.Step.Data != nil {
			p.print(",")
			p.printSpace()
			p.printExpr(s.Step, lua_ast.LLowest)
		}
		p.printSpace()
		p.printSpaceBeforeIdentifier()
		p.print("do")
		p.printBody(s.Body)
		p.printSpaceBeforeIdentifier()
		p.print("end")
		p.printSemicolonAfterStatement()

	case *lua_ast.SGenericFor:
		p.printSpaceBeforeIdentifier()
		p.print("for")
		for i, name := range s.Names {
			if i > 0 {
				p.print(",")
				p.printSpace()
			}
			p.printSpaceBeforeIdentifier()
			p.print(name)
		}
		p.printSpace()
		p.printSpaceBeforeIdentifier()
		p.print("in")
		p.printSpace()
		p.printExprList(s.Exprs)
		p.printSpace()
		p.printSpaceBeforeIdentifier()
		p.print("do")
		p.printBody(s.Body)
		p.printSpaceBeforeIdentifier()
		p.print("end")
		p.printSemicolonAfterStatement()

	case *lua_ast.SDo:
		p.printSpaceBeforeIdentifier()
		p.print("do")
		p.printBody(s.Body)
		p.printSpaceBeforeIdentifier()
		p.print("end")
		p.printSemicolonAfterStatement()

	case *lua_ast.SReturn:
		p.printSpaceBeforeIdentifier()
		p.print("return")
		if len(s.Values) > 0 {
			p.printSpace()
			p.printExprList(s.Values)
		}
		p.printSemicolonAfterStatement()

	case *lua_ast.SBreak:
		p.printSpaceBeforeIdentifier()
		p.print("break")
		p.printSemicolonAfterStatement()

	case *lua_ast.SGoto:
		p.printSpaceBeforeIdentifier()
		p.print("goto")
		p.printSpaceBeforeIdentifier()
		p.print(s.Label)
		p.printSemicolonAfterStatement()

	case *lua_ast.SLabel:
		p.print("::")
		p.print(s.Name)
		p.print("::")
		p.printSemicolonAfterStatement()
	}
}

func (p *printer) printFn(fn lua_ast.Fn) {
	p.print("(")
	for i, arg := range fn.Args {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		p.print(arg)
	}
	if fn.HasVararg {
		if len(fn.Args) > 0 {
			p.print(",")
			p.printSpace()
		}
		p.print("...")
	}
	p.print(")")
	p.printBody(fn.Body)
	p.print("end")
}

func (p *printer) printExprList(exprs []lua_ast.Expr) {
	for i, expr := range exprs {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		p.printExpr(expr, lua_ast.LLowest)
	}
}

func isPrefixData(data lua_ast.E) bool {
	switch data.(type) {
	case *lua_ast.EIdent, *lua_ast.EDot, *lua_ast.EIndex, *lua_ast.ECall,
		*lua_ast.EMethodCall, *lua_ast.EParen:
		return true
	}
	return false
}

// printTarget prints the thing a call or index suffix applies to. Only
// prefix expressions may carry suffixes, so anything else gets forced
// parentheses no matter what the precedence levels say.
func (p *printer) printTarget(target lua_ast.Expr) {
	if isPrefixData(target.Data) {
		p.printExpr(target, lua_ast.LLowest)
		return
	}
	p.print("(")
	p.printExpr(target, lua_ast.LLowest)
	p.print(")")
}

func (p *printer) printExpr(expr lua_ast.Expr, level lua_ast.L) {
	switch e := expr.Data.(type) {
	case *lua_ast.ENil:
		p.printSpaceBeforeIdentifier()
		p.print("nil")

	case *lua_ast.EBoolean:
		p.printSpaceBeforeIdentifier()
		if e.Value {
			p.print("true")
		} else {
			p.print("false")
		}

	case *lua_ast.EVararg:
		if p.lastByte() == '.' {
			p.print(" ")
		}
		p.print("...")

	case *lua_ast.ENumber:
		p.printSpaceBeforeIdentifier()
		if strings.HasPrefix(e.Raw, ".") && p.lastByte() == '.' {
			p.print(" ")
		}
		p.print(e.Raw)
		p.prevNumEnd = len(p.lua)

	case *lua_ast.EString:
		p.printString(e)

	case *lua_ast.EIdent:
		p.printSpaceBeforeIdentifier()
		p.print(e.Name)

	case *lua_ast.EDot:
		p.printTarget(e.Target)
		p.print(".")
		p.print(e.Name)

	case *lua_ast.EIndex:
		p.printTarget(e.Target)
		p.print("[")
		p.printExpr(e.Index, lua_ast.LLowest)
		p.print("]")

	case *lua_ast.ECall:
		p.printTarget(e.Target)
		p.print("(")
		p.printExprList(e.Args)
		p.print(")")

	case *lua_ast.EMethodCall:
		p.printTarget(e.Target)
		p.print(":")
		p.print(e.Name)
		p.print("(")
		p.printExprList(e.Args)
		p.print(")")

	case *lua_ast.EFunction:
		p.printSpaceBeforeIdentifier()
		p.print("function")
		p.printFn(e.Fn)

	case *lua_ast.ETable:
		p.print("{")
		for i, property := range e.Properties {
			if i > 0 {
				p.print(",")
				p.printSpace()
			}
			switch property.Kind {
			case lua_ast.PropertyBare:
				p.print(property.KeyName)
				p.printSpace()
				p.print("=")
				p.printSpace()
			case lua_ast.PropertyComputed:
				p.print("[")
				p.printExpr(property.Key, lua_ast.LLowest)
				p.print("]")
				p.printSpace()
				p.print("=")
				p.printSpace()
			}
			p.printExpr(property.Value, lua_ast.LLowest)
		}
		p.print("}")

	case *lua_ast.EParen:
		p.print("(")
		p.printExpr(e.Value, lua_ast.LLowest)
		p.print(")")

	case *lua_ast.EUnary:
		wrap := level >= lua_ast.LUnary
		if wrap {
			p.print("(")
		}
		switch e.Op {
		case lua_ast.UnOpNot:
			p.printSpaceBeforeIdentifier()
			p.print("not")
		case lua_ast.UnOpLen:
			p.print("#")
		case lua_ast.UnOpNeg:
			p.printDash()
		}
		p.printExpr(e.Value, lua_ast.LUnary-1)
		if wrap {
			p.print(")")
		}

	case *lua_ast.EBinary:
		entry := lua_ast.OpTable[e.Op]
		wrap := level >= entry.Level
		if wrap {
			p.print("(")
		}

		leftLevel := entry.Level - 1
		rightLevel := entry.Level - 1
		if entry.IsRightAssoc {
			leftLevel = entry.Level
		} else {
			rightLevel = entry.Level
		}

		p.printExpr(e.Left, leftLevel)
		p.printSpace()
		switch e.Op {
		case lua_ast.BinOpOr, lua_ast.BinOpAnd:
			p.printSpaceBeforeIdentifier()
			p.print(entry.Text)
		case lua_ast.BinOpSub:
			p.printDash()
		case lua_ast.BinOpConcat:
			if p.prevNumEnd == len(p.lua) || p.lastByte() == '.' {
				p.print(" ")
			}
			p.print("..")
		default:
			p.print(entry.Text)
		}
		p.printSpace()
		p.printExpr(e.Right, rightLevel)
		if wrap {
			p.print(")")
		}
	}
}

func (p *printer) printString(e *lua_ast.EString) {
	if e.Quote != 0 {
		quote := string(e.Quote)
		p.print(quote)
		p.print(e.Value)
		p.print(quote)
		return
	}

	// Long bracket strings reproduce their exact delimiter level. An "["
	// right before the opening delimiter would deepen it, so split them.
	if p.lastByte() == '[' {
		p.print(" ")
	}
	equals := strings.Repeat("=", e.Level)
	p.print("[" + equals + "[")
	p.print(e.Value)
	p.print("]" + equals + "]")
}
