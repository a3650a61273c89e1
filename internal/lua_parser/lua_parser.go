package lua_parser

// A hand-written recursive descent parser. Expressions use precedence
// climbing: parsePrefix handles literals, names, unary operators, and
// parenthesized expressions, then parseSuffix repeatedly extends the
// result with call/index suffixes and binary operators as long as the
// caller's precedence level allows.
//
// All parse failures are fatal for the pass. They report a diagnostic and
// unwind with LexerPanic, which Parse catches and converts to ok=false.

import (
	"github.com/luapack/luapack/internal/logger"
	"github.com/luapack/luapack/internal/lua_ast"
	"github.com/luapack/luapack/internal/lua_lexer"
)

type parser struct {
	log    logger.Log
	source logger.Source
	lexer  lua_lexer.Lexer
}

// Parse converts source text to a syntax tree. The tree is only valid
// when ok is true; diagnostics go to the log either way.
func Parse(log logger.Log, source logger.Source) (result lua_ast.AST, ok bool) {
	ok = true
	defer func() {
		r := recover()
		if _, isLexerPanic := r.(lua_lexer.LexerPanic); isLexerPanic {
			ok = false
		} else if r != nil {
			panic(r)
		}
	}()

	p := &parser{
		log:    log,
		source: source,
		lexer:  lua_lexer.NewLexer(log, source),
	}

	stmts := p.parseStmts()
	p.lexer.Expect(lua_lexer.TEndOfFile)
	result = lua_ast.AST{Stmts: stmts}
	return
}

func (p *parser) addRangeError(r logger.Range, text string) {
	p.log.AddRangeError(&p.source, r, text)
	panic(lua_lexer.LexerPanic{})
}

// parseStmts parses until a block terminator. The terminator itself is
// left for the caller to consume. A return statement ends the block, so
// anything after it runs into the caller's Expect and errors there.
func (p *parser) parseStmts() []lua_ast.Stmt {
	stmts := []lua_ast.Stmt{}

	for {
		switch p.lexer.Token {
		case lua_lexer.TEndOfFile, lua_lexer.TEnd, lua_lexer.TElse, lua_lexer.TElseif, lua_lexer.TUntil:
			return stmts

		case lua_lexer.TSemicolon:
			p.lexer.Next()
			continue
		}

		stmt := p.parseStmt()
		stmts = append(stmts, stmt)

		if _, isReturn := stmt.Data.(*lua_ast.SReturn); isReturn {
			return stmts
		}
	}
}

func (p *parser) parseStmt() lua_ast.Stmt {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case lua_lexer.TLocal:
		p.lexer.Next()

		// "local function" declares and then assigns, which lets the body
		// refer to itself
		if p.lexer.Token == lua_lexer.TFunction {
			p.lexer.Next()
			name := p.lexer.Identifier
			p.lexer.Expect(lua_lexer.TIdentifier)
			fn := p.parseFnBody()
			return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SLocalFunction{Name: name, Fn: fn}}
		}

		names := p.parseNameList()
		var values []lua_ast.Expr
		if p.lexer.Token == lua_lexer.TEquals {
			p.lexer.Next()
			values = p.parseExprList()
		}
		return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SLocal{Names: names, Values: values}}

	case lua_lexer.TIf:
		p.lexer.Next()
		test := p.parseExpr(lua_ast.LLowest)
		p.lexer.Expect(lua_lexer.TThen)
		body := p.parseStmts()

		var elseIfs []lua_ast.ElseIf
		for p.lexer.Token == lua_lexer.TElseif {
			p.lexer.Next()
			elseIfTest := p.parseExpr(lua_ast.LLowest)
			p.lexer.Expect(lua_lexer.TThen)
			elseIfs = append(elseIfs, lua_ast.ElseIf{Test: elseIfTest, Body: p.parseStmts()})
		}

		var elseBody []lua_ast.Stmt
		hasElse := false
		if p.lexer.Token == lua_lexer.TElse {
			p.lexer.Next()
			elseBody = p.parseStmts()
			hasElse = true
		}
		p.lexer.Expect(lua_lexer.TEnd)
		return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SIf{
			Test: test, Body: body, ElseIfs: elseIfs, Else: elseBody, HasElse: hasElse}}

	case lua_lexer.TWhile:
		p.lexer.Next()
		test := p.parseExpr(lua_ast.LLowest)
		p.lexer.Expect(lua_lexer.TDo)
		body := p.parseStmts()
		p.lexer.Expect(lua_lexer.TEnd)
		return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SWhile{Test: test, Body: body}}

	case lua_lexer.TRepeat:
		p.lexer.Next()
		body := p.parseStmts()
		p.lexer.Expect(lua_lexer.TUntil)
		test := p.parseExpr(lua_ast.LLowest)
		return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SRepeat{Body: body, Test: test}}

	case lua_lexer.TFor:
		p.lexer.Next()
		name := p.lexer.Identifier
		p.lexer.Expect(lua_lexer.TIdentifier)

		// "for i = start, end" is numeric, "for k, v in" is generic
		if p.lexer.Token == lua_lexer.TEquals {
			p.lexer.Next()
			start := p.parseExpr(lua_ast.LLowest)
			p.lexer.Expect(lua_lexer.TComma)
			end := p.parseExpr(lua_ast.LLowest)
			var step lua_ast.Expr
			if p.lexer.Token == lua_lexer.TComma {
				p.lexer.Next()
				step = p.parseExpr(lua_ast.LLowest)
			}
			p.lexer.Expect(lua_lexer.TDo)
			body := p.parseStmts()
			p.lexer.Expect(lua_lexer.TEnd)
			return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SNumericFor{
				Name: name, Start: start, End: end, Step: step, Body: body}}
		}

		names := []string{name}
		for p.lexer.Token == lua_lexer.TComma {
			p.lexer.Next()
			names = append(names, p.lexer.Identifier)
			p.lexer.Expect(lua_lexer.TIdentifier)
		}
		p.lexer.Expect(lua_lexer.TIn)
		exprs := p.parseExprList()
		p.lexer.Expect(lua_lexer.TDo)
		body := p.parseStmts()
		p.lexer.Expect(lua_lexer.TEnd)
		return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SGenericFor{Names: names, Exprs: exprs, Body: body}}

	case lua_lexer.TFunction:
		p.lexer.Next()
		target := lua_ast.Expr{Loc: p.lexer.Loc(), Data: &lua_ast.EIdent{Name: p.lexer.Identifier}}
		p.lexer.Expect(lua_lexer.TIdentifier)

		for p.lexer.Token == lua_lexer.TDot {
			p.lexer.Next()
			nameLoc := p.lexer.Loc()
			name := p.lexer.Identifier
			p.lexer.Expect(lua_lexer.TIdentifier)
			target = lua_ast.Expr{Loc: target.Loc, Data: &lua_ast.EDot{
				Target: target, Name: name, NameLoc: nameLoc}}
		}

		isMethod := false
		method := ""
		var methodLoc logger.Loc
		if p.lexer.Token == lua_lexer.TColon {
			p.lexer.Next()
			isMethod = true
			methodLoc = p.lexer.Loc()
			method = p.lexer.Identifier
			p.lexer.Expect(lua_lexer.TIdentifier)
		}

		fn := p.parseFnBody()
		return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SFunction{
			Target: target, IsMethod: isMethod, Method: method, MethodLoc: methodLoc, Fn: fn}}

	case lua_lexer.TDo:
		p.lexer.Next()
		body := p.parseStmts()
		p.lexer.Expect(lua_lexer.TEnd)
		return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SDo{Body: body}}

	case lua_lexer.TReturn:
		p.lexer.Next()
		var values []lua_ast.Expr
		if !p.isBlockEnd() && p.lexer.Token != lua_lexer.TSemicolon {
			values = p.parseExprList()
		}
		if p.lexer.Token == lua_lexer.TSemicolon {
			p.lexer.Next()
		}
		return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SReturn{Values: values}}

	case lua_lexer.TBreak:
		p.lexer.Next()
		return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SBreak{}}

	case lua_lexer.TGoto:
		p.lexer.Next()
		label := p.lexer.Identifier
		p.lexer.Expect(lua_lexer.TIdentifier)
		return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SGoto{Label: label}}

	case lua_lexer.TDoubleColon:
		p.lexer.Next()
		name := p.lexer.Identifier
		p.lexer.Expect(lua_lexer.TIdentifier)
		p.lexer.Expect(lua_lexer.TDoubleColon)
		return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SLabel{Name: name}}

	default:
		return p.parseAssignOrCall()
	}
}

func (p *parser) isBlockEnd() bool {
	switch p.lexer.Token {
	case lua_lexer.TEndOfFile, lua_lexer.TEnd, lua_lexer.TElse, lua_lexer.TElseif, lua_lexer.TUntil:
		return true
	}
	return false
}

// parseAssignOrCall handles the statement forms that begin with an
// expression: multiple assignment and function calls. Anything else is
// not usable as a statement.
func (p *parser) parseAssignOrCall() lua_ast.Stmt {
	loc := p.lexer.Loc()
	r := p.lexer.Range()
	first := p.parseExpr(lua_ast.LLowest)

	if p.lexer.Token == lua_lexer.TComma || p.lexer.Token == lua_lexer.TEquals {
		targets := []lua_ast.Expr{first}
		for p.lexer.Token == lua_lexer.TComma {
			p.lexer.Next()
			targets = append(targets, p.parseExpr(lua_ast.LLowest))
		}
		p.lexer.Expect(lua_lexer.TEquals)
		values := p.parseExprList()

		for _, target := range targets {
			switch target.Data.(type) {
			case *lua_ast.EIdent, *lua_ast.EDot, *lua_ast.EIndex:
			default:
				p.addRangeError(logger.Range{Loc: target.Loc}, "Invalid assignment target")
			}
		}
		return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SAssign{Targets: targets, Values: values}}
	}

	switch first.Data.(type) {
	case *lua_ast.ECall, *lua_ast.EMethodCall:
	default:
		p.addRangeError(r, "Expected an assignment or a function call")
	}
	return lua_ast.Stmt{Loc: loc, Data: &lua_ast.SExpr{Value: first}}
}

func (p *parser) parseNameList() []string {
	names := []string{p.lexer.Identifier}
	p.lexer.Expect(lua_lexer.TIdentifier)
	for p.lexer.Token == lua_lexer.TComma {
		p.lexer.Next()
		names = append(names, p.lexer.Identifier)
		p.lexer.Expect(lua_lexer.TIdentifier)
	}
	return names
}

func (p *parser) parseExprList() []lua_ast.Expr {
	exprs := []lua_ast.Expr{p.parseExpr(lua_ast.LLowest)}
	for p.lexer.Token == lua_lexer.TComma {
		p.lexer.Next()
		exprs = append(exprs, p.parseExpr(lua_ast.LLowest))
	}
	return exprs
}

func (p *parser) parseFnBody() lua_ast.Fn {
	fn := lua_ast.Fn{}
	p.lexer.Expect(lua_lexer.TOpenParen)

	for p.lexer.Token != lua_lexer.TCloseParen {
		if p.lexer.Token == lua_lexer.TDotDotDot {
			p.lexer.Next()
			fn.HasVararg = true
			break
		}
		fn.Args = append(fn.Args, p.lexer.Identifier)
		p.lexer.Expect(lua_lexer.TIdentifier)
		if p.lexer.Token != lua_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(lua_lexer.TCloseParen)
	fn.Body = p.parseStmts()
	p.lexer.Expect(lua_lexer.TEnd)
	return fn
}

func (p *parser) parseTable() lua_ast.Expr {
	loc := p.lexer.Loc()
	p.lexer.Expect(lua_lexer.TOpenBrace)
	properties := []lua_ast.Property{}

	for p.lexer.Token != lua_lexer.TCloseBrace {
		switch p.lexer.Token {
		case lua_lexer.TOpenBracket:
			p.lexer.Next()
			key := p.parseExpr(lua_ast.LLowest)
			p.lexer.Expect(lua_lexer.TCloseBracket)
			p.lexer.Expect(lua_lexer.TEquals)
			value := p.parseExpr(lua_ast.LLowest)
			properties = append(properties, lua_ast.Property{
				Kind: lua_ast.PropertyComputed, Key: key, Value: value})

		default:
			// Either a bare "name = value" entry or a positional value. The
			// two are told apart after parsing: a lone identifier followed
			// by "=" was a key all along.
			expr := p.parseExpr(lua_ast.LLowest)
			if ident, isIdent := expr.Data.(*lua_ast.EIdent); isIdent && p.lexer.Token == lua_lexer.TEquals {
				p.lexer.Next()
				value := p.parseExpr(lua_ast.LLowest)
				properties = append(properties, lua_ast.Property{
					Kind: lua_ast.PropertyBare, KeyName: ident.Name, KeyLoc: expr.Loc, Value: value})
			} else {
				properties = append(properties, lua_ast.Property{
					Kind: lua_ast.PropertyPositional, Value: expr})
			}
		}

		if p.lexer.Token == lua_lexer.TComma || p.lexer.Token == lua_lexer.TSemicolon {
			p.lexer.Next()
			continue
		}
		break
	}

	p.lexer.Expect(lua_lexer.TCloseBrace)
	return lua_ast.Expr{Loc: loc, Data: &lua_ast.ETable{Properties: properties}}
}

func (p *parser) parseExpr(level lua_ast.L) lua_ast.Expr {
	return p.parseSuffix(p.parsePrefix(), level)
}

func (p *parser) parsePrefix() lua_ast.Expr {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case lua_lexer.TNil:
		p.lexer.Next()
		return lua_ast.Expr{Loc: loc, Data: &lua_ast.ENil{}}

	case lua_lexer.TTrue:
		p.lexer.Next()
		return lua_ast.Expr{Loc: loc, Data: &lua_ast.EBoolean{Value: true}}

	case lua_lexer.TFalse:
		p.lexer.Next()
		return lua_ast.Expr{Loc: loc, Data: &lua_ast.EBoolean{Value: false}}

	case lua_lexer.TDotDotDot:
		p.lexer.Next()
		return lua_ast.Expr{Loc: loc, Data: &lua_ast.EVararg{}}

	case lua_lexer.TNumber:
		value := p.lexer.Number
		raw := p.lexer.Raw()
		p.lexer.Next()
		return lua_ast.Expr{Loc: loc, Data: &lua_ast.ENumber{Value: value, Raw: raw}}

	case lua_lexer.TString:
		data := &lua_ast.EString{
			Value: p.lexer.StringValue,
			Quote: p.lexer.StringQuote,
			Level: p.lexer.StringLevel,
		}
		p.lexer.Next()
		return lua_ast.Expr{Loc: loc, Data: data}

	case lua_lexer.TIdentifier:
		name := p.lexer.Identifier
		p.lexer.Next()
		return lua_ast.Expr{Loc: loc, Data: &lua_ast.EIdent{Name: name}}

	case lua_lexer.TFunction:
		p.lexer.Next()
		fn := p.parseFnBody()
		return lua_ast.Expr{Loc: loc, Data: &lua_ast.EFunction{Fn: fn}}

	case lua_lexer.TOpenBrace:
		return p.parseTable()

	case lua_lexer.TOpenParen:
		p.lexer.Next()
		value := p.parseExpr(lua_ast.LLowest)
		p.lexer.Expect(lua_lexer.TCloseParen)
		return lua_ast.Expr{Loc: loc, Data: &lua_ast.EParen{Value: value}}

	case lua_lexer.TNot:
		p.lexer.Next()
		value := p.parseExpr(lua_ast.LUnary)
		return lua_ast.Expr{Loc: loc, Data: &lua_ast.EUnary{Op: lua_ast.UnOpNot, Value: value}}

	case lua_lexer.THash:
		p.lexer.Next()
		value := p.parseExpr(lua_ast.LUnary)
		return lua_ast.Expr{Loc: loc, Data: &lua_ast.EUnary{Op: lua_ast.UnOpLen, Value: value}}

	case lua_lexer.TMinus:
		p.lexer.Next()
		value := p.parseExpr(lua_ast.LUnary)
		return lua_ast.Expr{Loc: loc, Data: &lua_ast.EUnary{Op: lua_ast.UnOpNeg, Value: value}}

	default:
		p.lexer.Unexpected()
		return lua_ast.Expr{}
	}
}

// isPrefixExpr reports whether an expression may take call and index
// suffixes. Literals cannot: "x"("y") is not a call in this language.
func isPrefixExpr(data lua_ast.E) bool {
	switch data.(type) {
	case *lua_ast.EIdent, *lua_ast.EDot, *lua_ast.EIndex, *lua_ast.ECall,
		*lua_ast.EMethodCall, *lua_ast.EParen:
		return true
	}
	return false
}

func (p *parser) parseSuffix(left lua_ast.Expr, level lua_ast.L) lua_ast.Expr {
	for {
		switch p.lexer.Token {
		case lua_lexer.TDot:
			if !isPrefixExpr(left.Data) {
				return left
			}
			p.lexer.Next()
			nameLoc := p.lexer.Loc()
			name := p.lexer.Identifier
			p.lexer.Expect(lua_lexer.TIdentifier)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EDot{
				Target: left, Name: name, NameLoc: nameLoc}}

		case lua_lexer.TOpenBracket:
			if !isPrefixExpr(left.Data) {
				return left
			}
			p.lexer.Next()
			index := p.parseExpr(lua_ast.LLowest)
			p.lexer.Expect(lua_lexer.TCloseBracket)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EIndex{Target: left, Index: index}}

		case lua_lexer.TOpenParen:
			if !isPrefixExpr(left.Data) {
				return left
			}
			p.lexer.Next()
			var args []lua_ast.Expr
			if p.lexer.Token != lua_lexer.TCloseParen {
				args = p.parseExprList()
			}
			p.lexer.Expect(lua_lexer.TCloseParen)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.ECall{Target: left, Args: args}}

		case lua_lexer.TString:
			// Call sugar: f"x" passes the string as the only argument
			if !isPrefixExpr(left.Data) {
				return left
			}
			arg := p.parsePrefix()
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.ECall{
				Target: left, Args: []lua_ast.Expr{arg}}}

		case lua_lexer.TOpenBrace:
			// Call sugar: f{...} passes the table as the only argument
			if !isPrefixExpr(left.Data) {
				return left
			}
			arg := p.parseTable()
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.ECall{
				Target: left, Args: []lua_ast.Expr{arg}}}

		case lua_lexer.TColon:
			if !isPrefixExpr(left.Data) {
				return left
			}
			p.lexer.Next()
			nameLoc := p.lexer.Loc()
			name := p.lexer.Identifier
			p.lexer.Expect(lua_lexer.TIdentifier)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EMethodCall{
				Target: left, Name: name, NameLoc: nameLoc, Args: p.parseCallArgs()}}

		case lua_lexer.TOr:
			if level >= lua_ast.LOr {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LOr)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpOr, Left: left, Right: right}}

		case lua_lexer.TAnd:
			if level >= lua_ast.LAnd {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LAnd)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpAnd, Left: left, Right: right}}

		case lua_lexer.TLessThan:
			if level >= lua_ast.LCompare {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LCompare)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpLt, Left: left, Right: right}}

		case lua_lexer.TGreaterThan:
			if level >= lua_ast.LCompare {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LCompare)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpGt, Left: left, Right: right}}

		case lua_lexer.TLessThanEquals:
			if level >= lua_ast.LCompare {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LCompare)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpLe, Left: left, Right: right}}

		case lua_lexer.TGreaterThanEquals:
			if level >= lua_ast.LCompare {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LCompare)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpGe, Left: left, Right: right}}

		case lua_lexer.TTildeEquals:
			if level >= lua_ast.LCompare {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LCompare)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpNe, Left: left, Right: right}}

		case lua_lexer.TEqualsEquals:
			if level >= lua_ast.LCompare {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LCompare)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpEq, Left: left, Right: right}}

		case lua_lexer.TDotDot:
			// Concatenation is right associative
			if level >= lua_ast.LConcat {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LConcat - 1)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpConcat, Left: left, Right: right}}

		case lua_lexer.TPlus:
			if level >= lua_ast.LAdd {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LAdd)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpAdd, Left: left, Right: right}}

		case lua_lexer.TMinus:
			if level >= lua_ast.LAdd {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LAdd)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpSub, Left: left, Right: right}}

		case lua_lexer.TAsterisk:
			if level >= lua_ast.LMultiply {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LMultiply)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpMul, Left: left, Right: right}}

		case lua_lexer.TSlash:
			if level >= lua_ast.LMultiply {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LMultiply)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpDiv, Left: left, Right: right}}

		case lua_lexer.TPercent:
			if level >= lua_ast.LMultiply {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LMultiply)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpMod, Left: left, Right: right}}

		case lua_lexer.TCaret:
			// Exponentiation is right associative and binds tighter than
			// unary, so "-x^2" is "-(x^2)" and "x^-2" parses
			if level >= lua_ast.LPow {
				return left
			}
			p.lexer.Next()
			right := p.parseExpr(lua_ast.LPow - 1)
			left = lua_ast.Expr{Loc: left.Loc, Data: &lua_ast.EBinary{
				Op: lua_ast.BinOpPow, Left: left, Right: right}}

		default:
			return left
		}
	}
}

func (p *parser) parseCallArgs() []lua_ast.Expr {
	switch p.lexer.Token {
	case lua_lexer.TOpenParen:
		p.lexer.Next()
		var args []lua_ast.Expr
		if p.lexer.Token != lua_lexer.TCloseParen {
			args = p.parseExprList()
		}
		p.lexer.Expect(lua_lexer.TCloseParen)
		return args

	case lua_lexer.TString:
		return []lua_ast.Expr{p.parsePrefix()}

	case lua_lexer.TOpenBrace:
		return []lua_ast.Expr{p.parseTable()}

	default:
		p.lexer.ExpectedString("function arguments")
		return nil
	}
}
