package lua_ast

import (
	"github.com/luapack/luapack/internal/logger"
)

// Every expression and statement is a small struct with a location and a
// pointer-typed variant in the Data field. Node identity is the identity
// of that pointer, which is what the mangler's visited set keys on. The
// parser owns all allocations; passes mutate attributes in place and must
// tolerate shared or cyclic structure.

type L int

const (
	LLowest L = iota
	LOr
	LAnd
	LCompare
	LConcat
	LAdd
	LMultiply
	LUnary
	LPow
	LCall
)

type OpCode int

const (
	// Binary operators
	BinOpOr OpCode = iota
	BinOpAnd
	BinOpLt
	BinOpGt
	BinOpLe
	BinOpGe
	BinOpNe
	BinOpEq
	BinOpConcat
	BinOpAdd
	BinOpSub
	BinOpMul
	BinOpDiv
	BinOpMod
	BinOpPow

	// Unary operators
	UnOpNot
	UnOpLen
	UnOpNeg
)

type OpTableEntry struct {
	Text         string
	Level        L
	IsRightAssoc bool
}

var OpTable = []OpTableEntry{
	// Binary operators
	{"or", LOr, false},
	{"and", LAnd, false},
	{"<", LCompare, false},
	{">", LCompare, false},
	{"<=", LCompare, false},
	{">=", LCompare, false},
	{"~=", LCompare, false},
	{"==", LCompare, false},
	{"..", LConcat, true},
	{"+", LAdd, false},
	{"-", LAdd, false},
	{"*", LMultiply, false},
	{"/", LMultiply, false},
	{"%", LMultiply, false},
	{"^", LPow, true},

	// Unary operators
	{"not", LUnary, false},
	{"#", LUnary, false},
	{"-", LUnary, false},
}

type PropertyKind uint8

const (
	// A positional entry with no key: {1, 2, 3}
	PropertyPositional PropertyKind = iota

	// A bare identifier key: {x = 1}
	PropertyBare

	// A bracketed key expression: {["x"] = 1} or {[k] = 1}
	PropertyComputed
)

type Property struct {
	Kind    PropertyKind
	KeyName string     // PropertyBare only
	KeyLoc  logger.Loc // PropertyBare only
	Key     Expr       // PropertyComputed only
	Value   Expr
}

type Fn struct {
	Args      []string
	HasVararg bool
	Body      []Stmt
}

type E interface{ isExpr() }

type ENil struct{}

type EBoolean struct {
	Value bool
}

type EVararg struct{}

type ENumber struct {
	Value float64

	// The literal text exactly as written so printing does not round-trip
	// through float formatting
	Raw string
}

// EString keeps the inner text exactly as written, escapes included, plus
// the quoting form. Quote is '\'' or '"' for short strings; for long
// bracket strings Quote is 0 and Level is the number of '=' signs.
type EString struct {
	Value string
	Quote byte
	Level int
}

type EIdent struct {
	Name string
}

type EDot struct {
	Target  Expr
	Name    string
	NameLoc logger.Loc
}

type EIndex struct {
	Target Expr
	Index  Expr
}

type ECall struct {
	Target Expr
	Args   []Expr
}

// EMethodCall is a:b(...) invocation syntax. The method name occupies a
// table-property position just like a dot access.
type EMethodCall struct {
	Target  Expr
	Name    string
	NameLoc logger.Loc
	Args    []Expr
}

type EFunction struct {
	Fn Fn
}

type ETable struct {
	Properties []Property
}

type EBinary struct {
	Op    OpCode
	Left  Expr
	Right Expr
}

type EUnary struct {
	Op    OpCode
	Value Expr
}

// EParen is kept in the tree because parentheses are semantic in this
// language: (f()) truncates a multiple-value call to its first value.
type EParen struct {
	Value Expr
}

func (*ENil) isExpr()        {}
func (*EBoolean) isExpr()    {}
func (*EVararg) isExpr()     {}
func (*ENumber) isExpr()     {}
func (*EString) isExpr()     {}
func (*EIdent) isExpr()      {}
func (*EDot) isExpr()        {}
func (*EIndex) isExpr()      {}
func (*ECall) isExpr()       {}
func (*EMethodCall) isExpr() {}
func (*EFunction) isExpr()   {}
func (*ETable) isExpr()      {}
func (*EBinary) isExpr()     {}
func (*EUnary) isExpr()      {}
func (*EParen) isExpr()      {}

type Expr struct {
	Loc  logger.Loc
	Data E
}

type S interface{ isStmt() }

type SLocal struct {
	Names  []string
	Values []Expr
}

type SLocalFunction struct {
	Name string
	Fn   Fn
}

// SFunction is a function statement. Target is the name path (an EIdent
// or EDot chain); a method declaration carries the final colon name
// separately because it implies the self argument.
type SFunction struct {
	Target    Expr
	IsMethod  bool
	Method    string
	MethodLoc logger.Loc
	Fn        Fn
}

type SAssign struct {
	Targets []Expr
	Values  []Expr
}

type SExpr struct {
	Value Expr
}

type ElseIf struct {
	Test Expr
	Body []Stmt
}

// SIf keeps elseif chains explicit instead of nesting synthetic else
// blocks, and distinguishes a missing else (Else == nil) from an empty
// one.
type SIf struct {
	Test    Expr
	Body    []Stmt
	ElseIfs []ElseIf
	Else    []Stmt
	HasElse bool
}

type SWhile struct {
	Test Expr
	Body []Stmt
}

type SRepeat struct {
	Body []Stmt
	Test Expr
}

type SNumericFor struct {
	Name  string
	Start Expr
	End   Expr
	Step  Expr // nil when omitted
	Body  []Stmt
}

type SGenericFor struct {
	Names []string
	Exprs []Expr
	Body  []Stmt
}

type SDo struct {
	Body []Stmt
}

type SReturn struct {
	Values []Expr
}

type SBreak struct{}

type SGoto struct {
	Label string
}

type SLabel struct {
	Name string
}

func (*SLocal) isStmt()         {}
func (*SLocalFunction) isStmt() {}
func (*SFunction) isStmt()      {}
func (*SAssign) isStmt()        {}
func (*SExpr) isStmt()          {}
func (*SIf) isStmt()            {}
func (*SWhile) isStmt()         {}
func (*SRepeat) isStmt()        {}
func (*SNumericFor) isStmt()    {}
func (*SGenericFor) isStmt()    {}
func (*SDo) isStmt()            {}
func (*SReturn) isStmt()        {}
func (*SBreak) isStmt()         {}
func (*SGoto) isStmt()          {}
func (*SLabel) isStmt()         {}

type Stmt struct {
	Loc  logger.Loc
	Data S
}

type AST struct {
	Stmts []Stmt
}
